package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	AuthRateLimit AuthRateLimitConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Email         EmailConfig
	GenAI         GenAIConfig
	Images        ImagesConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SAJILOMART_APP_ENV" required:"true"`
	Port         string `envconfig:"SAJILOMART_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"SAJILOMART_BASE_URL"`
	LogLevel     string `envconfig:"SAJILOMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SAJILOMART_LOG_WARN_STACK" default:"false"`

	// SeedAdminEmails populates the admin allowlist on first boot. Later
	// changes go through the admin API, not the environment.
	SeedAdminEmails []string `envconfig:"SAJILOMART_SEED_ADMIN_EMAILS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SAJILOMART_DB_DSN"`
	Driver string `envconfig:"SAJILOMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SAJILOMART_DB_HOST"`
	Port     int    `envconfig:"SAJILOMART_DB_PORT" default:"5432"`
	User     string `envconfig:"SAJILOMART_DB_USER"`
	Password string `envconfig:"SAJILOMART_DB_PASSWORD"`
	Name     string `envconfig:"SAJILOMART_DB_NAME"`
	SSLMode  string `envconfig:"SAJILOMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAJILOMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAJILOMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAJILOMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAJILOMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either SAJILOMART_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SAJILOMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAJILOMART_REDIS_ADDR"`
	Password     string        `envconfig:"SAJILOMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAJILOMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAJILOMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAJILOMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAJILOMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAJILOMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAJILOMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthRateLimitConfig throttles credential-guessing traffic on the auth
// endpoints. A zero window disables the corresponding policy.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SAJILOMART_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"SAJILOMART_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"SAJILOMART_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"SAJILOMART_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"SAJILOMART_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"SAJILOMART_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SAJILOMART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SAJILOMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SAJILOMART_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SAJILOMART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SAJILOMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SAJILOMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SAJILOMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SAJILOMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SAJILOMART_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SAJILOMART_AUTO_MIGRATE" default:"false"`
}

// EmailConfig points at the transactional email provider. The API key is
// validated at call time, not startup, so the API can boot without it.
type EmailConfig struct {
	APIKey      string        `envconfig:"SAJILOMART_EMAIL_API_KEY"`
	APIBaseURL  string        `envconfig:"SAJILOMART_EMAIL_API_BASE_URL" default:"https://api.brevo.com/v3"`
	SenderName  string        `envconfig:"SAJILOMART_EMAIL_SENDER_NAME" default:"SajiloMart"`
	SenderEmail string        `envconfig:"SAJILOMART_EMAIL_SENDER_EMAIL" default:"noreply@sajilomart.com"`
	Timeout     time.Duration `envconfig:"SAJILOMART_EMAIL_TIMEOUT" default:"10s"`
	MaxRetries  int           `envconfig:"SAJILOMART_EMAIL_MAX_RETRIES" default:"3"`
}

// GenAIConfig points at the generative content provider.
type GenAIConfig struct {
	APIKey     string        `envconfig:"SAJILOMART_GENAI_API_KEY"`
	APIBaseURL string        `envconfig:"SAJILOMART_GENAI_API_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Model      string        `envconfig:"SAJILOMART_GENAI_MODEL" default:"gemini-2.0-flash"`
	Timeout    time.Duration `envconfig:"SAJILOMART_GENAI_TIMEOUT" default:"60s"`
}

// ImagesConfig points at the hosted image store used for product media.
type ImagesConfig struct {
	CloudName    string        `envconfig:"SAJILOMART_IMAGES_CLOUD_NAME"`
	APIKey       string        `envconfig:"SAJILOMART_IMAGES_API_KEY"`
	APISecret    string        `envconfig:"SAJILOMART_IMAGES_API_SECRET"`
	UploadPreset string        `envconfig:"SAJILOMART_IMAGES_UPLOAD_PRESET"`
	Timeout      time.Duration `envconfig:"SAJILOMART_IMAGES_TIMEOUT" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SAJILOMART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SAJILOMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"SAJILOMART_PUBSUB_DOMAIN_TOPIC" default:"sajilomart-domain-events"`
	DomainSubscription string `envconfig:"SAJILOMART_PUBSUB_DOMAIN_SUBSCRIPTION" default:"sajilomart-notifier"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SAJILOMART_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SAJILOMART_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SAJILOMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
