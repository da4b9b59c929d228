package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/auth"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	dbtypes "github.com/pradeepsarraf/sajilomart-backend/pkg/db/types"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox/payloads"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/security"
)

const minPasswordLength = 8

// Login failures all read the same to the caller. The real cause goes to the
// log, never to the response.
const invalidCredentialsMessage = "invalid email or password"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type refreshStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
}

// Service exposes account lifecycle operations: signup, sessions, admin
// moderation.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) (*models.User, error)
}

type service struct {
	repo    UserRepository
	tx      txRunner
	events  outboxEmitter
	tokens  refreshStore
	jwtCfg  config.JWTConfig
	pwdCfg  config.PasswordConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the identity service backed by the provided stack.
func NewService(repo UserRepository, tx txRunner, events outboxEmitter, tokens refreshStore, jwtCfg config.JWTConfig, pwdCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("refresh token store required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		events: events,
		tokens: tokens,
		jwtCfg: jwtCfg,
		pwdCfg: pwdCfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a logged-in user's token pair.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Register creates the account and queues the welcome email through the
// outbox in one transaction.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email address is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.now()
	user := &models.User{
		ID:               uuid.New(),
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		RegistrationDate: now,
		Status:           enums.UserStatusActive,
		OrderIDs:         dbtypes.UUIDArray{},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID},
			Data: payloads.UserRegisteredEvent{
				UserID:       user.ID,
				Name:         user.Name,
				Email:        user.Email,
				RegisteredAt: now,
			},
			Version: 1,
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if user.Status == enums.UserStatusBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account has been blocked")
	}

	return s.openSession(ctx, user)
}

// Refresh rotates the session: the presented token must match the stored one
// exactly, and a fresh pair replaces it.
func (s *service) Refresh(ctx context.Context, userID uuid.UUID, refreshToken string) (*Session, error) {
	stored, err := s.tokens.GetRefreshToken(ctx, userID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refresh token")
	}
	if stored == "" || stored != refreshToken {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is invalid or revoked")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == enums.UserStatusBlocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account has been blocked")
	}
	return s.openSession(ctx, user)
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.tokens.RevokeRefreshToken(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
	}
	return nil
}

// ChangePassword re-checks the current password and revokes the refresh
// token so other devices must log in again.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) error {
	if len(replacement) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(replacement, s.pwdCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	if err := s.tokens.RevokeRefreshToken(ctx, userID.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "revoking refresh token after password change failed")
	}
	return nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

// SetStatus is the admin block/unblock switch. Blocking also revokes the
// refresh token so the session dies at the next refresh.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) (*models.User, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user status")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if status == enums.UserStatusBlocked {
		if err := s.tokens.RevokeRefreshToken(ctx, id.String()); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, id.String()), "revoking refresh token for blocked user failed")
		}
	}
	return s.GetUser(ctx, id)
}

func (s *service) openSession(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now()
	accessToken, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken := uuid.NewString()
	if err := s.tokens.StoreRefreshToken(ctx, user.ID.String(), refreshToken, s.jwtCfg.RefreshTokenTTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
	}, nil
}
