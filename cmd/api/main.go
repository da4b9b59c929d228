package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pradeepsarraf/sajilomart-backend/api/routes"
	"github.com/pradeepsarraf/sajilomart-backend/internal/catalog"
	"github.com/pradeepsarraf/sajilomart-backend/internal/checkout"
	"github.com/pradeepsarraf/sajilomart-backend/internal/coupons"
	"github.com/pradeepsarraf/sajilomart-backend/internal/genai"
	"github.com/pradeepsarraf/sajilomart-backend/internal/identity"
	"github.com/pradeepsarraf/sajilomart-backend/internal/notifications"
	"github.com/pradeepsarraf/sajilomart-backend/internal/orders"
	"github.com/pradeepsarraf/sajilomart-backend/internal/siteconfig"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/metrics"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/migrate"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/realtime"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/redis"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/storage/images"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bus := realtime.NewBus(redisClient, logg)
	stats := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	genaiClient := genai.NewClient(cfg.GenAI, logg)

	mailer, err := notifications.NewComposer(notifications.NewSender(cfg.Email, logg), genaiClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create email composer", err)
		os.Exit(1)
	}

	identityRepo := identity.NewRepository(dbClient.DB())
	identitySvc, err := identity.NewService(identityRepo, dbClient, outboxSvc, redisClient, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), images.NewClient(cfg.Images, logg), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	couponSvc, err := coupons.NewService(coupons.NewRepository(dbClient.DB()), logg, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, identityRepo, outboxSvc, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(catalogSvc, couponSvc, orderSvc, logg, stats)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	siteSvc, err := siteconfig.NewService(siteconfig.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create site config service", err)
		os.Exit(1)
	}
	if err := siteSvc.EnsureSeeded(context.Background(), cfg.App.SeedAdminEmails); err != nil {
		logg.Error(context.Background(), "failed to seed site config", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Cfg:    cfg,
			Logg:   logg,
			DB:     dbClient,
			Redis:  redisClient,
			Bus:    bus,
			GenAI:  genaiClient,
			Mailer: mailer,

			Identity:   identitySvc,
			Catalog:    catalogSvc,
			Coupons:    couponSvc,
			Checkout:   checkoutSvc,
			Orders:     orderSvc,
			SiteConfig: siteSvc,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(context.Background(), "api server shut down gracefully")
	}
}
