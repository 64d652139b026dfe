package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"ypg-admin-api/internal/auth"
	"ypg-admin-api/internal/cache"
	"ypg-admin-api/internal/config"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/events"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/handler"
	"ypg-admin-api/internal/middleware"
	"ypg-admin-api/internal/notify"
	"ypg-admin-api/internal/payment"
	"ypg-admin-api/internal/service"
	"ypg-admin-api/internal/tracing"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if _, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.JaegerEndpoint,
		ServiceName: tracing.DefaultServiceName,
		Environment: cfg.Tracing.Environment,
	}); err != nil {
		return err
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Counters for rate limiting and login lockout
	var counters cache.Store
	if cfg.RateLimit.RedisAddr != "" {
		counters, err = cache.NewRedisStore(cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
		if err != nil {
			return err
		}
		logger.Info("using redis counter store", zap.String("addr", cfg.RateLimit.RedisAddr))
	} else {
		counters = cache.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, rate limits are per process")
	}
	defer counters.Close()

	flags := features.FromConfig(cfg.Features.AutoVerification, cfg.Features.EmailNotifications, cfg.RateLimit.Enabled)

	eventManager := events.NewManager(true, logger)
	defer eventManager.Shutdown()

	var mailer notify.Mailer = notify.NopMailer{}
	if cfg.Mail.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		logger.Warn("SMTP_HOST not set, notifications are disabled")
	}
	notify.NewDispatcher(mailer, notify.Options{
		AdminEmail: cfg.Mail.AdminEmail,
		OrgName:    cfg.Org.Name,
		Flags:      flags,
		Logger:     logger,
	}).Subscribe(eventManager)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenDuration())

	svc := service.NewService(db, service.Options{
		Gateway:         payment.NewSimulatedGateway(cfg.Features.CardSuccessRate, nil),
		Events:          eventManager,
		Flags:           flags,
		Tokens:          tokens,
		Counters:        counters,
		Logger:          logger,
		ReceiptPrefix:   cfg.Org.ReceiptPrefix,
		DefaultCurrency: cfg.Org.DefaultCurrency,
	})

	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
		Logger:      logger,
	})

	router := handler.NewRouter(h, handler.RouterOptions{
		RateLimiter:    middleware.NewRateLimiter(counters, flags, logger),
		Verifier:       tokens,
		Logger:         logger,
		AllowedOrigins: splitOrigins(cfg.Security.AllowedOrigins),
		Window:         cfg.RateLimit.WindowDuration(),
		SubmitMax:      cfg.RateLimit.SubmitMax,
		PaymentMax:     cfg.RateLimit.PaymentMax,
		LoginMax:       cfg.RateLimit.LoginMax,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("error shutting down server", zap.Error(err))
		}
		if err := tracing.Shutdown(ctx); err != nil {
			logger.Error("error shutting down tracing", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("addr", addr),
		zap.Bool("tls", cfg.Server.EnableTLS),
		zap.String("database", cfg.Database.Path),
		zap.Int("rate_limit_window_seconds", cfg.RateLimit.Window),
		zap.Any("features", flags.List()),
	)

	if cfg.Server.EnableTLS {
		err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	<-done
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
