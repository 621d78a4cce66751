package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"flockmanager/config"
	_ "flockmanager/docs"
	authadapter "flockmanager/internal/adapters/auth"
	"flockmanager/internal/adapters/devtoken"
	"flockmanager/internal/adapters/email"
	"flockmanager/internal/adapters/identity"
	"flockmanager/internal/adapters/qrcode"
	httpdelivery "flockmanager/internal/delivery/http"
	"flockmanager/internal/delivery/http/controllers"
	"flockmanager/internal/domain"
	"flockmanager/internal/repository/postgres"
	"flockmanager/internal/services"
)

const (
	shutdownTimeout   = 20 * time.Second
	devTokenSweep     = time.Minute
	readHeaderTimeout = 5 * time.Second
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func serveRun(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)
	if cfg.GeneratedSecret {
		logger.Warn("APP_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	checkInKey, err := authadapter.DeriveKey(cfg.AppSecret, authadapter.PurposeCheckInToken)
	if err != nil {
		return err
	}
	sessionKey, err := authadapter.DeriveKey(cfg.AppSecret, authadapter.PurposeSessionToken)
	if err != nil {
		return err
	}
	codec := authadapter.NewCheckInTokenCodec(checkInKey, cfg.CheckInTokenTTL)
	sessions := authadapter.NewSessionTokenIssuer(sessionKey, cfg.SessionTokenTTL)

	var devTokens domain.DevTokenStore
	if !cfg.IsProduction() {
		store, err := newDevTokenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		devTokens = store
		logger.Info("development login links enabled", "store", cfg.DevTokenStore)
	}

	provider := identity.NewProvider(ctx, identity.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		OutageCooldown:  cfg.FirebaseOutageCooldown,
	}, logger)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
		SMTP: email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(registry)
	dispatcher := services.NewDispatcher(cfg.ExternalCallTimeout, logger)

	members := postgres.NewMemberRepository(db)
	checkIns := services.NewCheckInService(services.CheckInDependencies{
		Events:      postgres.NewEventRepository(db),
		Members:     members,
		Attendance:  postgres.NewAttendanceRepository(db),
		Codec:       codec,
		Resolver:    services.NewIdentityResolver(members, logger),
		Email:       emailService,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		FrontendURL: cfg.FrontendURL,
	})
	authService := services.NewAuthService(services.AuthDependencies{
		Members:        members,
		Provider:       provider,
		DevTokens:      devTokens,
		Sessions:       sessions,
		Email:          emailService,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		FrontendURL:    cfg.FrontendURL,
		Production:     cfg.IsProduction(),
		DevTokenTTL:    cfg.DevTokenTTL,
		ContextTimeout: cfg.ExternalCallTimeout,
	})

	handler := httpdelivery.NewRouter(httpdelivery.RouterConfig{
		Logger:         logger,
		Events:         controllers.NewEventController(logger, checkIns, qrcode.NewRenderer(cfg.QRCodeSize), cfg.IsProduction()),
		Auth:           controllers.NewAuthController(logger, authService, cfg.IsProduction()),
		Health:         controllers.NewHealthController(logger, db),
		Sessions:       sessions,
		Registry:       registry,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	// Let queued notification emails finish before the process exits.
	dispatcher.Wait()
	return nil
}

type closableDevTokenStore interface {
	domain.DevTokenStore
	io.Closer
}

func newDevTokenStore(ctx context.Context, cfg *config.Config) (closableDevTokenStore, error) {
	if cfg.DevTokenStore == "redis" {
		client, err := devtoken.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("dev token store: %w", err)
		}
		return devtoken.NewRedisStore(client, devtoken.DefaultKeyPrefix), nil
	}
	return devtoken.NewMemoryStore(devTokenSweep), nil
}
