// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/teambee/teambee/internal/auth"
	"github.com/teambee/teambee/internal/auth/postgres"
	"github.com/teambee/teambee/internal/config"
	"github.com/teambee/teambee/internal/i18n"
	"github.com/teambee/teambee/internal/logging"
	"github.com/teambee/teambee/internal/mail"
	"github.com/teambee/teambee/internal/observability"
	"github.com/teambee/teambee/internal/store"
	"github.com/teambee/teambee/internal/web"
	"github.com/teambee/teambee/pkg/errutil"
)

// cleanupInterval is how often stale tokens and expired sessions are
// removed in the background.
const cleanupInterval = time.Hour

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Teambee API server",
		Long: `Start the API server. Pending database migrations are applied on
startup. Configuration comes from defaults, the optional --config file,
TEAMBEE_ environment variables, DATABASE_URL, and flags, in that order.`,
		RunE: runServe,
	}

	f := cmd.Flags()
	f.String("server.addr", ":8080", "HTTP listen address")
	f.String("server.base_url", "http://localhost:8080", "externally visible origin used in emailed links")
	f.String("database.url", "", "PostgreSQL connection URL")
	f.String("observability.addr", ":9090", "metrics/health listen address (empty = disabled)")
	f.String("logging.level", "info", "log level (debug, info, warn, error)")
	f.String("logging.format", "json", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("teambee", version, cfg.Logging.Format, cfg.Logging.Level)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrateUp(cfg.Database.URL, logger); err != nil {
		return err
	}

	catalog, err := i18n.Load()
	if err != nil {
		return err
	}

	users := postgres.NewUserRepository(pool)
	clubs := postgres.NewClubRepository(pool)
	tokens := postgres.NewTokenRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	tx := postgres.NewTransactor(pool)
	hasher := auth.NewArgon2idHasher()

	messages := mail.NewMessages(catalog)
	var mailer auth.Mailer
	if cfg.MailEnabled() {
		smtpMailer, err := mail.NewSMTPMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			return err
		}
		mailer = smtpMailer
	} else {
		logger.Warn("smtp not configured, outgoing mail is logged instead of delivered")
		mailer = mail.NewLogMailer(logger)
	}

	authSvc := auth.NewService(users, sessions, hasher, logger)
	accounts := auth.NewAccountService(users, clubs, hasher)
	resets := auth.NewPasswordResetService(auth.PasswordResetDeps{
		Users:    users,
		Tokens:   tokens,
		Tx:       tx,
		Hasher:   hasher,
		Mailer:   mailer,
		Messages: messages,
		BaseURL:  cfg.Server.BaseURL,
		Logger:   logger,
	})
	registrations := auth.NewRegistrationService(users, clubs, tokens, tx, hasher, logger)

	var (
		obs      *observability.Server
		obsErrCh <-chan error
		metrics  *observability.Metrics
	)
	if cfg.Observability.Addr != "" {
		obs = observability.NewServer(cfg.Observability.Addr, func() bool {
			return pool.Ping(ctx) == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		metrics = obs.Metrics()
	}

	api := web.NewServer(web.Deps{
		Auth:          authSvc,
		Accounts:      accounts,
		Resets:        resets,
		Registrations: registrations,
		Mailer:        mailer,
		Messages:      messages,
		Catalog:       catalog,
		Metrics:       metrics,
		Logger:        logger,
		Addr:          cfg.Server.Addr,
		BaseURL:       cfg.Server.BaseURL,
	})

	go cleanupLoop(ctx, registrations, sessions, metrics, logger)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- api.Start()
	}()

	logger.Info("teambee ready", "addr", cfg.Server.Addr, "base_url", cfg.Server.BaseURL)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			return oops.With("operation", "serve api").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			return oops.With("operation", "serve observability").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := api.Shutdown(shutdownCtx); err != nil {
		errutil.LogWarn(logger, "shutting down api server", err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			errutil.LogWarn(logger, "shutting down observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// migrateUp applies pending migrations with a dedicated connection.
func migrateUp(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return err
	}
	if version, dirty, err := migrator.Version(); err == nil && !dirty {
		logger.Info("database schema up to date", "version", version)
	}
	if err := migrator.Close(); err != nil {
		errutil.LogWarn(logger, "closing migrator", err)
	}
	return nil
}

// cleanupLoop periodically removes stale tokens and expired sessions.
func cleanupLoop(ctx context.Context, registrations *auth.RegistrationService, sessions auth.SessionRepository, metrics *observability.Metrics, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := registrations.CleanupExpired(ctx); err != nil {
				errutil.LogWarn(logger, "cleaning up stale tokens", err)
			} else if n > 0 {
				if metrics != nil {
					metrics.TokensCleanedTotal.Add(float64(n))
				}
				logger.Info("removed stale tokens", "count", n)
			}

			if n, err := sessions.DeleteExpired(ctx, time.Now()); err != nil {
				errutil.LogWarn(logger, "cleaning up expired sessions", err)
			} else if n > 0 {
				logger.Info("removed expired sessions", "count", n)
			}
		}
	}
}
