// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

// Package web exposes the authentication API over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
	"github.com/teambee/teambee/internal/i18n"
	"github.com/teambee/teambee/internal/observability"
)

// Deps are the collaborators of a web Server.
type Deps struct {
	Auth          *auth.Service
	Accounts      *auth.AccountService
	Resets        *auth.PasswordResetService
	Registrations *auth.RegistrationService
	Mailer        auth.Mailer
	Messages      auth.MessageBuilder
	Catalog       *i18n.Catalog
	Metrics       *observability.Metrics
	Logger        *slog.Logger

	// Addr is the listen address, BaseURL the externally visible origin
	// used in emailed links.
	Addr    string
	BaseURL string
}

// Server serves the authentication API.
type Server struct {
	echo          *echo.Echo
	addr          string
	baseURL       string
	secureCookies bool

	auth          *auth.Service
	accounts      *auth.AccountService
	resets        *auth.PasswordResetService
	registrations *auth.RegistrationService
	mailer        auth.Mailer
	messages      auth.MessageBuilder
	catalog       *i18n.Catalog
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		addr:          deps.Addr,
		baseURL:       strings.TrimSuffix(deps.BaseURL, "/"),
		secureCookies: strings.HasPrefix(deps.BaseURL, "https://"),
		auth:          deps.Auth,
		accounts:      deps.Accounts,
		resets:        deps.Resets,
		registrations: deps.Registrations,
		mailer:        deps.Mailer,
		messages:      deps.Messages,
		catalog:       deps.Catalog,
		metrics:       deps.Metrics,
		logger:        logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.InfoContext(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api")

	api.POST("/login", s.handleLogin)
	api.POST("/password-reset", s.handleInitiateReset)
	api.GET("/password-reset/:token", s.handleValidateReset)
	api.POST("/password-reset/:token", s.handleConsumeReset)
	api.GET("/register/:token", s.handleValidateInvite)
	api.POST("/register/:token", s.handleCompleteRegistration)

	authed := api.Group("", s.RequireSession)
	authed.POST("/logout", s.handleLogout)
	authed.GET("/me", s.handleMe)

	admin := api.Group("/admin", s.RequireSession, s.RequireAdmin)
	admin.POST("/clubs", s.handleCreateClub)
	admin.GET("/clubs", s.handleListClubs)
	admin.POST("/invites", s.handleCreateInvite)
	admin.GET("/users", s.handleListUsers)
	admin.DELETE("/users/:id", s.handleDeleteUser)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.With("addr", s.addr).Wrap(err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown api server").Wrap(err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// sessionCookie builds the session cookie. A negative maxAge clears it.
func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordTokenIssued(kind string) {
	if s.metrics != nil {
		s.metrics.TokensIssuedTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Server) recordTokenConsumed(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.TokensConsumedTotal.WithLabelValues(kind, outcome).Inc()
	}
}

func (s *Server) recordEmail(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.EmailsSentTotal.WithLabelValues(kind, outcome).Inc()
	}
}
