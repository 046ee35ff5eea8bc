// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teambee/teambee/internal/auth"
)

// SessionCookieName is the cookie carrying the plaintext session token.
const SessionCookieName = "teambee_session"

const (
	profileKey = "teambee.profile"
	sessionKey = "teambee.session"
)

// RequireSession resolves the session cookie to a user profile and
// stores both on the echo context. Requests without a valid session get
// a 401.
func (s *Server) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{
				Error: "authentication required",
				Code:  "SESSION_INVALID",
			})
		}

		profile, session, err := s.auth.ValidateSession(c.Request().Context(), cookie.Value)
		if err != nil {
			return httpError(err)
		}

		c.Set(profileKey, profile)
		c.Set(sessionKey, session)
		return next(c)
	}
}

// RequireAdmin allows only platform administrators through. Must run
// after RequireSession.
func (s *Server) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		profile := currentProfile(c)
		if profile == nil || !profile.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, ErrorResponse{
				Error: "administrator access required",
				Code:  "FORBIDDEN",
			})
		}
		return next(c)
	}
}

// currentProfile returns the authenticated profile set by RequireSession.
func currentProfile(c echo.Context) *auth.Profile {
	profile, _ := c.Get(profileKey).(*auth.Profile)
	return profile
}

// currentSession returns the session set by RequireSession.
func currentSession(c echo.Context) *auth.Session {
	session, _ := c.Get(sessionKey).(*auth.Session)
	return session
}
