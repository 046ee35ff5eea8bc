// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
	"github.com/teambee/teambee/pkg/errutil"
)

// ProfileResponse is the JSON view of an authenticated user.
type ProfileResponse struct {
	UserID   int64   `json:"user_id"`
	ClubID   *int64  `json:"club_id"`
	ClubName *string `json:"club_name"`
	Email    string  `json:"email"`
	IsAdmin  bool    `json:"is_admin"`
}

func profileResponse(p *auth.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:   p.UserID,
		ClubID:   p.ClubID,
		ClubName: p.ClubName,
		Email:    p.Email,
		IsAdmin:  p.IsAdmin(),
	}
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	profile, session, token, err := s.auth.Login(
		c.Request().Context(), req.Email, req.Password,
		c.Request().UserAgent(), c.RealIP(),
	)
	if err != nil {
		s.recordLogin(loginOutcome(err))
		return httpError(err)
	}

	s.recordLogin("success")
	c.SetCookie(s.sessionCookie(token, session.ExpiresAt))
	return c.JSON(http.StatusOK, profileResponse(profile))
}

// loginOutcome labels a failed login for metrics.
func loginOutcome(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "error"
	}
	switch oopsErr.Code() {
	case auth.CodeInvalidCredentials:
		return "invalid"
	case auth.CodeAccountLocked:
		return "locked"
	default:
		return "error"
	}
}

func (s *Server) handleLogout(c echo.Context) error {
	session := currentSession(c)
	if err := s.auth.Logout(c.Request().Context(), session.ID); err != nil {
		errutil.LogWarn(s.logger, "deleting session on logout", err)
	}
	c.SetCookie(s.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, profileResponse(currentProfile(c)))
}

// ResetRequest starts a password reset.
type ResetRequest struct {
	Email    string `json:"email"`
	Language string `json:"language"`
}

func (s *Server) handleInitiateReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	lang := req.Language
	if auth.ValidateLanguage(lang) != nil {
		lang = auth.DefaultLanguage
	}

	if err := s.resets.InitiateReset(c.Request().Context(), req.Email, lang); err != nil {
		s.recordEmail("password_reset", "failure")
		return httpError(err)
	}
	// A nil error covers both "mail sent" and "email unknown"; the
	// distinction must not be observable, so only failures are counted.

	// Same response whether or not the email exists.
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": s.catalog.Text(lang, "reset_requested"),
	})
}

func (s *Server) handleValidateReset(c echo.Context) error {
	value := c.Param("token")
	lang := s.resets.TokenLanguage(c.Request().Context(), value)

	if err := s.resets.ValidateReset(c.Request().Context(), value); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid":    true,
		"language": lang,
	})
}

// NewPasswordRequest carries the replacement password.
type NewPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleConsumeReset(c echo.Context) error {
	var req NewPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	value := c.Param("token")
	if err := s.resets.ConsumeReset(c.Request().Context(), value, req.Password); err != nil {
		s.recordTokenConsumed(string(auth.TokenKindPasswordReset), "failure")
		return httpError(err)
	}
	s.recordTokenConsumed(string(auth.TokenKindPasswordReset), "success")
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) handleValidateInvite(c echo.Context) error {
	clubID, err := s.registrations.ValidateInvite(c.Request().Context(), c.Param("token"))
	if err != nil {
		return httpError(err)
	}

	club, err := s.accounts.GetClub(c.Request().Context(), clubID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":     true,
		"club_id":   club.ID,
		"club_name": club.Name,
		"language":  club.Language,
	})
}

// RegisterRequest completes a club registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleCompleteRegistration(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	userID, err := s.registrations.CompleteRegistration(c.Request().Context(), c.Param("token"), req.Email, req.Password)
	if err != nil {
		s.recordTokenConsumed(string(auth.TokenKindRegistrationInvite), "failure")
		return httpError(err)
	}
	s.recordTokenConsumed(string(auth.TokenKindRegistrationInvite), "success")
	return c.JSON(http.StatusCreated, map[string]any{"user_id": userID})
}

// CreateClubRequest is the admin club creation body.
type CreateClubRequest struct {
	Name         string `json:"name"`
	SystemPrefix string `json:"system_prefix"`
	Language     string `json:"language"`
}

func (s *Server) handleCreateClub(c echo.Context) error {
	var req CreateClubRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	if req.Language == "" {
		req.Language = auth.DefaultLanguage
	}

	clubID, err := s.accounts.CreateClub(c.Request().Context(), req.Name, req.SystemPrefix, req.Language)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"club_id": clubID})
}

// ClubResponse is one club in the admin listing.
type ClubResponse struct {
	ClubID       int64     `json:"club_id"`
	Name         string    `json:"name"`
	SystemPrefix string    `json:"system_prefix"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleListClubs(c echo.Context) error {
	clubs, err := s.accounts.ListClubs(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	resp := make([]ClubResponse, 0, len(clubs))
	for _, club := range clubs {
		resp = append(resp, ClubResponse{
			ClubID:       club.ID,
			Name:         club.Name,
			SystemPrefix: club.SystemPrefix,
			Language:     club.Language,
			CreatedAt:    club.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateInviteRequest is the admin invitation body. Email is optional;
// when present the invitation link is mailed to it in the club's
// language.
type CreateInviteRequest struct {
	ClubID   int64  `json:"club_id"`
	Email    string `json:"email"`
	TTLHours int    `json:"ttl_hours"`
}

func (s *Server) handleCreateInvite(c echo.Context) error {
	var req CreateInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}

	ttl := time.Duration(req.TTLHours) * time.Hour
	value, err := s.registrations.CreateInvite(c.Request().Context(), req.ClubID, ttl)
	if err != nil {
		return httpError(err)
	}
	s.recordTokenIssued(string(auth.TokenKindRegistrationInvite))

	link := s.baseURL + "/register/" + value

	if req.Email != "" {
		club, err := s.accounts.GetClub(c.Request().Context(), req.ClubID)
		if err != nil {
			return httpError(err)
		}
		subject, body := s.messages.RegistrationInvite(club.Language, club.Name, link)
		if err := s.mailer.Send(c.Request().Context(), req.Email, subject, body); err != nil {
			// The invite itself is created; report the delivery failure
			// and let the admin share the link manually.
			s.recordEmail("registration_invite", "failure")
			errutil.LogError(s.logger, "sending invitation mail", err)
			return c.JSON(http.StatusCreated, map[string]any{
				"token":      value,
				"link":       link,
				"email_sent": false,
			})
		}
		s.recordEmail("registration_invite", "success")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"token":      value,
		"link":       link,
		"email_sent": req.Email != "",
	})
}

// UserResponse is one user in the admin listing.
type UserResponse struct {
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	ClubID    *int64     `json:"club_id"`
	ClubName  *string    `json:"club_name"`
	IsAdmin   bool       `json:"is_admin"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.accounts.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			UserID:    u.UserID,
			Email:     u.Email,
			ClubID:    u.ClubID,
			ClubName:  u.ClubName,
			IsAdmin:   u.IsAdmin(),
			LastLogin: u.LastLogin,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "BAD_REQUEST"})
	}

	if err := s.accounts.DeleteUser(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
