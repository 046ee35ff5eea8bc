// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package web

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/teambee/teambee/internal/auth"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// httpError translates a service error into an echo.HTTPError with the
// matching status. Codes not in the expected set are reported as a
// generic 500 so storage details never leak to clients.
func httpError(err error) *echo.HTTPError {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  "INTERNAL",
		})
	}

	var (
		status int
		code   string
	)
	switch oopsErr.Code() {
	case auth.CodeInvalidCredentials:
		status, code = http.StatusUnauthorized, auth.CodeInvalidCredentials
	case auth.CodeAccountLocked:
		status, code = http.StatusForbidden, auth.CodeAccountLocked
	case "SESSION_INVALID", "SESSION_EXPIRED", "SESSION_NOT_FOUND":
		status, code = http.StatusUnauthorized, "SESSION_INVALID"
	case auth.CodeTokenInvalid:
		status, code = http.StatusNotFound, auth.CodeTokenInvalid
	case auth.CodeTokenUsed:
		status, code = http.StatusConflict, auth.CodeTokenUsed
	case auth.CodePasswordTooShort:
		status, code = http.StatusBadRequest, auth.CodePasswordTooShort
	case auth.CodeSamePassword:
		status, code = http.StatusBadRequest, auth.CodeSamePassword
	case "AUTH_INVALID_EMAIL":
		status, code = http.StatusBadRequest, "AUTH_INVALID_EMAIL"
	case "AUTH_INVALID_LANGUAGE", "AUTH_INVALID_CLUB":
		status, code = http.StatusBadRequest, "AUTH_INVALID_REQUEST"
	case auth.CodeClubNotFound:
		status, code = http.StatusNotFound, auth.CodeClubNotFound
	case "AUTH_USER_NOT_FOUND":
		status, code = http.StatusNotFound, "AUTH_USER_NOT_FOUND"
	case auth.CodeClubExists:
		status, code = http.StatusConflict, auth.CodeClubExists
	case auth.CodeUserExists:
		status, code = http.StatusConflict, auth.CodeUserExists
	case auth.CodeEmailFailed:
		status, code = http.StatusBadGateway, auth.CodeEmailFailed
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return echo.NewHTTPError(status, ErrorResponse{Error: msg, Code: code})
}
