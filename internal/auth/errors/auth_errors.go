package autherrors

import (
	"net/http"

	"go-skillmatrix/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		"Invalid credentials",
		http.StatusUnauthorized,
	)
	ErrTokenNotFound = apperror.New(
		apperror.CodeUnauthorized,
		"Token not found",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"Invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"Token has expired",
		http.StatusUnauthorized,
	)
	ErrUnauthorized = apperror.ErrUnauthorized
	ErrForbidden    = apperror.ErrForbidden

	ErrUserNotFound      = apperror.NotFound("User not found")
	ErrUserAlreadyExists = apperror.Conflict("User already exists")
	ErrInvalidRole       = apperror.Validation("Invalid role")
	ErrInvalidUserID     = apperror.Validation("Invalid user ID")

	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"Failed to generate token",
		http.StatusInternalServerError,
	)
)
