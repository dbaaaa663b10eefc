package apperror

import "net/http"

// Shared errors for failures that do not belong to one feature. Feature
// packages declare their own not-found and validation errors.
var (
	ErrInternal = New(CodeInternalError, "An unexpected error occurred", http.StatusInternalServerError)

	// ErrUnauthorized is returned when a protected route is reached without
	// an authenticated role.
	ErrUnauthorized = New(CodeUnauthorized, "Authentication is required", http.StatusUnauthorized)

	// ErrForbidden is returned when the caller's role lacks the permission
	// a route requires.
	ErrForbidden = Forbidden("You do not have permission to access this resource")

	// ErrInvalidInput covers request bodies that could not be decoded at all.
	ErrInvalidInput = New(CodeValidation, "Invalid input", http.StatusBadRequest)
)
