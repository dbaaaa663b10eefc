package projecterrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrProjectNotFound      = apperror.NotFound("Project not found")
	ErrInvalidStatus        = apperror.Validation("Status must be one of PLANNED, ACTIVE, COMPLETED")
	ErrInvalidDate          = apperror.Validation("Dates must be formatted as YYYY-MM-DD")
	ErrInvalidDateRange     = apperror.Validation("End date must not be before start date")
	ErrInvalidTransition    = apperror.InvalidState("Invalid status transition")
	ErrHasActiveAssignments = apperror.InvalidState("Cannot delete project with active assignments")
	ErrNotPlanned           = apperror.InvalidState("Only PLANNED projects can be deleted")
)
