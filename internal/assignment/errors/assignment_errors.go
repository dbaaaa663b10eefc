package assignmenterrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrInvalidAction       = apperror.Validation("Action must be one of APPROVE, REJECT")
	ErrDeliverableNotFound = apperror.NotFound("Deliverable not found")
	ErrEmployeeNotFound    = apperror.NotFound("Employee not found")
	ErrRequestNotFound     = apperror.NotFound("Request not found")
	ErrManagerNotFound     = apperror.NotFound("Manager profile not found")
	ErrProjectNotActive    = apperror.InvalidState("Project is not active")
	ErrRequestNotPending   = apperror.InvalidState("Request is not pending")
	ErrAlreadyAssigned     = apperror.Conflict("Employee already has active assignment")
	ErrPendingExists       = apperror.Conflict("Pending request already exists")
	ErrReviewInProgress    = apperror.Conflict("Another review for this employee is in progress")
	ErrManagerMismatch     = apperror.Forbidden("Manager mismatch")
)
