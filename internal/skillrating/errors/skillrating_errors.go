package skillratingerrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrInvalidRating         = apperror.Validation("Rating must be between 1 and 5")
	ErrInvalidApprovedRating = apperror.Validation("Valid approved rating (1-5) required for edit action")
	ErrInvalidAction         = apperror.Validation("Action must be one of APPROVE, EDIT, REJECT")
	ErrProfileNotFound       = apperror.NotFound("Employee profile not found")
	ErrManagerNotFound       = apperror.NotFound("Manager profile not found")
	ErrSkillNotFound         = apperror.NotFound("Skill not found")
	ErrRatingNotFound        = apperror.NotFound("Rating not found")
	ErrAlreadyRated          = apperror.Conflict("Skill already rated")
	ErrNotOwner              = apperror.Forbidden("Unauthorized")
	ErrManagerMismatch       = apperror.Forbidden("Manager mismatch")
	ErrAlreadyReviewed       = apperror.InvalidState("Cannot update reviewed rating")
	ErrNotPending            = apperror.InvalidState("Rating is not pending")
	ErrNotRejected           = apperror.InvalidState("Only rejected ratings can be resubmitted")
)
