package deliverableerrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrProjectNotFound       = apperror.NotFound("Project not found")
	ErrDeliverableNotFound   = apperror.NotFound("Deliverable not found")
	ErrSkillNotFound         = apperror.NotFound("Skill not found")
	ErrRequiredSkillNotFound = apperror.NotFound("Skill not found for this deliverable")
	ErrDuplicateName         = apperror.Conflict("Deliverable with this name already exists in the project")
	ErrSkillAlreadyAdded     = apperror.Conflict("Skill already added to this deliverable")
	ErrInvalidWeight         = apperror.Validation("Weight must be between 0 and 1")
	ErrHasActiveAssignments  = apperror.InvalidState("Cannot delete deliverable with active assignments")
)
