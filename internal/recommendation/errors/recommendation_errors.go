package recommendationerrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrDeliverableNotFound = apperror.NotFound("Deliverable not found")
	ErrProjectNotFound     = apperror.NotFound("Project not found")
	ErrEmployeeNotFound    = apperror.NotFound("Employee not found")
	ErrNoRequiredSkills    = apperror.Validation("Deliverable has no required skills defined")
	ErrNoDeliverables      = apperror.Validation("Project has no deliverables. Run AI analysis first.")
	ErrInvalidTopK         = apperror.Validation("topK must be between 1 and 1000")
)
