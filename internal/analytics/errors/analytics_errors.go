package analyticserrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrEmployeeNotFound = apperror.NotFound("Employee not found")
	ErrSkillNotFound    = apperror.NotFound("Skill not found")
	ErrSkillNotRated    = apperror.NotFound("Employee has not rated this skill")
)
