package skillerrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrSkillNotFound      = apperror.NotFound("Skill not found")
	ErrSkillAlreadyExists = apperror.Conflict("Skill already exists")
)
