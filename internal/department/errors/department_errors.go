package departmenterrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrDepartmentNotFound      = apperror.NotFound("Department not found")
	ErrDepartmentAlreadyExists = apperror.Conflict("Department already exists")
)
