package employeeerrors

import "go-skillmatrix/internal/shared/apperror"

var (
	ErrEmployeeNotFound     = apperror.NotFound("Employee not found")
	ErrUserNotFound         = apperror.NotFound("User not found")
	ErrDepartmentNotFound   = apperror.NotFound("Department not found")
	ErrManagerNotFound      = apperror.NotFound("Manager not found")
	ErrProfileAlreadyExists = apperror.Conflict("Profile already exists")
	ErrSelfAssignment       = apperror.Validation("Self assignment is not allowed")
	ErrDepartmentMismatch   = apperror.Validation("Department mismatch")
	ErrReportingCycle       = apperror.Validation("Manager assignment would create a reporting cycle")
)
