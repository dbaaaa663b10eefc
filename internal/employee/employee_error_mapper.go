package employee

import (
	"errors"
	"strings"

	employeeerrors "go-skillmatrix/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employee_profiles_user":
			return employeeerrors.ErrProfileAlreadyExists
		case pgErr.Code == "23514" && pgErr.ConstraintName == "ck_employee_profiles_not_own_manager":
			return employeeerrors.ErrSelfAssignment
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unique") && strings.Contains(errMsg, "employee_profiles.user_id") {
		return employeeerrors.ErrProfileAlreadyExists
	}

	return err
}
