package assignment

import (
	"errors"
	"strings"

	assignmenterrors "go-skillmatrix/internal/assignment/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return assignmenterrors.ErrRequestNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "uq_active_assignment_per_employee":
			return assignmenterrors.ErrAlreadyAssigned
		case "uq_pending_assignment_request":
			return assignmenterrors.ErrPendingExists
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") {
		switch {
		case strings.Contains(msg, "employee_project_assignments"):
			return assignmenterrors.ErrAlreadyAssigned
		case strings.Contains(msg, "assignment_requests"):
			return assignmenterrors.ErrPendingExists
		}
	}

	return err
}
