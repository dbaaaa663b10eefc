package skillrating

import (
	"errors"
	"strings"

	skillratingerrors "go-skillmatrix/internal/skillrating/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return skillratingerrors.ErrRatingNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_employee_skills_pair":
			return skillratingerrors.ErrAlreadyRated
		case pgErr.Code == "23514":
			return skillratingerrors.ErrInvalidRating
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "unique") &&
		strings.Contains(err.Error(), "employee_skills") {
		return skillratingerrors.ErrAlreadyRated
	}

	return err
}
