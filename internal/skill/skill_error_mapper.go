package skill

import (
	"errors"

	skillerrors "go-skillmatrix/internal/skill/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return skillerrors.ErrSkillNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_skills_name" {
		return skillerrors.ErrSkillAlreadyExists
	}

	return err
}
