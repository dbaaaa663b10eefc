package deliverable

import (
	"errors"
	"strings"

	deliverableerrors "go-skillmatrix/internal/deliverable/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return deliverableerrors.ErrDeliverableNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_deliverables_project_name":
			return deliverableerrors.ErrDuplicateName
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_deliverable_skills_pair":
			return deliverableerrors.ErrSkillAlreadyAdded
		case pgErr.Code == "23514" && pgErr.ConstraintName == "ck_deliverable_skills_weight":
			return deliverableerrors.ErrInvalidWeight
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") {
		switch {
		case strings.Contains(msg, "deliverable_skills"):
			return deliverableerrors.ErrSkillAlreadyAdded
		case strings.Contains(msg, "deliverables"):
			return deliverableerrors.ErrDuplicateName
		}
	}

	return err
}
