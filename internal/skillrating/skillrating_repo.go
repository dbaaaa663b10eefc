package skillrating

import (
	"context"
	"database/sql"
	"time"

	"go-skillmatrix/internal/shared/dbtx"
	"go-skillmatrix/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=skillrating_repo.go -destination=mock/skillrating_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindProfileByUserID(ctx context.Context, userID string) (*Profile, error)
	FindProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	SkillExists(ctx context.Context, skillID string) (bool, error)
	ExistsForPair(ctx context.Context, employeeID uuid.UUID, skillID string) (bool, error)
	Create(ctx context.Context, rating *EmployeeSkill) error
	FindByIDForUpdate(ctx context.Context, id string) (*EmployeeSkill, error)
	Save(ctx context.Context, rating *EmployeeSkill) error
	LastLogTime(ctx context.Context, employeeID, skillID uuid.UUID) (*time.Time, error)
	AppendLog(ctx context.Context, entry *SkillProgressLog) error
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]RatingRow, error)
	ListPendingByManager(ctx context.Context, managerID uuid.UUID) ([]RatingRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: dbtx.Bind(r.db, tx)}
}

func (r *repository) findProfile(ctx context.Context, column string, value any) (*Profile, error) {
	var out []Profile
	err := r.db.WithContext(ctx).
		Table("employee_profiles").
		Select("id, user_id, fullname, manager_id").
		Where(column+" = ?", value).
		Limit(1).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out[0], nil
}

func (r *repository) FindProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	return r.findProfile(ctx, "user_id", userID)
}

func (r *repository) FindProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.findProfile(ctx, "id", id)
}

func (r *repository) SkillExists(ctx context.Context, skillID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("skills").Where("id = ?", skillID).Count(&count).Error
	return count > 0, err
}

func (r *repository) ExistsForPair(ctx context.Context, employeeID uuid.UUID, skillID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&EmployeeSkill{}).
		Where("employee_id = ? AND skill_id = ?", employeeID, skillID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Create(ctx context.Context, rating *EmployeeSkill) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*EmployeeSkill, error) {
	var rating EmployeeSkill
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rating, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *repository) Save(ctx context.Context, rating *EmployeeSkill) error {
	return r.db.WithContext(ctx).Save(rating).Error
}

// LastLogTime returns the newest changed_at for the pair, or nil when the
// pair has no history yet.
func (r *repository) LastLogTime(ctx context.Context, employeeID, skillID uuid.UUID) (*time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&SkillProgressLog{}).
		Where("employee_id = ? AND skill_id = ?", employeeID, skillID).
		Order("changed_at DESC").
		Limit(1).
		Pluck("changed_at", &times).Error
	if err != nil || len(times) == 0 {
		return nil, err
	}
	return &times[0], nil
}

func (r *repository) AppendLog(ctx context.Context, entry *SkillProgressLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ratingRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_skills es").
		Select(`es.id, es.employee_id, ep.fullname AS employee_fullname, u.email AS employee_email,
			es.skill_id, s.name AS skill_name, es.self_rating, es.approved_rating, es.status,
			es.reviewed_by, rv.email AS reviewer_email, es.reviewed_at, es.review_comment,
			es.created_at, es.updated_at`).
		Joins("JOIN skills s ON s.id = es.skill_id").
		Joins("JOIN employee_profiles ep ON ep.id = es.employee_id").
		Joins("JOIN users u ON u.id = ep.user_id").
		Joins("LEFT JOIN users rv ON rv.id = es.reviewed_by")
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]RatingRow, error) {
	var out []RatingRow
	err := r.ratingRows(ctx).
		Where("es.employee_id = ?", employeeID).
		Order("es.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *repository) ListPendingByManager(ctx context.Context, managerID uuid.UUID) ([]RatingRow, error) {
	var out []RatingRow
	err := r.ratingRows(ctx).
		Scopes(scope.ReportsTo(managerID), scope.Status("es", StatusPending)).
		Order("es.created_at ASC").
		Scan(&out).Error
	return out, err
}
