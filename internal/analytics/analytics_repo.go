package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=analytics_repo.go -destination=mock/analytics_repo_mock.go -package=mock
type Repository interface {
	FindEmployee(ctx context.Context, id string) (*EmployeeRow, error)
	ListEmployees(ctx context.Context) ([]EmployeeRow, error)
	FindSkill(ctx context.Context, id string) (*SkillRow, error)
	ListRatings(ctx context.Context, employeeID *uuid.UUID) ([]RatingRow, error)
	FindRating(ctx context.Context, employeeID, skillID uuid.UUID) (*RatingRow, error)
	ListLogs(ctx context.Context, employeeID uuid.UUID, skillID *uuid.UUID) ([]LogRow, error)
	CountActiveProjects(ctx context.Context) (int64, error)
	CountEmployees(ctx context.Context) (int64, error)
	CountPendingAssignments(ctx context.Context) (int64, error)
	CountRatingsSince(ctx context.Context, since time.Time) (int64, error)
	LogTimesSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func first[T any](rows []T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) employees(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_profiles ep").
		Select("ep.id, ep.fullname, d.name AS department_name").
		Joins("JOIN departments d ON d.id = ep.department_id")
}

func (r *repository) FindEmployee(ctx context.Context, id string) (*EmployeeRow, error) {
	var out []EmployeeRow
	err := r.employees(ctx).Where("ep.id = ?", id).Limit(1).Scan(&out).Error
	return first(out, err)
}

func (r *repository) ListEmployees(ctx context.Context) ([]EmployeeRow, error) {
	var out []EmployeeRow
	err := r.employees(ctx).Order("ep.fullname ASC").Scan(&out).Error
	return out, err
}

func (r *repository) FindSkill(ctx context.Context, id string) (*SkillRow, error) {
	var out []SkillRow
	err := r.db.WithContext(ctx).
		Table("skills").
		Select("id, name, description").
		Where("id = ?", id).
		Limit(1).
		Scan(&out).Error
	return first(out, err)
}

func (r *repository) ratings(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_skills es").
		Select(`es.employee_id, es.skill_id, s.name AS skill_name, es.self_rating,
			es.approved_rating, es.status, es.updated_at`).
		Joins("JOIN skills s ON s.id = es.skill_id")
}

// ListRatings returns ratings for one employee, or for everyone when
// employeeID is nil.
func (r *repository) ListRatings(ctx context.Context, employeeID *uuid.UUID) ([]RatingRow, error) {
	q := r.ratings(ctx)
	if employeeID != nil {
		q = q.Where("es.employee_id = ?", *employeeID)
	}

	var out []RatingRow
	err := q.Order("s.name ASC").Scan(&out).Error
	return out, err
}

func (r *repository) FindRating(ctx context.Context, employeeID, skillID uuid.UUID) (*RatingRow, error) {
	var out []RatingRow
	err := r.ratings(ctx).
		Where("es.employee_id = ? AND es.skill_id = ?", employeeID, skillID).
		Limit(1).
		Scan(&out).Error
	return first(out, err)
}

// ListLogs returns audit entries oldest first.
func (r *repository) ListLogs(ctx context.Context, employeeID uuid.UUID, skillID *uuid.UUID) ([]LogRow, error) {
	q := r.db.WithContext(ctx).
		Table("skill_progress_logs l").
		Select(`l.skill_id, l.previous_rating, l.new_rating, l.change_type, l.comment,
			l.changed_at, l.changed_by, u.email AS reviewer_email, rp.fullname AS reviewer_name`).
		Joins("LEFT JOIN users u ON u.id = l.changed_by").
		Joins("LEFT JOIN employee_profiles rp ON rp.user_id = l.changed_by").
		Where("l.employee_id = ?", employeeID)
	if skillID != nil {
		q = q.Where("l.skill_id = ?", *skillID)
	}

	var out []LogRow
	err := q.Order("l.changed_at ASC").Scan(&out).Error
	return out, err
}

func (r *repository) count(ctx context.Context, table string, where string, args ...interface{}) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *repository) CountActiveProjects(ctx context.Context) (int64, error) {
	return r.count(ctx, "projects", "status = ?", "ACTIVE")
}

func (r *repository) CountEmployees(ctx context.Context) (int64, error) {
	return r.count(ctx, "employee_profiles", "")
}

func (r *repository) CountPendingAssignments(ctx context.Context) (int64, error) {
	return r.count(ctx, "assignment_requests", "status = ?", "PENDING")
}

func (r *repository) CountRatingsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, "employee_skills", "created_at >= ?", since)
}

// LogTimesSince returns change timestamps so the caller can bucket them by
// day without dialect specific date functions.
func (r *repository) LogTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).
		Table("skill_progress_logs").
		Where("changed_at >= ?", since).
		Pluck("changed_at", &out).Error
	return out, err
}
