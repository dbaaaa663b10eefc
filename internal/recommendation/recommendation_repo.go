package recommendation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads the snapshot the ranking runs over. Everything here is
// read-only, so there is no WithTx.
//
//go:generate mockgen -source=recommendation_repo.go -destination=mock/recommendation_repo_mock.go -package=mock
type Repository interface {
	FindDeliverable(ctx context.Context, id string) (*DeliverableRow, error)
	FindProject(ctx context.Context, id string) (*ProjectRow, error)
	ListDeliverables(ctx context.Context, projectID uuid.UUID) ([]DeliverableRow, error)
	ListRequirements(ctx context.Context, deliverableID uuid.UUID) ([]Requirement, error)
	ListEmployees(ctx context.Context) ([]EmployeeRow, error)
	FindEmployee(ctx context.Context, id string) (*EmployeeRow, error)
	ListApprovedRatings(ctx context.Context, skillIDs []uuid.UUID, employeeIDs ...uuid.UUID) ([]RatingRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindDeliverable(ctx context.Context, id string) (*DeliverableRow, error) {
	var out []DeliverableRow
	err := r.db.WithContext(ctx).
		Table("deliverables").
		Select("id, project_id, name, description").
		Where("id = ?", id).
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

func (r *repository) FindProject(ctx context.Context, id string) (*ProjectRow, error) {
	var out []ProjectRow
	err := r.db.WithContext(ctx).
		Table("projects").
		Select("id, name").
		Where("id = ?", id).
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

func (r *repository) ListDeliverables(ctx context.Context, projectID uuid.UUID) ([]DeliverableRow, error) {
	var out []DeliverableRow
	err := r.db.WithContext(ctx).
		Table("deliverables").
		Select("id, project_id, name, description").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) ListRequirements(ctx context.Context, deliverableID uuid.UUID) ([]Requirement, error) {
	var out []Requirement
	err := r.db.WithContext(ctx).
		Table("deliverable_skills ds").
		Select("ds.skill_id, s.name AS skill_name, ds.weight").
		Joins("JOIN skills s ON s.id = ds.skill_id").
		Where("ds.deliverable_id = ?", deliverableID).
		Order("ds.weight DESC").
		Order("s.name ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) employees(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_profiles ep").
		Select("ep.id, ep.user_id, ep.fullname, u.email, d.name AS department_name").
		Joins("JOIN users u ON u.id = ep.user_id").
		Joins("JOIN departments d ON d.id = ep.department_id")
}

// ListEmployees is the full scan the ranking works on, in a fixed order so
// ties stay deterministic between calls.
func (r *repository) ListEmployees(ctx context.Context) ([]EmployeeRow, error) {
	var out []EmployeeRow
	err := r.employees(ctx).
		Order("ep.fullname ASC").
		Order("ep.id ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) FindEmployee(ctx context.Context, id string) (*EmployeeRow, error) {
	var out []EmployeeRow
	err := r.employees(ctx).
		Where("ep.id = ?", id).
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

func (r *repository) ListApprovedRatings(ctx context.Context, skillIDs []uuid.UUID, employeeIDs ...uuid.UUID) ([]RatingRow, error) {
	var out []RatingRow
	if len(skillIDs) == 0 {
		return out, nil
	}

	q := r.db.WithContext(ctx).
		Table("employee_skills").
		Select("employee_id, skill_id, status, approved_rating").
		Where("approved_rating IS NOT NULL").
		Where("skill_id IN ?", skillIDs)
	if len(employeeIDs) > 0 {
		q = q.Where("employee_id IN ?", employeeIDs)
	}

	err := q.Scan(&out).Error
	return out, err
}
