package deliverable

import (
	"context"
	"database/sql"

	"go-skillmatrix/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=deliverable_repo.go -destination=mock/deliverable_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	SkillExists(ctx context.Context, skillID string) (bool, error)
	Create(ctx context.Context, d *Deliverable) error
	FindByID(ctx context.Context, id string) (*Deliverable, error)
	ExistsByName(ctx context.Context, projectID uuid.UUID, name string) (bool, error)
	ListByProject(ctx context.Context, projectID string) ([]SummaryRow, error)
	Update(ctx context.Context, d *Deliverable) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveAssignments(ctx context.Context, id uuid.UUID) (int64, error)
	AddSkill(ctx context.Context, ds *DeliverableSkill) error
	FindSkill(ctx context.Context, deliverableID, skillID string) (*DeliverableSkill, error)
	ListSkills(ctx context.Context, deliverableID string) ([]RequiredSkillRow, error)
	UpdateSkillWeight(ctx context.Context, deliverableID, skillID uuid.UUID, weight float64) error
	RemoveSkill(ctx context.Context, deliverableID, skillID uuid.UUID) error
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

func (r *repository) exists(ctx context.Context, table, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repository) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return r.exists(ctx, "projects", projectID)
}

func (r *repository) SkillExists(ctx context.Context, skillID string) (bool, error) {
	return r.exists(ctx, "skills", skillID)
}

func (r *repository) Create(ctx context.Context, d *Deliverable) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Deliverable, error) {
	var d Deliverable
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ExistsByName(ctx context.Context, projectID uuid.UUID, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Deliverable{}).
		Where("project_id = ? AND name = ?", projectID, name).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByProject(ctx context.Context, projectID string) ([]SummaryRow, error) {
	var out []SummaryRow
	err := r.db.WithContext(ctx).
		Table("deliverables d").
		Select(`d.id, d.project_id, d.name, d.description, d.created_at,
			(SELECT COUNT(*) FROM deliverable_skills ds WHERE ds.deliverable_id = d.id) AS required_skills,
			(SELECT COUNT(*) FROM employee_project_assignments a
				WHERE a.deliverable_id = d.id AND a.released_at IS NULL) AS active_assignments,
			(SELECT COUNT(*) FROM assignment_requests ar
				WHERE ar.deliverable_id = d.id AND ar.status = 'PENDING') AS pending_requests`).
		Where("d.project_id = ?", projectID).
		Order("d.created_at ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) Update(ctx context.Context, d *Deliverable) error {
	return r.db.WithContext(ctx).
		Model(&Deliverable{ID: d.ID}).
		Select("name", "description").
		Updates(d).Error
}

// Delete removes the deliverable; skills and requests go with it through
// ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Deliverable{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountActiveAssignments(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employee_project_assignments").
		Where("deliverable_id = ? AND released_at IS NULL", id).
		Count(&count).Error
	return count, err
}

func (r *repository) AddSkill(ctx context.Context, ds *DeliverableSkill) error {
	return r.db.WithContext(ctx).Create(ds).Error
}

func (r *repository) FindSkill(ctx context.Context, deliverableID, skillID string) (*DeliverableSkill, error) {
	var ds DeliverableSkill
	err := r.db.WithContext(ctx).
		First(&ds, "deliverable_id = ? AND skill_id = ?", deliverableID, skillID).Error
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *repository) ListSkills(ctx context.Context, deliverableID string) ([]RequiredSkillRow, error) {
	var out []RequiredSkillRow
	err := r.db.WithContext(ctx).
		Table("deliverable_skills ds").
		Select("ds.deliverable_id, ds.skill_id, s.name AS skill_name, s.description AS skill_description, ds.weight").
		Joins("JOIN skills s ON s.id = ds.skill_id").
		Where("ds.deliverable_id = ?", deliverableID).
		Order("ds.weight DESC").
		Order("s.name ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) UpdateSkillWeight(ctx context.Context, deliverableID, skillID uuid.UUID, weight float64) error {
	res := r.db.WithContext(ctx).
		Model(&DeliverableSkill{}).
		Where("deliverable_id = ? AND skill_id = ?", deliverableID, skillID).
		Update("weight", weight)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) RemoveSkill(ctx context.Context, deliverableID, skillID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&DeliverableSkill{}, "deliverable_id = ? AND skill_id = ?", deliverableID, skillID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
