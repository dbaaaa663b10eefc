package project

import (
	"context"
	"database/sql"

	"go-skillmatrix/internal/aiplanner"
	"go-skillmatrix/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=project_repo.go -destination=mock/project_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]SummaryRow, error)
	CountDeliverables(ctx context.Context, id uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveAssignments(ctx context.Context, id uuid.UUID) (int64, error)
	SkillCatalog(ctx context.Context) ([]aiplanner.CatalogSkill, error)
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

func (r *repository) Create(ctx context.Context, p *Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context) ([]SummaryRow, error) {
	var out []SummaryRow
	err := r.db.WithContext(ctx).
		Table("projects p").
		Select(`p.*, (SELECT COUNT(*) FROM deliverables d WHERE d.project_id = p.id) AS deliverables_count`).
		Order("p.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *repository) CountDeliverables(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("deliverables").Where("project_id = ?", id).Count(&count).Error
	return count, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).
		Model(&Project{ID: id}).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the project; deliverables, their skills and requests
// cascade in the schema.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
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
		Where("project_id = ? AND released_at IS NULL", id).
		Count(&count).Error
	return count, err
}

func (r *repository) SkillCatalog(ctx context.Context) ([]aiplanner.CatalogSkill, error) {
	var out []aiplanner.CatalogSkill
	err := r.db.WithContext(ctx).
		Table("skills").
		Select("id, name, description").
		Order("name ASC").
		Scan(&out).Error
	return out, err
}
