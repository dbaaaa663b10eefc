package employee

import (
	"context"
	"database/sql"

	"go-skillmatrix/internal/shared/dbtx"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxChainDepth bounds the reporting-chain walk.
const maxChainDepth = 1000

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *EmployeeProfile) error
	FindByID(ctx context.Context, id string) (*EmployeeProfile, error)
	FindByIDForUpdate(ctx context.Context, id string) (*EmployeeProfile, error)
	FindByUserID(ctx context.Context, userID string) (*EmployeeProfile, error)
	FindAll(ctx context.Context) ([]EmployeeRow, error)
	FindRowByID(ctx context.Context, id string) (*EmployeeRow, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	DepartmentExists(ctx context.Context, departmentID string) (bool, error)
	ReportsTo(ctx context.Context, employeeID, ancestorID string) (bool, error)
	UpdateManager(ctx context.Context, employeeID string, managerID *uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, p *EmployeeProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*EmployeeProfile, error) {
	var p EmployeeProfile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*EmployeeProfile, error) {
	var p EmployeeProfile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*EmployeeProfile, error) {
	var p EmployeeProfile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) rows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_profiles ep").
		Select(`ep.id, ep.user_id, ep.fullname, u.email, u.role,
			ep.department_id, d.name AS department_name,
			ep.manager_id, m.fullname AS manager_fullname`).
		Joins("JOIN users u ON u.id = ep.user_id").
		Joins("JOIN departments d ON d.id = ep.department_id").
		Joins("LEFT JOIN employee_profiles m ON m.id = ep.manager_id")
}

func (r *repository) FindAll(ctx context.Context) ([]EmployeeRow, error) {
	var out []EmployeeRow
	err := r.rows(ctx).Order("ep.fullname ASC").Scan(&out).Error
	return out, err
}

func (r *repository) FindRowByID(ctx context.Context, id string) (*EmployeeRow, error) {
	var out []EmployeeRow
	if err := r.rows(ctx).Where("ep.id = ?", id).Limit(1).Scan(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out[0], nil
}

func (r *repository) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("users").Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *repository) DepartmentExists(ctx context.Context, departmentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("departments").Where("id = ?", departmentID).Count(&count).Error
	return count > 0, err
}

// ReportsTo reports whether ancestorID appears in employeeID's management
// chain, employeeID itself included.
func (r *repository) ReportsTo(ctx context.Context, employeeID, ancestorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE chain AS (
			SELECT id, manager_id, 1 AS depth
			FROM employee_profiles
			WHERE id = ?
			UNION ALL
			SELECT ep.id, ep.manager_id, chain.depth + 1
			FROM employee_profiles ep
			JOIN chain ON ep.id = chain.manager_id
			WHERE chain.depth < ?
		)
		SELECT COUNT(*) FROM chain WHERE id = ?`,
		employeeID, maxChainDepth, ancestorID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repository) UpdateManager(ctx context.Context, employeeID string, managerID *uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&EmployeeProfile{}).
		Where("id = ?", employeeID).
		Update("manager_id", managerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
