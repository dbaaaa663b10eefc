package assignment

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

//go:generate mockgen -source=assignment_repo.go -destination=mock/assignment_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindDeliverable(ctx context.Context, id string) (*DeliverableRef, error)
	LockProjectStatus(ctx context.Context, projectID uuid.UUID) (string, error)
	FindProfileByID(ctx context.Context, id string) (*Profile, error)
	FindProfileByUserID(ctx context.Context, userID string) (*Profile, error)
	LockProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	HasActiveAssignment(ctx context.Context, employeeID uuid.UUID) (bool, error)
	HasPendingRequest(ctx context.Context, employeeID, deliverableID uuid.UUID) (bool, error)
	CreateRequest(ctx context.Context, req *AssignmentRequest) error
	FindRequestByID(ctx context.Context, id string) (*AssignmentRequest, error)
	FindRequestForUpdate(ctx context.Context, id string) (*AssignmentRequest, error)
	SaveRequest(ctx context.Context, req *AssignmentRequest) error
	CreateAssignment(ctx context.Context, a *EmployeeProjectAssignment) error
	ReleaseByProject(ctx context.Context, projectID uuid.UUID, at time.Time) (int64, error)
	ListPendingByManager(ctx context.Context, managerID uuid.UUID) ([]PendingRequestRow, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]AssignmentRow, error)
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

func (r *repository) FindDeliverable(ctx context.Context, id string) (*DeliverableRef, error) {
	var out []DeliverableRef
	err := r.db.WithContext(ctx).
		Table("deliverables d").
		Select("d.id, d.project_id, d.name, p.status AS project_status").
		Joins("JOIN projects p ON p.id = d.project_id").
		Where("d.id = ?", id).
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

// LockProjectStatus reads the project status under a shared row lock, so an
// approval waits for a concurrent status change to commit and then sees it.
func (r *repository) LockProjectStatus(ctx context.Context, projectID uuid.UUID) (string, error) {
	var statuses []string
	err := r.db.WithContext(ctx).
		Table("projects").
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", projectID).
		Limit(1).
		Pluck("status", &statuses).Error
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return statuses[0], nil
}

func (r *repository) profiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("employee_profiles").
		Select("id, user_id, fullname, manager_id")
}

func scanProfile(q *gorm.DB) (*Profile, error) {
	var out []Profile
	if err := q.Limit(1).Scan(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out[0], nil
}

func (r *repository) FindProfileByID(ctx context.Context, id string) (*Profile, error) {
	return scanProfile(r.profiles(ctx).Where("id = ?", id))
}

func (r *repository) FindProfileByUserID(ctx context.Context, userID string) (*Profile, error) {
	return scanProfile(r.profiles(ctx).Where("user_id = ?", userID))
}

// LockProfile reads the profile row FOR UPDATE. Approvals for the same
// employee queue on this row for the rest of the transaction.
func (r *repository) LockProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.profiles(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *repository) HasActiveAssignment(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&EmployeeProjectAssignment{}).
		Scopes(scope.Unreleased("employee_project_assignments")).
		Where("employee_id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasPendingRequest(ctx context.Context, employeeID, deliverableID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AssignmentRequest{}).
		Scopes(scope.Status("assignment_requests", StatusPending)).
		Where("employee_id = ? AND deliverable_id = ?", employeeID, deliverableID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateRequest(ctx context.Context, req *AssignmentRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindRequestByID(ctx context.Context, id string) (*AssignmentRequest, error) {
	var req AssignmentRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindRequestForUpdate(ctx context.Context, id string) (*AssignmentRequest, error) {
	var req AssignmentRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) SaveRequest(ctx context.Context, req *AssignmentRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) CreateAssignment(ctx context.Context, a *EmployeeProjectAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ReleaseByProject ends every active assignment of the project and returns
// how many were released.
func (r *repository) ReleaseByProject(ctx context.Context, projectID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&EmployeeProjectAssignment{}).
		Scopes(scope.Unreleased("employee_project_assignments")).
		Where("project_id = ?", projectID).
		Update("released_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) ListPendingByManager(ctx context.Context, managerID uuid.UUID) ([]PendingRequestRow, error) {
	var out []PendingRequestRow
	err := r.db.WithContext(ctx).
		Table("assignment_requests ar").
		Select(`ar.id, ar.project_id, p.name AS project_name, ar.deliverable_id, d.name AS deliverable_name,
			ar.employee_id, ep.fullname AS employee_name, u.email AS employee_email,
			ar.requested_by, rq.email AS requester_email, ar.status, ar.created_at`).
		Joins("JOIN employee_profiles ep ON ep.id = ar.employee_id").
		Joins("JOIN users u ON u.id = ep.user_id").
		Joins("JOIN projects p ON p.id = ar.project_id").
		Joins("JOIN deliverables d ON d.id = ar.deliverable_id").
		Joins("LEFT JOIN users rq ON rq.id = ar.requested_by").
		Scopes(scope.ReportsTo(managerID), scope.Status("ar", StatusPending)).
		Order("ar.created_at ASC").
		Scan(&out).Error
	return out, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]AssignmentRow, error) {
	var out []AssignmentRow
	err := r.db.WithContext(ctx).
		Table("employee_project_assignments a").
		Select(`a.id, a.employee_id, a.project_id, p.name AS project_name, p.status AS project_status,
			a.deliverable_id, d.name AS deliverable_name, a.assigned_at, a.released_at`).
		Joins("JOIN projects p ON p.id = a.project_id").
		Joins("JOIN deliverables d ON d.id = a.deliverable_id").
		Where("a.employee_id = ?", employeeID).
		Order("a.assigned_at DESC").
		Scan(&out).Error
	return out, err
}
