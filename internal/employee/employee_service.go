package employee

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	employeeerrors "go-skillmatrix/internal/employee/errors"
	"go-skillmatrix/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	CreateProfile(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	AssignManager(ctx context.Context, employeeID string, req AssignManagerRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	GetByUserID(ctx context.Context, userID string) (EmployeeResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) CreateProfile(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee profile requested",
		zap.String("request_id", rid),
		zap.String("user_id", req.UserID),
		zap.String("department_id", req.DepartmentID),
	)

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrUserNotFound
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee profile begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	userExists, err := qtx.UserExists(ctx, req.UserID)
	if err != nil {
		s.logger.Error("create employee profile check user failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	if !userExists {
		s.logger.Warn("create employee profile user not found", zap.String("user_id", req.UserID))
		return EmployeeResponse{}, employeeerrors.ErrUserNotFound
	}

	existing, err := qtx.FindByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("create employee profile check existing failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	if existing != nil {
		s.logger.Warn("create employee profile already exists", zap.String("user_id", req.UserID))
		return EmployeeResponse{}, employeeerrors.ErrProfileAlreadyExists
	}

	deptExists, err := qtx.DepartmentExists(ctx, req.DepartmentID)
	if err != nil {
		s.logger.Error("create employee profile check department failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	if !deptExists {
		s.logger.Warn("create employee profile department not found", zap.String("department_id", req.DepartmentID))
		return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
	}

	profile := &EmployeeProfile{
		ID:           uuid.New(),
		UserID:       userID,
		Fullname:     strings.TrimSpace(req.Fullname),
		DepartmentID: departmentID,
	}
	if err := qtx.Create(ctx, profile); err != nil {
		s.logger.Error("create employee profile persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee profile commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.logger.Info("create employee profile success",
		zap.String("request_id", rid),
		zap.String("employee_id", profile.ID.String()),
	)
	return mapProfileToResponse(*profile), nil
}

func (s *service) AssignManager(ctx context.Context, employeeID string, req AssignManagerRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("assign manager requested",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.Stringp("manager_id", req.ManagerID),
	)

	if _, err := uuid.Parse(employeeID); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}
	if req.ManagerID != nil && *req.ManagerID == employeeID {
		s.logger.Warn("assign manager self assignment", zap.String("employee_id", employeeID))
		return EmployeeResponse{}, employeeerrors.ErrSelfAssignment
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("assign manager begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	emp, err := qtx.FindByIDForUpdate(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("assign manager load employee failed", zap.Error(err))
		}
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	var managerID *uuid.UUID
	if req.ManagerID != nil {
		mgr, err := qtx.FindByID(ctx, *req.ManagerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warn("assign manager manager not found", zap.String("manager_id", *req.ManagerID))
				return EmployeeResponse{}, employeeerrors.ErrManagerNotFound
			}
			s.logger.Error("assign manager load manager failed", zap.Error(err))
			return EmployeeResponse{}, err
		}

		if mgr.DepartmentID != emp.DepartmentID {
			s.logger.Warn("assign manager department mismatch",
				zap.String("employee_department", emp.DepartmentID.String()),
				zap.String("manager_department", mgr.DepartmentID.String()),
			)
			return EmployeeResponse{}, employeeerrors.ErrDepartmentMismatch
		}

		cycle, err := qtx.ReportsTo(ctx, mgr.ID.String(), emp.ID.String())
		if err != nil {
			s.logger.Error("assign manager chain check failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		if cycle {
			s.logger.Warn("assign manager would create cycle",
				zap.String("employee_id", employeeID),
				zap.String("manager_id", mgr.ID.String()),
			)
			return EmployeeResponse{}, employeeerrors.ErrReportingCycle
		}
		managerID = &mgr.ID
	}

	if err := qtx.UpdateManager(ctx, employeeID, managerID); err != nil {
		s.logger.Error("assign manager persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("assign manager commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	emp.ManagerID = managerID
	s.logger.Info("assign manager success",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
	)
	return mapProfileToResponse(*emp), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	s.logger.Debug("list employees requested")
	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	resp := make([]EmployeeResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapRowToResponse(r)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}
	row, err := s.repo.FindRowByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapRowToResponse(*row), nil
}

func (s *service) GetByUserID(ctx context.Context, userID string) (EmployeeResponse, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return s.GetByID(ctx, profile.ID.String())
}

func mapProfileToResponse(p EmployeeProfile) EmployeeResponse {
	return EmployeeResponse{
		ID:           p.ID.String(),
		UserID:       p.UserID.String(),
		Fullname:     p.Fullname,
		DepartmentID: p.DepartmentID.String(),
		ManagerID:    uuidToString(p.ManagerID),
	}
}

func mapRowToResponse(r EmployeeRow) EmployeeResponse {
	resp := EmployeeResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Fullname:     r.Fullname,
		Email:        r.Email,
		Role:         r.Role,
		DepartmentID: r.DepartmentID.String(),
		Department:   r.DepartmentName,
		ManagerID:    uuidToString(r.ManagerID),
	}
	if r.ManagerID != nil && r.ManagerFullname != nil {
		resp.Manager = &ManagerResponse{ID: r.ManagerID.String(), Fullname: *r.ManagerFullname}
	}
	return resp
}

func uuidToString(v *uuid.UUID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
