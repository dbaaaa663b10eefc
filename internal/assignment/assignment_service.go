package assignment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	assignmenterrors "go-skillmatrix/internal/assignment/errors"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/shared/contextutil"
	"go-skillmatrix/internal/shared/lock"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=assignment_service.go -destination=mock/assignment_service_mock.go -package=mock
type Service interface {
	CreateRequest(ctx context.Context, deliverableID, employeeID, requestedByUserID string) (RequestResponse, error)
	ListPendingForManager(ctx context.Context, managerUserID string) ([]PendingRequestResponse, error)
	ReviewRequest(ctx context.Context, requestID, managerUserID, action string) (ReviewResponse, error)
	ListAssignmentsForEmployee(ctx context.Context, employeeID string) ([]AssignmentResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	locker lock.Locker
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, locker lock.Locker, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("assignment.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assignment.service")
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &service{db: db, repo: repo, locker: locker, outbox: outbox, logger: l}
}

func employeeLockKey(employeeID uuid.UUID) string {
	return "assignment:employee:" + employeeID.String()
}

func (s *service) CreateRequest(ctx context.Context, deliverableID, employeeID, requestedByUserID string) (RequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create assignment request requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("employee_id", employeeID),
		zap.String("requested_by", requestedByUserID),
	)

	if _, err := uuid.Parse(deliverableID); err != nil {
		return RequestResponse{}, assignmenterrors.ErrDeliverableNotFound
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return RequestResponse{}, assignmenterrors.ErrEmployeeNotFound
	}
	requester, err := uuid.Parse(requestedByUserID)
	if err != nil {
		return RequestResponse{}, assignmenterrors.ErrEmployeeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create assignment request begin tx failed", zap.Error(err))
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	deliverable, err := qtx.FindDeliverable(ctx, deliverableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("create assignment request deliverable not found", zap.String("deliverable_id", deliverableID))
			return RequestResponse{}, assignmenterrors.ErrDeliverableNotFound
		}
		s.logger.Error("create assignment request load deliverable failed", zap.Error(err))
		return RequestResponse{}, err
	}

	if deliverable.ProjectStatus != projectStatusActive {
		s.logger.Warn("create assignment request project not active",
			zap.String("project_id", deliverable.ProjectID.String()),
			zap.String("status", deliverable.ProjectStatus),
		)
		return RequestResponse{}, assignmenterrors.ErrProjectNotActive
	}

	employee, err := qtx.FindProfileByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("create assignment request employee not found", zap.String("employee_id", employeeID))
			return RequestResponse{}, assignmenterrors.ErrEmployeeNotFound
		}
		s.logger.Error("create assignment request load employee failed", zap.Error(err))
		return RequestResponse{}, err
	}

	active, err := qtx.HasActiveAssignment(ctx, employee.ID)
	if err != nil {
		s.logger.Error("create assignment request check assignment failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if active {
		s.logger.Warn("create assignment request employee already assigned", zap.String("employee_id", employeeID))
		return RequestResponse{}, assignmenterrors.ErrAlreadyAssigned
	}

	pending, err := qtx.HasPendingRequest(ctx, employee.ID, deliverable.ID)
	if err != nil {
		s.logger.Error("create assignment request check pending failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if pending {
		s.logger.Warn("create assignment request duplicate pending",
			zap.String("employee_id", employeeID),
			zap.String("deliverable_id", deliverableID),
		)
		return RequestResponse{}, assignmenterrors.ErrPendingExists
	}

	req := &AssignmentRequest{
		ID:            uuid.New(),
		ProjectID:     deliverable.ProjectID,
		DeliverableID: deliverable.ID,
		EmployeeID:    employee.ID,
		RequestedBy:   requester,
		Status:        StatusPending,
	}
	if err := qtx.CreateRequest(ctx, req); err != nil {
		s.logger.Error("create assignment request persist failed", zap.Error(err))
		return RequestResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create assignment request commit failed", zap.Error(err))
		return RequestResponse{}, err
	}

	s.logger.Info("create assignment request success",
		zap.String("request_id", rid),
		zap.String("assignment_request_id", req.ID.String()),
	)
	return mapRequestToResponse(*req), nil
}

func (s *service) ListPendingForManager(ctx context.Context, managerUserID string) ([]PendingRequestResponse, error) {
	if _, err := uuid.Parse(managerUserID); err != nil {
		return nil, assignmenterrors.ErrManagerNotFound
	}

	manager, err := s.repo.FindProfileByUserID(ctx, managerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assignmenterrors.ErrManagerNotFound
		}
		s.logger.Error("list pending assignment requests load manager failed", zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.ListPendingByManager(ctx, manager.ID)
	if err != nil {
		s.logger.Error("list pending assignment requests failed", zap.Error(err))
		return nil, err
	}

	out := make([]PendingRequestResponse, len(rows))
	for i, row := range rows {
		out[i] = PendingRequestResponse{
			ID:              row.ID.String(),
			ProjectID:       row.ProjectID.String(),
			ProjectName:     row.ProjectName,
			DeliverableID:   row.DeliverableID.String(),
			DeliverableName: row.DeliverableName,
			EmployeeID:      row.EmployeeID.String(),
			EmployeeName:    row.EmployeeName,
			EmployeeEmail:   row.EmployeeEmail,
			RequestedBy:     row.RequestedBy.String(),
			RequesterEmail:  row.RequesterEmail,
			Status:          row.Status,
			CreatedAt:       formatTime(row.CreatedAt),
		}
	}
	return out, nil
}

// ReviewRequest resolves a pending request. Approval runs under a
// per-employee lock and re-reads the request and the employee row FOR
// UPDATE, so concurrent approvals for one employee see each other's writes.
func (s *service) ReviewRequest(ctx context.Context, requestID, managerUserID, action string) (ReviewResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("review assignment request requested",
		zap.String("request_id", rid),
		zap.String("assignment_request_id", requestID),
		zap.String("manager_user_id", managerUserID),
		zap.String("action", action),
	)

	if action != ActionApprove && action != ActionReject {
		s.logger.Warn("review assignment request invalid action", zap.String("action", action))
		return ReviewResponse{}, assignmenterrors.ErrInvalidAction
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return ReviewResponse{}, assignmenterrors.ErrRequestNotFound
	}
	reviewer, err := uuid.Parse(managerUserID)
	if err != nil {
		return ReviewResponse{}, assignmenterrors.ErrManagerNotFound
	}

	current, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("review assignment request not found", zap.String("assignment_request_id", requestID))
		} else {
			s.logger.Error("review assignment request load failed", zap.Error(err))
		}
		return ReviewResponse{}, mapRepositoryError(err)
	}

	release, err := s.locker.Acquire(ctx, employeeLockKey(current.EmployeeID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Warn("review assignment request lock busy", zap.String("employee_id", current.EmployeeID.String()))
			return ReviewResponse{}, assignmenterrors.ErrReviewInProgress
		}
		s.logger.Error("review assignment request acquire lock failed", zap.Error(err))
		return ReviewResponse{}, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("review assignment request begin tx failed", zap.Error(err))
		return ReviewResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	manager, err := qtx.FindProfileByUserID(ctx, managerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("review assignment request manager not found", zap.String("manager_user_id", managerUserID))
			return ReviewResponse{}, assignmenterrors.ErrManagerNotFound
		}
		s.logger.Error("review assignment request load manager failed", zap.Error(err))
		return ReviewResponse{}, err
	}

	employee, err := qtx.LockProfile(ctx, current.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReviewResponse{}, assignmenterrors.ErrEmployeeNotFound
		}
		s.logger.Error("review assignment request lock employee failed", zap.Error(err))
		return ReviewResponse{}, err
	}

	req, err := qtx.FindRequestForUpdate(ctx, requestID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("review assignment request reload failed", zap.Error(err))
		}
		return ReviewResponse{}, mapRepositoryError(err)
	}

	if req.Status != StatusPending {
		s.logger.Warn("review assignment request not pending",
			zap.String("assignment_request_id", requestID),
			zap.String("status", req.Status),
		)
		return ReviewResponse{}, assignmenterrors.ErrRequestNotPending
	}

	if employee.ManagerID == nil || *employee.ManagerID != manager.ID {
		s.logger.Warn("review assignment request manager mismatch",
			zap.String("assignment_request_id", requestID),
			zap.String("manager_id", manager.ID.String()),
		)
		return ReviewResponse{}, assignmenterrors.ErrManagerMismatch
	}

	now := time.Now().UTC()
	var created *EmployeeProjectAssignment

	if action == ActionApprove {
		status, err := qtx.LockProjectStatus(ctx, req.ProjectID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("review assignment request load project failed", zap.Error(err))
			return ReviewResponse{}, err
		}
		if status != projectStatusActive {
			s.logger.Warn("review assignment request project not active",
				zap.String("project_id", req.ProjectID.String()),
				zap.String("status", status),
			)
			return ReviewResponse{}, assignmenterrors.ErrProjectNotActive
		}

		active, err := qtx.HasActiveAssignment(ctx, req.EmployeeID)
		if err != nil {
			s.logger.Error("review assignment request check assignment failed", zap.Error(err))
			return ReviewResponse{}, err
		}
		if active {
			s.logger.Warn("review assignment request employee already assigned",
				zap.String("employee_id", req.EmployeeID.String()),
			)
			return ReviewResponse{}, assignmenterrors.ErrAlreadyAssigned
		}

		created = &EmployeeProjectAssignment{
			ID:            uuid.New(),
			EmployeeID:    req.EmployeeID,
			ProjectID:     req.ProjectID,
			DeliverableID: req.DeliverableID,
			AssignedAt:    now,
		}
		if err := qtx.CreateAssignment(ctx, created); err != nil {
			s.logger.Error("review assignment request create assignment failed", zap.Error(err))
			return ReviewResponse{}, mapRepositoryError(err)
		}
		req.Status = StatusApproved
	} else {
		req.Status = StatusRejected
	}

	req.ReviewedBy = &reviewer
	req.ReviewedAt = &now
	if err := qtx.SaveRequest(ctx, req); err != nil {
		s.logger.Error("review assignment request persist failed", zap.Error(err))
		return ReviewResponse{}, mapRepositoryError(err)
	}

	if created != nil {
		if err := s.publishApproved(ctx, tx, created, reviewer); err != nil {
			return ReviewResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("review assignment request commit failed", zap.Error(err))
		return ReviewResponse{}, err
	}

	s.logger.Info("review assignment request success",
		zap.String("request_id", rid),
		zap.String("assignment_request_id", requestID),
		zap.String("status", req.Status),
	)

	resp := ReviewResponse{Request: mapRequestToResponse(*req)}
	if created != nil {
		a := mapAssignmentToResponse(*created)
		resp.Assignment = &a
	}
	return resp, nil
}

func (s *service) ListAssignmentsForEmployee(ctx context.Context, employeeID string) ([]AssignmentResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, assignmenterrors.ErrEmployeeNotFound
	}

	employee, err := s.repo.FindProfileByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assignmenterrors.ErrEmployeeNotFound
		}
		s.logger.Error("list assignments load employee failed", zap.Error(err))
		return nil, err
	}

	rows, err := s.repo.ListByEmployee(ctx, employee.ID)
	if err != nil {
		s.logger.Error("list assignments failed", zap.Error(err))
		return nil, err
	}

	out := make([]AssignmentResponse, len(rows))
	for i, row := range rows {
		out[i] = AssignmentResponse{
			ID:              row.ID.String(),
			EmployeeID:      row.EmployeeID.String(),
			ProjectID:       row.ProjectID.String(),
			ProjectName:     row.ProjectName,
			ProjectStatus:   row.ProjectStatus,
			DeliverableID:   row.DeliverableID.String(),
			DeliverableName: row.DeliverableName,
			Active:          row.ReleasedAt == nil,
			AssignedAt:      formatTime(row.AssignedAt),
			ReleasedAt:      formatTimePtr(row.ReleasedAt),
		}
	}
	return out, nil
}

func (s *service) publishApproved(ctx context.Context, tx *sql.Tx, a *EmployeeProjectAssignment, approvedBy uuid.UUID) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.AssignmentApprovedEvent{
		EventType:     events.EventAssignmentApproved,
		RequestID:     rid,
		AssignmentID:  a.ID.String(),
		EmployeeID:    a.EmployeeID.String(),
		ProjectID:     a.ProjectID.String(),
		DeliverableID: a.DeliverableID.String(),
		ApprovedBy:    approvedBy.String(),
		OccurredAt:    a.AssignedAt,
	}

	msg, err := kafka.NewOutboxEvent(rid, "assignment", a.ID.String(), events.StaffingTopic, event.EventType, event)
	if err != nil {
		s.logger.Error("assignment marshal event failed", zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, msg); err != nil {
		s.logger.Error("assignment outbox persist failed",
			zap.String("assignment_id", a.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func mapRequestToResponse(r AssignmentRequest) RequestResponse {
	resp := RequestResponse{
		ID:            r.ID.String(),
		ProjectID:     r.ProjectID.String(),
		DeliverableID: r.DeliverableID.String(),
		EmployeeID:    r.EmployeeID.String(),
		RequestedBy:   r.RequestedBy.String(),
		Status:        r.Status,
		ReviewedAt:    formatTimePtr(r.ReviewedAt),
		CreatedAt:     formatTime(r.CreatedAt),
	}
	if r.ReviewedBy != nil {
		v := r.ReviewedBy.String()
		resp.ReviewedBy = &v
	}
	return resp
}

func mapAssignmentToResponse(a EmployeeProjectAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            a.ID.String(),
		EmployeeID:    a.EmployeeID.String(),
		ProjectID:     a.ProjectID.String(),
		DeliverableID: a.DeliverableID.String(),
		Active:        a.ReleasedAt == nil,
		AssignedAt:    formatTime(a.AssignedAt),
		ReleasedAt:    formatTimePtr(a.ReleasedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}
