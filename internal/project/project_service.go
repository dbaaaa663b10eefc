package project

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-skillmatrix/internal/aiplanner"
	"go-skillmatrix/internal/assignment"
	"go-skillmatrix/internal/deliverable"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	projecterrors "go-skillmatrix/internal/project/errors"
	"go-skillmatrix/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=project_service.go -destination=mock/project_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (ProjectResponse, error)
	List(ctx context.Context) ([]ProjectResponse, error)
	GetByID(ctx context.Context, id string) (ProjectResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (StatusResponse, error)
	Delete(ctx context.Context, id string) error
	Analyze(ctx context.Context, id string) (AnalyzeResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	assignments  assignment.Repository
	deliverables deliverable.Service
	planner      aiplanner.Planner
	outbox       kafka.OutboxRepository
	logger       *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	assignments assignment.Repository,
	deliverables deliverable.Service,
	planner aiplanner.Planner,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("project.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("project.service")
	}
	return &service{
		db:           db,
		repo:         repo,
		assignments:  assignments,
		deliverables: deliverables,
		planner:      planner,
		outbox:       outbox,
		logger:       l,
	}
}

func (s *service) Create(ctx context.Context, req CreateProjectRequest) (ProjectResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	name := strings.TrimSpace(req.Name)
	s.logger.Debug("create project requested", zap.String("request_id", rid), zap.String("name", name))

	start, err := parseDate(req.StartDate)
	if err != nil {
		return ProjectResponse{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return ProjectResponse{}, err
	}
	if start != nil && end != nil && end.Before(*start) {
		s.logger.Warn("create project end before start")
		return ProjectResponse{}, projecterrors.ErrInvalidDateRange
	}

	p := &Project{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusPlanned,
		StartDate: start,
		EndDate:   end,
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = &d
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("create project persist failed", zap.Error(err))
		return ProjectResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("create project success", zap.String("request_id", rid), zap.String("project_id", p.ID.String()))
	return mapToResponse(*p, 0), nil
}

func (s *service) List(ctx context.Context) ([]ProjectResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list projects failed", zap.Error(err))
		return nil, err
	}

	out := make([]ProjectResponse, len(rows))
	for i, row := range rows {
		out[i] = mapToResponse(row.Project, row.DeliverablesCount)
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (ProjectResponse, error) {
	p, err := s.load(ctx, s.repo, id)
	if err != nil {
		return ProjectResponse{}, err
	}

	items, err := s.deliverables.ListByProject(ctx, id)
	if err != nil {
		s.logger.Error("get project list deliverables failed", zap.Error(err))
		return ProjectResponse{}, err
	}

	resp := mapToResponse(*p, int64(len(items)))
	resp.Deliverables = items
	return resp, nil
}

// UpdateStatus moves a project one step forward. Entering COMPLETED
// releases every active assignment of the project in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, id, status string) (StatusResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update project status requested",
		zap.String("request_id", rid),
		zap.String("project_id", id),
		zap.String("status", status),
	)

	if _, ok := statusOrder[status]; !ok {
		s.logger.Warn("update project status unknown", zap.String("status", status))
		return StatusResponse{}, projecterrors.ErrInvalidStatus
	}

	if _, err := uuid.Parse(id); err != nil {
		return StatusResponse{}, projecterrors.ErrProjectNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update project status begin tx failed", zap.Error(err))
		return StatusResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	p, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("update project status load failed", zap.Error(err))
		}
		return StatusResponse{}, mapRepositoryError(err)
	}

	if !CanTransition(p.Status, status) {
		s.logger.Warn("update project status invalid transition",
			zap.String("project_id", id),
			zap.String("from", p.Status),
			zap.String("to", status),
		)
		return StatusResponse{}, projecterrors.ErrInvalidTransition
	}

	var released int64
	completing := status == StatusCompleted && p.Status != StatusCompleted

	if p.Status != status {
		if err := qtx.UpdateStatus(ctx, p.ID, status); err != nil {
			s.logger.Error("update project status persist failed", zap.Error(err))
			return StatusResponse{}, mapRepositoryError(err)
		}
		p.Status = status
	}

	if completing {
		released, err = s.assignments.WithTx(tx).ReleaseByProject(ctx, p.ID, time.Now().UTC())
		if err != nil {
			s.logger.Error("update project status release assignments failed", zap.Error(err))
			return StatusResponse{}, err
		}
		if err := s.publishCompleted(ctx, tx, p.ID, released); err != nil {
			return StatusResponse{}, err
		}
	}

	count, err := qtx.CountDeliverables(ctx, p.ID)
	if err != nil {
		s.logger.Error("update project status count deliverables failed", zap.Error(err))
		return StatusResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update project status commit failed", zap.Error(err))
		return StatusResponse{}, err
	}

	s.logger.Info("update project status success",
		zap.String("request_id", rid),
		zap.String("project_id", id),
		zap.String("status", status),
		zap.Int64("released_assignments", released),
	)
	return StatusResponse{ProjectResponse: mapToResponse(*p, count), ReleasedAssignments: released}, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete project requested", zap.String("request_id", rid), zap.String("project_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete project begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	p, err := s.load(ctx, qtx, id)
	if err != nil {
		return err
	}

	active, err := qtx.CountActiveAssignments(ctx, p.ID)
	if err != nil {
		s.logger.Error("delete project count assignments failed", zap.Error(err))
		return err
	}
	if active > 0 {
		s.logger.Warn("delete project has active assignments", zap.String("project_id", id), zap.Int64("active", active))
		return projecterrors.ErrHasActiveAssignments
	}

	if p.Status != StatusPlanned {
		s.logger.Warn("delete project not planned", zap.String("project_id", id), zap.String("status", p.Status))
		return projecterrors.ErrNotPlanned
	}

	if err := qtx.Delete(ctx, p.ID); err != nil {
		s.logger.Error("delete project persist failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := s.publishDeleted(ctx, tx, p.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete project commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("delete project success", zap.String("request_id", rid), zap.String("project_id", id))
	return nil
}

// Analyze asks the planner for deliverables and creates them with their
// skill weights. A proposal that cannot be stored is skipped.
func (s *service) Analyze(ctx context.Context, id string) (AnalyzeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("analyze project requested", zap.String("request_id", rid), zap.String("project_id", id))

	p, err := s.load(ctx, s.repo, id)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	catalog, err := s.repo.SkillCatalog(ctx)
	if err != nil {
		s.logger.Error("analyze project load skills failed", zap.Error(err))
		return AnalyzeResponse{}, err
	}

	brief := aiplanner.Brief{Name: p.Name}
	if p.Description != nil {
		brief.Description = *p.Description
	}

	proposals, err := s.planner.Plan(ctx, brief, catalog)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	resp := AnalyzeResponse{ProjectID: id, Deliverables: []AnalyzedDeliverable{}}
	for _, proposal := range proposals {
		created, err := s.deliverables.Create(ctx, id, deliverable.CreateDeliverableRequest{
			Name:        proposal.Name,
			Description: proposal.Description,
		})
		if err != nil {
			s.logger.Warn("analyze project skipped deliverable", zap.String("name", proposal.Name), zap.Error(err))
			continue
		}

		item := AnalyzedDeliverable{DeliverableResponse: created, AssignedSkills: []deliverable.RequiredSkillResponse{}}
		for _, skill := range proposal.Skills {
			weight := skill.Weight
			added, err := s.deliverables.AddSkill(ctx, created.ID, deliverable.AddSkillRequest{
				SkillID: skill.SkillID.String(),
				Weight:  &weight,
			})
			if err != nil {
				s.logger.Warn("analyze project skipped skill",
					zap.String("deliverable", proposal.Name),
					zap.String("skill", skill.SkillName),
					zap.Error(err),
				)
				continue
			}
			item.AssignedSkills = append(item.AssignedSkills, added)
		}
		resp.Deliverables = append(resp.Deliverables, item)
	}
	resp.DeliverablesCreated = len(resp.Deliverables)

	s.logger.Info("analyze project success",
		zap.String("request_id", rid),
		zap.String("project_id", id),
		zap.Int("deliverables_created", resp.DeliverablesCreated),
	)
	return resp, nil
}

func (s *service) load(ctx context.Context, repo Repository, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, projecterrors.ErrProjectNotFound
	}
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("load project failed", zap.String("project_id", id), zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	return p, nil
}

func (s *service) publishCompleted(ctx context.Context, tx *sql.Tx, projectID uuid.UUID, released int64) error {
	return s.publish(ctx, tx, projectID, events.ProjectCompletedEvent{
		EventType:           events.EventProjectCompleted,
		RequestID:           contextutil.GetRequestID(ctx),
		ProjectID:           projectID.String(),
		ReleasedAssignments: released,
		OccurredAt:          time.Now().UTC(),
	}, events.EventProjectCompleted)
}

func (s *service) publishDeleted(ctx context.Context, tx *sql.Tx, projectID uuid.UUID) error {
	return s.publish(ctx, tx, projectID, events.ProjectDeletedEvent{
		EventType:  events.EventProjectDeleted,
		RequestID:  contextutil.GetRequestID(ctx),
		ProjectID:  projectID.String(),
		OccurredAt: time.Now().UTC(),
	}, events.EventProjectDeleted)
}

// publish writes a project lifecycle event to the outbox inside tx.
func (s *service) publish(ctx context.Context, tx *sql.Tx, projectID uuid.UUID, event any, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	msg, err := kafka.NewOutboxEvent(contextutil.GetRequestID(ctx), "project", projectID.String(), events.ProjectTopic, eventType, event)
	if err != nil {
		s.logger.Error("project marshal event failed", zap.String("event_type", eventType), zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, msg); err != nil {
		s.logger.Error("project outbox persist failed",
			zap.String("project_id", projectID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseDate(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*v)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, projecterrors.ErrInvalidDate
		}
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &t, nil
}

func mapToResponse(p Project, deliverables int64) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		Status:            p.Status,
		StartDate:         formatDate(p.StartDate),
		EndDate:           formatDate(p.EndDate),
		DeliverablesCount: deliverables,
		CreatedAt:         formatTime(p.CreatedAt),
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
