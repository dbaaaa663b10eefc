package deliverable

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	deliverableerrors "go-skillmatrix/internal/deliverable/errors"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=deliverable_service.go -destination=mock/deliverable_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, projectID string, req CreateDeliverableRequest) (DeliverableResponse, error)
	ListByProject(ctx context.Context, projectID string) ([]DeliverableResponse, error)
	GetByID(ctx context.Context, id string) (DeliverableResponse, error)
	Update(ctx context.Context, id string, req UpdateDeliverableRequest) (DeliverableResponse, error)
	Delete(ctx context.Context, id string) error

	AddSkill(ctx context.Context, deliverableID string, req AddSkillRequest) (RequiredSkillResponse, error)
	ListSkills(ctx context.Context, deliverableID string) ([]RequiredSkillResponse, error)
	UpdateSkillWeight(ctx context.Context, deliverableID, skillID string, weight float64) (RequiredSkillResponse, error)
	RemoveSkill(ctx context.Context, deliverableID, skillID string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("deliverable.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("deliverable.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, logger: l}
}

func (s *service) Create(ctx context.Context, projectID string, req CreateDeliverableRequest) (DeliverableResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	name := strings.TrimSpace(req.Name)
	s.logger.Debug("create deliverable requested",
		zap.String("request_id", rid),
		zap.String("project_id", projectID),
		zap.String("name", name),
	)

	pid, err := uuid.Parse(projectID)
	if err != nil {
		return DeliverableResponse{}, deliverableerrors.ErrProjectNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create deliverable begin tx failed", zap.Error(err))
		return DeliverableResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := qtx.ProjectExists(ctx, projectID)
	if err != nil {
		s.logger.Error("create deliverable check project failed", zap.Error(err))
		return DeliverableResponse{}, err
	}
	if !exists {
		s.logger.Warn("create deliverable project not found", zap.String("project_id", projectID))
		return DeliverableResponse{}, deliverableerrors.ErrProjectNotFound
	}

	taken, err := qtx.ExistsByName(ctx, pid, name)
	if err != nil {
		s.logger.Error("create deliverable check name failed", zap.Error(err))
		return DeliverableResponse{}, err
	}
	if taken {
		s.logger.Warn("create deliverable duplicate name",
			zap.String("project_id", projectID),
			zap.String("name", name),
		)
		return DeliverableResponse{}, deliverableerrors.ErrDuplicateName
	}

	d := &Deliverable{ID: uuid.New(), ProjectID: pid, Name: name, Description: optionalText(req.Description)}
	if err := qtx.Create(ctx, d); err != nil {
		s.logger.Error("create deliverable persist failed", zap.Error(err))
		return DeliverableResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create deliverable commit failed", zap.Error(err))
		return DeliverableResponse{}, err
	}

	s.logger.Info("create deliverable success",
		zap.String("request_id", rid),
		zap.String("deliverable_id", d.ID.String()),
	)
	return mapToResponse(*d), nil
}

func (s *service) ListByProject(ctx context.Context, projectID string) ([]DeliverableResponse, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, deliverableerrors.ErrProjectNotFound
	}

	exists, err := s.repo.ProjectExists(ctx, projectID)
	if err != nil {
		s.logger.Error("list deliverables check project failed", zap.Error(err))
		return nil, err
	}
	if !exists {
		return nil, deliverableerrors.ErrProjectNotFound
	}

	rows, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("list deliverables failed", zap.Error(err))
		return nil, err
	}

	out := make([]DeliverableResponse, len(rows))
	for i, row := range rows {
		out[i] = DeliverableResponse{
			ID:                  row.ID.String(),
			ProjectID:           row.ProjectID.String(),
			Name:                row.Name,
			Description:         row.Description,
			RequiredSkillsCount: row.RequiredSkills,
			ActiveAssignments:   row.ActiveAssignments,
			PendingRequests:     row.PendingRequests,
			CreatedAt:           formatTime(row.CreatedAt),
		}
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id string) (DeliverableResponse, error) {
	d, err := s.load(ctx, s.repo, id)
	if err != nil {
		return DeliverableResponse{}, err
	}

	skills, err := s.repo.ListSkills(ctx, id)
	if err != nil {
		s.logger.Error("get deliverable list skills failed", zap.Error(err))
		return DeliverableResponse{}, err
	}

	resp := mapToResponse(*d)
	resp.RequiredSkills = mapSkills(skills)
	resp.RequiredSkillsCount = int64(len(skills))
	return resp, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateDeliverableRequest) (DeliverableResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update deliverable requested", zap.String("request_id", rid), zap.String("deliverable_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update deliverable begin tx failed", zap.Error(err))
		return DeliverableResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d, err := s.load(ctx, qtx, id)
	if err != nil {
		return DeliverableResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" && name != d.Name {
			taken, err := qtx.ExistsByName(ctx, d.ProjectID, name)
			if err != nil {
				s.logger.Error("update deliverable check name failed", zap.Error(err))
				return DeliverableResponse{}, err
			}
			if taken {
				s.logger.Warn("update deliverable duplicate name", zap.String("name", name))
				return DeliverableResponse{}, deliverableerrors.ErrDuplicateName
			}
			d.Name = name
		}
	}
	if req.Description != nil {
		d.Description = optionalText(*req.Description)
	}

	if err := qtx.Update(ctx, d); err != nil {
		s.logger.Error("update deliverable persist failed", zap.Error(err))
		return DeliverableResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update deliverable commit failed", zap.Error(err))
		return DeliverableResponse{}, err
	}

	s.logger.Info("update deliverable success", zap.String("request_id", rid), zap.String("deliverable_id", id))
	return mapToResponse(*d), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete deliverable requested", zap.String("request_id", rid), zap.String("deliverable_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete deliverable begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d, err := s.load(ctx, qtx, id)
	if err != nil {
		return err
	}

	active, err := qtx.CountActiveAssignments(ctx, d.ID)
	if err != nil {
		s.logger.Error("delete deliverable count assignments failed", zap.Error(err))
		return err
	}
	if active > 0 {
		s.logger.Warn("delete deliverable has active assignments",
			zap.String("deliverable_id", id),
			zap.Int64("active", active),
		)
		return deliverableerrors.ErrHasActiveAssignments
	}

	if err := qtx.Delete(ctx, d.ID); err != nil {
		s.logger.Error("delete deliverable persist failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := s.publishSkillsChanged(ctx, tx, d.ID, uuid.Nil, "deliverable_removed"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete deliverable commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("delete deliverable success", zap.String("request_id", rid), zap.String("deliverable_id", id))
	return nil
}

func (s *service) AddSkill(ctx context.Context, deliverableID string, req AddSkillRequest) (RequiredSkillResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("add deliverable skill requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("skill_id", req.SkillID),
	)

	if req.Weight == nil || !ValidWeight(*req.Weight) {
		s.logger.Warn("add deliverable skill invalid weight", zap.Float64p("weight", req.Weight))
		return RequiredSkillResponse{}, deliverableerrors.ErrInvalidWeight
	}
	skillID, err := uuid.Parse(req.SkillID)
	if err != nil {
		return RequiredSkillResponse{}, deliverableerrors.ErrSkillNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("add deliverable skill begin tx failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d, err := s.load(ctx, qtx, deliverableID)
	if err != nil {
		return RequiredSkillResponse{}, err
	}

	exists, err := qtx.SkillExists(ctx, req.SkillID)
	if err != nil {
		s.logger.Error("add deliverable skill check skill failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}
	if !exists {
		s.logger.Warn("add deliverable skill unknown skill", zap.String("skill_id", req.SkillID))
		return RequiredSkillResponse{}, deliverableerrors.ErrSkillNotFound
	}

	if _, err := qtx.FindSkill(ctx, deliverableID, req.SkillID); err == nil {
		s.logger.Warn("add deliverable skill duplicate", zap.String("skill_id", req.SkillID))
		return RequiredSkillResponse{}, deliverableerrors.ErrSkillAlreadyAdded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("add deliverable skill check pair failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}

	ds := &DeliverableSkill{ID: uuid.New(), DeliverableID: d.ID, SkillID: skillID, Weight: *req.Weight}
	if err := qtx.AddSkill(ctx, ds); err != nil {
		s.logger.Error("add deliverable skill persist failed", zap.Error(err))
		return RequiredSkillResponse{}, mapRepositoryError(err)
	}

	if err := s.publishSkillsChanged(ctx, tx, d.ID, skillID, "added"); err != nil {
		return RequiredSkillResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("add deliverable skill commit failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}

	s.logger.Info("add deliverable skill success",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("skill_id", req.SkillID),
	)
	return s.requiredSkill(ctx, deliverableID, req.SkillID, *ds)
}

func (s *service) ListSkills(ctx context.Context, deliverableID string) ([]RequiredSkillResponse, error) {
	if _, err := s.load(ctx, s.repo, deliverableID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListSkills(ctx, deliverableID)
	if err != nil {
		s.logger.Error("list deliverable skills failed", zap.Error(err))
		return nil, err
	}
	return mapSkills(rows), nil
}

func (s *service) UpdateSkillWeight(ctx context.Context, deliverableID, skillID string, weight float64) (RequiredSkillResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update skill weight requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("skill_id", skillID),
		zap.Float64("weight", weight),
	)

	if !ValidWeight(weight) {
		s.logger.Warn("update skill weight invalid", zap.Float64("weight", weight))
		return RequiredSkillResponse{}, deliverableerrors.ErrInvalidWeight
	}
	did, sid, err := parsePair(deliverableID, skillID)
	if err != nil {
		return RequiredSkillResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update skill weight begin tx failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.UpdateSkillWeight(ctx, did, sid, weight); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("update skill weight pair not found",
				zap.String("deliverable_id", deliverableID),
				zap.String("skill_id", skillID),
			)
			return RequiredSkillResponse{}, deliverableerrors.ErrRequiredSkillNotFound
		}
		s.logger.Error("update skill weight persist failed", zap.Error(err))
		return RequiredSkillResponse{}, mapRepositoryError(err)
	}

	if err := s.publishSkillsChanged(ctx, tx, did, sid, "updated"); err != nil {
		return RequiredSkillResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update skill weight commit failed", zap.Error(err))
		return RequiredSkillResponse{}, err
	}

	s.logger.Info("update skill weight success", zap.String("request_id", rid))
	return s.requiredSkill(ctx, deliverableID, skillID, DeliverableSkill{DeliverableID: did, SkillID: sid, Weight: weight})
}

func (s *service) RemoveSkill(ctx context.Context, deliverableID, skillID string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("remove deliverable skill requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("skill_id", skillID),
	)

	did, sid, err := parsePair(deliverableID, skillID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("remove deliverable skill begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.RemoveSkill(ctx, did, sid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deliverableerrors.ErrRequiredSkillNotFound
		}
		s.logger.Error("remove deliverable skill persist failed", zap.Error(err))
		return err
	}

	if err := s.publishSkillsChanged(ctx, tx, did, sid, "removed"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("remove deliverable skill commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("remove deliverable skill success", zap.String("request_id", rid))
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id string) (*Deliverable, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, deliverableerrors.ErrDeliverableNotFound
	}
	d, err := repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("load deliverable failed", zap.String("deliverable_id", id), zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	return d, nil
}

// requiredSkill reads the joined row back after a write; if that read
// fails the bare requirement is still returned.
func (s *service) requiredSkill(ctx context.Context, deliverableID, skillID string, fallback DeliverableSkill) (RequiredSkillResponse, error) {
	resp := RequiredSkillResponse{
		DeliverableID: fallback.DeliverableID.String(),
		SkillID:       fallback.SkillID.String(),
		Weight:        fallback.Weight,
	}

	rows, err := s.repo.ListSkills(ctx, deliverableID)
	if err != nil {
		s.logger.Warn("reload deliverable skills failed", zap.Error(err))
		return resp, nil
	}
	for _, row := range rows {
		if row.SkillID.String() == skillID {
			return mapSkills([]RequiredSkillRow{row})[0], nil
		}
	}
	return resp, nil
}

func (s *service) publishSkillsChanged(ctx context.Context, tx *sql.Tx, deliverableID, skillID uuid.UUID, change string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event := events.DeliverableSkillsChangedEvent{
		EventType:     events.EventDeliverableSkillsChanged,
		RequestID:     rid,
		DeliverableID: deliverableID.String(),
		Change:        change,
		OccurredAt:    time.Now().UTC(),
	}
	if skillID != uuid.Nil {
		event.SkillID = skillID.String()
	}

	msg, err := kafka.NewOutboxEvent(rid, "deliverable", deliverableID.String(), events.ProjectTopic, event.EventType, event)
	if err != nil {
		s.logger.Error("deliverable marshal event failed", zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, msg); err != nil {
		s.logger.Error("deliverable outbox persist failed",
			zap.String("deliverable_id", deliverableID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parsePair(deliverableID, skillID string) (uuid.UUID, uuid.UUID, error) {
	did, err := uuid.Parse(deliverableID)
	if err != nil {
		return uuid.Nil, uuid.Nil, deliverableerrors.ErrRequiredSkillNotFound
	}
	sid, err := uuid.Parse(skillID)
	if err != nil {
		return uuid.Nil, uuid.Nil, deliverableerrors.ErrRequiredSkillNotFound
	}
	return did, sid, nil
}

func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func mapToResponse(d Deliverable) DeliverableResponse {
	return DeliverableResponse{
		ID:          d.ID.String(),
		ProjectID:   d.ProjectID.String(),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   formatTime(d.CreatedAt),
	}
}

func mapSkills(rows []RequiredSkillRow) []RequiredSkillResponse {
	out := make([]RequiredSkillResponse, len(rows))
	for i, row := range rows {
		out[i] = RequiredSkillResponse{
			DeliverableID:    row.DeliverableID.String(),
			SkillID:          row.SkillID.String(),
			SkillName:        row.SkillName,
			SkillDescription: row.SkillDescription,
			Weight:           row.Weight,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
