package skillrating

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/shared/contextutil"
	skillratingerrors "go-skillmatrix/internal/skillrating/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=skillrating_service.go -destination=mock/skillrating_service_mock.go -package=mock
type Service interface {
	SubmitSelfRating(ctx context.Context, userID string, req SubmitRatingRequest) (RatingResponse, error)
	UpdateSelfRating(ctx context.Context, ratingID, userID string, newRating int) (RatingResponse, error)
	ResubmitRating(ctx context.Context, ratingID, userID string, newRating int) (RatingResponse, error)
	ReviewRating(ctx context.Context, ratingID, managerUserID string, req ReviewRatingRequest) (RatingResponse, error)
	ListMyRatings(ctx context.Context, userID string) ([]RatingDetailResponse, error)
	ListPendingForManager(ctx context.Context, managerUserID string) ([]RatingDetailResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("skillrating.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("skillrating.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, logger: l}
}

func (s *service) SubmitSelfRating(ctx context.Context, userID string, req SubmitRatingRequest) (RatingResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit self rating requested",
		zap.String("request_id", rid),
		zap.String("user_id", userID),
		zap.String("skill_id", req.SkillID),
		zap.Int("rating", req.SelfRating),
	)

	if !ValidRating(req.SelfRating) {
		s.logger.Warn("submit self rating out of range", zap.Int("rating", req.SelfRating))
		return RatingResponse{}, skillratingerrors.ErrInvalidRating
	}
	actor, err := uuid.Parse(userID)
	if err != nil {
		return RatingResponse{}, skillratingerrors.ErrProfileNotFound
	}
	skillID, err := uuid.Parse(req.SkillID)
	if err != nil {
		return RatingResponse{}, skillratingerrors.ErrSkillNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit self rating begin tx failed", zap.Error(err))
		return RatingResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	profile, err := s.loadProfile(ctx, qtx, userID, skillratingerrors.ErrProfileNotFound)
	if err != nil {
		return RatingResponse{}, err
	}

	exists, err := qtx.SkillExists(ctx, req.SkillID)
	if err != nil {
		s.logger.Error("submit self rating check skill failed", zap.Error(err))
		return RatingResponse{}, err
	}
	if !exists {
		s.logger.Warn("submit self rating skill not found", zap.String("skill_id", req.SkillID))
		return RatingResponse{}, skillratingerrors.ErrSkillNotFound
	}

	rated, err := qtx.ExistsForPair(ctx, profile.ID, req.SkillID)
	if err != nil {
		s.logger.Error("submit self rating check pair failed", zap.Error(err))
		return RatingResponse{}, err
	}
	if rated {
		s.logger.Warn("submit self rating duplicate",
			zap.String("employee_id", profile.ID.String()),
			zap.String("skill_id", req.SkillID),
		)
		return RatingResponse{}, skillratingerrors.ErrAlreadyRated
	}

	rating := &EmployeeSkill{
		ID:         uuid.New(),
		EmployeeID: profile.ID,
		SkillID:    skillID,
		SelfRating: req.SelfRating,
		Status:     StatusPending,
	}
	if err := qtx.Create(ctx, rating); err != nil {
		s.logger.Error("submit self rating persist failed", zap.Error(err))
		return RatingResponse{}, mapRepositoryError(err)
	}

	if err := s.appendLog(ctx, qtx, rating, nil, req.SelfRating, ChangeInitialRating, &actor, nil); err != nil {
		return RatingResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit self rating commit failed", zap.Error(err))
		return RatingResponse{}, err
	}

	s.logger.Info("submit self rating success",
		zap.String("request_id", rid),
		zap.String("rating_id", rating.ID.String()),
	)
	return mapToResponse(*rating), nil
}

func (s *service) UpdateSelfRating(ctx context.Context, ratingID, userID string, newRating int) (RatingResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update self rating requested",
		zap.String("request_id", rid),
		zap.String("rating_id", ratingID),
		zap.Int("rating", newRating),
	)

	if !ValidRating(newRating) {
		s.logger.Warn("update self rating out of range", zap.Int("rating", newRating))
		return RatingResponse{}, skillratingerrors.ErrInvalidRating
	}

	return s.changeSelfRating(ctx, ratingID, userID, newRating, StatusPending, skillratingerrors.ErrAlreadyReviewed)
}

// ResubmitRating moves a REJECTED rating back to PENDING with a new self
// rating. Review fields are cleared; history keeps the rejection.
func (s *service) ResubmitRating(ctx context.Context, ratingID, userID string, newRating int) (RatingResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("resubmit rating requested",
		zap.String("request_id", rid),
		zap.String("rating_id", ratingID),
		zap.Int("rating", newRating),
	)

	if !ValidRating(newRating) {
		s.logger.Warn("resubmit rating out of range", zap.Int("rating", newRating))
		return RatingResponse{}, skillratingerrors.ErrInvalidRating
	}

	return s.changeSelfRating(ctx, ratingID, userID, newRating, StatusRejected, skillratingerrors.ErrNotRejected)
}

// changeSelfRating is the owner-side edit shared by update and resubmit;
// the rating must currently be in fromStatus.
func (s *service) changeSelfRating(
	ctx context.Context,
	ratingID, userID string,
	newRating int,
	fromStatus string,
	wrongState error,
) (RatingResponse, error) {
	actor, err := uuid.Parse(userID)
	if err != nil {
		return RatingResponse{}, skillratingerrors.ErrProfileNotFound
	}
	if _, err := uuid.Parse(ratingID); err != nil {
		return RatingResponse{}, skillratingerrors.ErrRatingNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("change self rating begin tx failed", zap.Error(err))
		return RatingResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	profile, err := s.loadProfile(ctx, qtx, userID, skillratingerrors.ErrProfileNotFound)
	if err != nil {
		return RatingResponse{}, err
	}

	rating, err := s.loadRatingForUpdate(ctx, qtx, ratingID)
	if err != nil {
		return RatingResponse{}, err
	}

	if rating.EmployeeID != profile.ID {
		s.logger.Warn("change self rating not owner",
			zap.String("rating_id", ratingID),
			zap.String("employee_id", profile.ID.String()),
		)
		return RatingResponse{}, skillratingerrors.ErrNotOwner
	}
	if rating.Status != fromStatus {
		s.logger.Warn("change self rating wrong state",
			zap.String("rating_id", ratingID),
			zap.String("status", rating.Status),
		)
		return RatingResponse{}, wrongState
	}

	previous := rating.SelfRating
	rating.SelfRating = newRating
	if fromStatus == StatusRejected {
		rating.Status = StatusPending
		rating.ApprovedRating = nil
		rating.ReviewedBy = nil
		rating.ReviewedAt = nil
		rating.ReviewComment = nil
	}

	if err := qtx.Save(ctx, rating); err != nil {
		s.logger.Error("change self rating persist failed", zap.Error(err))
		return RatingResponse{}, mapRepositoryError(err)
	}

	if err := s.appendLog(ctx, qtx, rating, &previous, newRating, ChangeSelfUpdated, &actor, nil); err != nil {
		return RatingResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("change self rating commit failed", zap.Error(err))
		return RatingResponse{}, err
	}

	s.logger.Info("change self rating success",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("rating_id", ratingID),
		zap.String("status", rating.Status),
	)
	return mapToResponse(*rating), nil
}

func (s *service) ReviewRating(ctx context.Context, ratingID, managerUserID string, req ReviewRatingRequest) (RatingResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("review rating requested",
		zap.String("request_id", rid),
		zap.String("rating_id", ratingID),
		zap.String("manager_user_id", managerUserID),
		zap.String("action", req.Action),
	)

	switch req.Action {
	case ActionApprove, ActionEdit, ActionReject:
	default:
		return RatingResponse{}, skillratingerrors.ErrInvalidAction
	}
	reviewer, err := uuid.Parse(managerUserID)
	if err != nil {
		return RatingResponse{}, skillratingerrors.ErrManagerNotFound
	}
	if _, err := uuid.Parse(ratingID); err != nil {
		return RatingResponse{}, skillratingerrors.ErrRatingNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("review rating begin tx failed", zap.Error(err))
		return RatingResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	rating, err := s.loadRatingForUpdate(ctx, qtx, ratingID)
	if err != nil {
		return RatingResponse{}, err
	}
	if rating.Status != StatusPending {
		s.logger.Warn("review rating not pending",
			zap.String("rating_id", ratingID),
			zap.String("status", rating.Status),
		)
		return RatingResponse{}, skillratingerrors.ErrNotPending
	}

	manager, err := s.loadProfile(ctx, qtx, managerUserID, skillratingerrors.ErrManagerNotFound)
	if err != nil {
		return RatingResponse{}, err
	}

	employee, err := qtx.FindProfileByID(ctx, rating.EmployeeID)
	if err != nil {
		s.logger.Error("review rating load employee failed", zap.Error(err))
		return RatingResponse{}, err
	}
	if employee.ManagerID == nil || *employee.ManagerID != manager.ID {
		s.logger.Warn("review rating manager mismatch",
			zap.String("rating_id", ratingID),
			zap.String("manager_id", manager.ID.String()),
		)
		return RatingResponse{}, skillratingerrors.ErrManagerMismatch
	}

	self := rating.SelfRating
	var (
		changeType string
		logged     int
	)
	switch req.Action {
	case ActionApprove:
		rating.Status = StatusApproved
		rating.ApprovedRating = &self
		changeType, logged = ChangeManagerApproved, self
	case ActionEdit:
		if req.ApprovedRating == nil || !ValidRating(*req.ApprovedRating) {
			s.logger.Warn("review rating invalid edit value", zap.String("rating_id", ratingID))
			return RatingResponse{}, skillratingerrors.ErrInvalidApprovedRating
		}
		approved := *req.ApprovedRating
		rating.Status = StatusEdited
		rating.ApprovedRating = &approved
		changeType, logged = ChangeManagerEdited, approved
	case ActionReject:
		rating.Status = StatusRejected
		rating.ApprovedRating = nil
		changeType, logged = ChangeManagerRejected, self
	}

	reviewedAt := time.Now().UTC()
	rating.ReviewedBy = &reviewer
	rating.ReviewedAt = &reviewedAt
	rating.ReviewComment = req.Comment

	if err := qtx.Save(ctx, rating); err != nil {
		s.logger.Error("review rating persist failed", zap.Error(err))
		return RatingResponse{}, mapRepositoryError(err)
	}

	if err := s.appendLog(ctx, qtx, rating, &self, logged, changeType, &reviewer, req.Comment); err != nil {
		return RatingResponse{}, err
	}

	if s.outbox != nil {
		event := events.SkillRatingReviewedEvent{
			EventType:      events.EventSkillRatingReviewed,
			RequestID:      rid,
			RatingID:       rating.ID.String(),
			EmployeeID:     rating.EmployeeID.String(),
			SkillID:        rating.SkillID.String(),
			Status:         rating.Status,
			ApprovedRating: rating.ApprovedRating,
			ReviewedBy:     managerUserID,
			OccurredAt:     reviewedAt,
		}
		msg, err := kafka.NewOutboxEvent(rid, "employee_skill", rating.ID.String(), events.SkillRatingTopic, event.EventType, event)
		if err != nil {
			s.logger.Error("review rating marshal event failed", zap.Error(err))
			return RatingResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, msg); err != nil {
			s.logger.Error("review rating outbox persist failed",
				zap.String("rating_id", ratingID),
				zap.Error(err),
			)
			return RatingResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("review rating commit failed", zap.Error(err))
		return RatingResponse{}, err
	}

	s.logger.Info("review rating success",
		zap.String("request_id", rid),
		zap.String("rating_id", ratingID),
		zap.String("status", rating.Status),
	)
	return mapToResponse(*rating), nil
}

func (s *service) ListMyRatings(ctx context.Context, userID string) ([]RatingDetailResponse, error) {
	s.logger.Debug("list my ratings requested", zap.String("user_id", userID))

	profile, err := s.loadProfile(ctx, s.repo, userID, skillratingerrors.ErrProfileNotFound)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByEmployee(ctx, profile.ID)
	if err != nil {
		s.logger.Error("list my ratings failed", zap.Error(err))
		return nil, err
	}
	return mapRowsToDetails(rows), nil
}

func (s *service) ListPendingForManager(ctx context.Context, managerUserID string) ([]RatingDetailResponse, error) {
	s.logger.Debug("list pending ratings requested", zap.String("manager_user_id", managerUserID))

	manager, err := s.loadProfile(ctx, s.repo, managerUserID, skillratingerrors.ErrManagerNotFound)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListPendingByManager(ctx, manager.ID)
	if err != nil {
		s.logger.Error("list pending ratings failed", zap.Error(err))
		return nil, err
	}
	return mapRowsToDetails(rows), nil
}

func (s *service) loadProfile(ctx context.Context, repo Repository, userID string, notFound error) (*Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, notFound
	}
	profile, err := repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("profile not found", zap.String("user_id", userID))
			return nil, notFound
		}
		s.logger.Error("load profile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

func (s *service) loadRatingForUpdate(ctx context.Context, repo Repository, ratingID string) (*EmployeeSkill, error) {
	rating, err := repo.FindByIDForUpdate(ctx, ratingID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("load rating failed", zap.String("rating_id", ratingID), zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	return rating, nil
}

// appendLog writes a history entry whose changed_at is strictly after the
// previous entry for the same employee and skill.
func (s *service) appendLog(
	ctx context.Context,
	repo Repository,
	rating *EmployeeSkill,
	previous *int,
	next int,
	changeType string,
	changedBy *uuid.UUID,
	comment *string,
) error {
	last, err := repo.LastLogTime(ctx, rating.EmployeeID, rating.SkillID)
	if err != nil {
		s.logger.Error("load last progress log failed", zap.Error(err))
		return err
	}

	entry := &SkillProgressLog{
		ID:             uuid.New(),
		EmployeeID:     rating.EmployeeID,
		SkillID:        rating.SkillID,
		PreviousRating: previous,
		NewRating:      next,
		ChangeType:     changeType,
		ChangedBy:      changedBy,
		Comment:        comment,
		ChangedAt:      NextChangedAt(time.Now(), last),
	}
	if err := repo.AppendLog(ctx, entry); err != nil {
		s.logger.Error("append progress log failed",
			zap.String("change_type", changeType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// NextChangedAt returns now at microsecond precision, bumped past last
// when the clock has not moved beyond it.
func NextChangedAt(now time.Time, last *time.Time) time.Time {
	t := now.UTC().Truncate(time.Microsecond)
	if last != nil && !t.After(*last) {
		return last.UTC().Add(time.Microsecond)
	}
	return t
}

func mapToResponse(r EmployeeSkill) RatingResponse {
	resp := RatingResponse{
		ID:             r.ID.String(),
		EmployeeID:     r.EmployeeID.String(),
		SkillID:        r.SkillID.String(),
		SelfRating:     r.SelfRating,
		ApprovedRating: r.ApprovedRating,
		Status:         r.Status,
		ReviewComment:  r.ReviewComment,
		CreatedAt:      formatTime(r.CreatedAt),
		UpdatedAt:      formatTime(r.UpdatedAt),
	}
	if r.ReviewedBy != nil {
		v := r.ReviewedBy.String()
		resp.ReviewedBy = &v
	}
	if r.ReviewedAt != nil {
		v := formatTime(*r.ReviewedAt)
		resp.ReviewedAt = &v
	}
	return resp
}

func mapRowsToDetails(rows []RatingRow) []RatingDetailResponse {
	out := make([]RatingDetailResponse, len(rows))
	for i, row := range rows {
		out[i] = RatingDetailResponse{
			RatingResponse: mapToResponse(EmployeeSkill{
				ID:             row.ID,
				EmployeeID:     row.EmployeeID,
				SkillID:        row.SkillID,
				SelfRating:     row.SelfRating,
				ApprovedRating: row.ApprovedRating,
				Status:         row.Status,
				ReviewedBy:     row.ReviewedBy,
				ReviewedAt:     row.ReviewedAt,
				ReviewComment:  row.ReviewComment,
				CreatedAt:      row.CreatedAt,
				UpdatedAt:      row.UpdatedAt,
			}),
			SkillName:     row.SkillName,
			EmployeeName:  row.EmployeeFullname,
			EmployeeEmail: row.EmployeeEmail,
			ReviewerEmail: row.ReviewerEmail,
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
