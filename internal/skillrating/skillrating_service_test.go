package skillrating_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	kafkaMock "go-skillmatrix/internal/messaging/kafka/mock"
	"go-skillmatrix/internal/skillrating"
	skillratingerrors "go-skillmatrix/internal/skillrating/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeRatingRepo struct {
	profiles map[string]*skillrating.Profile // by user id
	skills   map[string]bool
	ratings  map[string]*skillrating.EmployeeSkill
	logs     []skillrating.SkillProgressLog
	lastLog  *time.Time
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{
		profiles: map[string]*skillrating.Profile{},
		skills:   map[string]bool{},
		ratings:  map[string]*skillrating.EmployeeSkill{},
	}
}

func (f *fakeRatingRepo) addProfile(manager *skillrating.Profile) *skillrating.Profile {
	p := &skillrating.Profile{ID: uuid.New(), UserID: uuid.New()}
	if manager != nil {
		p.ManagerID = &manager.ID
	}
	f.profiles[p.UserID.String()] = p
	return p
}

func (f *fakeRatingRepo) addRating(employee *skillrating.Profile, self int, status string) *skillrating.EmployeeSkill {
	r := &skillrating.EmployeeSkill{
		ID: uuid.New(), EmployeeID: employee.ID, SkillID: uuid.New(), SelfRating: self, Status: status,
	}
	f.ratings[r.ID.String()] = r
	return r
}

func (f *fakeRatingRepo) WithTx(*sql.Tx) skillrating.Repository { return f }
func (f *fakeRatingRepo) FindProfileByUserID(_ context.Context, userID string) (*skillrating.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRatingRepo) FindProfileByID(_ context.Context, id uuid.UUID) (*skillrating.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRatingRepo) SkillExists(_ context.Context, skillID string) (bool, error) {
	return f.skills[skillID], nil
}
func (f *fakeRatingRepo) ExistsForPair(_ context.Context, employeeID uuid.UUID, skillID string) (bool, error) {
	for _, r := range f.ratings {
		if r.EmployeeID == employeeID && r.SkillID.String() == skillID {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeRatingRepo) Create(_ context.Context, r *skillrating.EmployeeSkill) error {
	f.ratings[r.ID.String()] = r
	return nil
}
func (f *fakeRatingRepo) FindByIDForUpdate(_ context.Context, id string) (*skillrating.EmployeeSkill, error) {
	if r, ok := f.ratings[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRatingRepo) Save(_ context.Context, r *skillrating.EmployeeSkill) error {
	cp := *r
	f.ratings[r.ID.String()] = &cp
	return nil
}
func (f *fakeRatingRepo) LastLogTime(context.Context, uuid.UUID, uuid.UUID) (*time.Time, error) {
	if len(f.logs) > 0 {
		t := f.logs[len(f.logs)-1].ChangedAt
		return &t, nil
	}
	return f.lastLog, nil
}
func (f *fakeRatingRepo) AppendLog(_ context.Context, entry *skillrating.SkillProgressLog) error {
	f.logs = append(f.logs, *entry)
	return nil
}
func (f *fakeRatingRepo) ListByEmployee(context.Context, uuid.UUID) ([]skillrating.RatingRow, error) {
	return nil, nil
}
func (f *fakeRatingRepo) ListPendingByManager(context.Context, uuid.UUID) ([]skillrating.RatingRow, error) {
	return nil, nil
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type serviceDeps struct {
	service skillrating.Service
	repo    *fakeRatingRepo
	sqlMock sqlmock.Sqlmock
	outbox  *kafkaMock.MockOutboxRepository
}

func setupService(t *testing.T) serviceDeps {
	ctrl := gomock.NewController(t)
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newFakeRatingRepo()
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	return serviceDeps{
		service: skillrating.NewService(db, repo, outbox),
		repo:    repo,
		sqlMock: mock,
		outbox:  outbox,
	}
}

func TestService_SubmitSelfRating(t *testing.T) {
	ctx := context.Background()

	t.Run("success logs initial rating", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		skillID := uuid.NewString()
		deps.repo.skills[skillID] = true
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.SubmitSelfRating(ctx, emp.UserID.String(), skillrating.SubmitRatingRequest{
			SkillID: skillID, SelfRating: 4,
		})

		assert.NoError(t, err)
		assert.Equal(t, skillrating.StatusPending, resp.Status)
		assert.Equal(t, 4, resp.SelfRating)
		assert.Nil(t, resp.ApprovedRating)

		assert.Len(t, deps.repo.logs, 1)
		log := deps.repo.logs[0]
		assert.Equal(t, skillrating.ChangeInitialRating, log.ChangeType)
		assert.Nil(t, log.PreviousRating)
		assert.Equal(t, 4, log.NewRating)
		assert.Equal(t, emp.UserID, *log.ChangedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - rating out of range", func(t *testing.T) {
		deps := setupService(t)
		for _, v := range []int{0, 6, -1} {
			_, err := deps.service.SubmitSelfRating(ctx, uuid.NewString(), skillrating.SubmitRatingRequest{
				SkillID: uuid.NewString(), SelfRating: v,
			})
			assert.ErrorIs(t, err, skillratingerrors.ErrInvalidRating)
		}
		assert.Empty(t, deps.repo.ratings)
	})

	t.Run("negative - profile not found", func(t *testing.T) {
		deps := setupService(t)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.SubmitSelfRating(ctx, uuid.NewString(), skillrating.SubmitRatingRequest{
			SkillID: uuid.NewString(), SelfRating: 3,
		})
		assert.ErrorIs(t, err, skillratingerrors.ErrProfileNotFound)
	})

	t.Run("negative - skill not found", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.SubmitSelfRating(ctx, emp.UserID.String(), skillrating.SubmitRatingRequest{
			SkillID: uuid.NewString(), SelfRating: 3,
		})
		assert.ErrorIs(t, err, skillratingerrors.ErrSkillNotFound)
	})

	t.Run("negative - already rated", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		existing := deps.repo.addRating(emp, 2, skillrating.StatusPending)
		deps.repo.skills[existing.SkillID.String()] = true
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.SubmitSelfRating(ctx, emp.UserID.String(), skillrating.SubmitRatingRequest{
			SkillID: existing.SkillID.String(), SelfRating: 3,
		})
		assert.ErrorIs(t, err, skillratingerrors.ErrAlreadyRated)
	})
}

func TestService_UpdateSelfRating(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(emp, 2, skillrating.StatusPending)
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.UpdateSelfRating(ctx, rating.ID.String(), emp.UserID.String(), 3)

		assert.NoError(t, err)
		assert.Equal(t, 3, resp.SelfRating)
		assert.Equal(t, skillrating.ChangeSelfUpdated, deps.repo.logs[0].ChangeType)
		assert.Equal(t, 2, *deps.repo.logs[0].PreviousRating)
		assert.Equal(t, 3, deps.repo.logs[0].NewRating)
	})

	t.Run("negative - not owner", func(t *testing.T) {
		deps := setupService(t)
		owner := deps.repo.addProfile(nil)
		other := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(owner, 2, skillrating.StatusPending)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.UpdateSelfRating(ctx, rating.ID.String(), other.UserID.String(), 3)
		assert.ErrorIs(t, err, skillratingerrors.ErrNotOwner)
	})

	t.Run("negative - reviewed rating", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(emp, 2, skillrating.StatusApproved)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.UpdateSelfRating(ctx, rating.ID.String(), emp.UserID.String(), 3)
		assert.ErrorIs(t, err, skillratingerrors.ErrAlreadyReviewed)
	})

	t.Run("negative - rejected ratings are not editable in place", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(emp, 2, skillrating.StatusRejected)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.UpdateSelfRating(ctx, rating.ID.String(), emp.UserID.String(), 3)
		assert.ErrorIs(t, err, skillratingerrors.ErrAlreadyReviewed)
	})

	t.Run("negative - rating not found", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.UpdateSelfRating(ctx, uuid.NewString(), emp.UserID.String(), 3)
		assert.ErrorIs(t, err, skillratingerrors.ErrRatingNotFound)
	})
}

func TestService_ResubmitRating(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected goes back to pending", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(emp, 2, skillrating.StatusRejected)
		reviewer := uuid.New()
		comment := "too low"
		rating.ReviewedBy = &reviewer
		rating.ReviewComment = &comment
		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.ResubmitRating(ctx, rating.ID.String(), emp.UserID.String(), 4)

		assert.NoError(t, err)
		assert.Equal(t, skillrating.StatusPending, resp.Status)
		assert.Equal(t, 4, resp.SelfRating)
		assert.Nil(t, resp.ReviewedBy)
		assert.Nil(t, resp.ReviewComment)
		assert.Equal(t, skillrating.ChangeSelfUpdated, deps.repo.logs[0].ChangeType)
	})

	t.Run("negative - pending rating", func(t *testing.T) {
		deps := setupService(t)
		emp := deps.repo.addProfile(nil)
		rating := deps.repo.addRating(emp, 2, skillrating.StatusPending)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.ResubmitRating(ctx, rating.ID.String(), emp.UserID.String(), 4)
		assert.ErrorIs(t, err, skillratingerrors.ErrNotRejected)
	})
}

type reviewedEventMatcher struct {
	status   string
	approved *int
}

func (m reviewedEventMatcher) Matches(x any) bool {
	msg, ok := x.(kafka.OutboxEvent)
	if !ok || msg.Topic != events.SkillRatingTopic || msg.EventType != events.EventSkillRatingReviewed {
		return false
	}
	var payload events.SkillRatingReviewedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return false
	}
	if payload.Status != m.status {
		return false
	}
	if m.approved == nil {
		return payload.ApprovedRating == nil
	}
	return payload.ApprovedRating != nil && *payload.ApprovedRating == *m.approved
}

func (m reviewedEventMatcher) String() string {
	return "skill_rating_reviewed event with status " + m.status
}

func intPtr(v int) *int { return &v }

func TestService_ReviewRating(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name         string
		req          skillrating.ReviewRatingRequest
		wantStatus   string
		wantApproved *int
		wantChange   string
		wantNew      int
	}{
		{
			name:         "approve copies self rating",
			req:          skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove},
			wantStatus:   skillrating.StatusApproved,
			wantApproved: intPtr(3),
			wantChange:   skillrating.ChangeManagerApproved,
			wantNew:      3,
		},
		{
			name:         "edit sets manager value",
			req:          skillrating.ReviewRatingRequest{Action: skillrating.ActionEdit, ApprovedRating: intPtr(5)},
			wantStatus:   skillrating.StatusEdited,
			wantApproved: intPtr(5),
			wantChange:   skillrating.ChangeManagerEdited,
			wantNew:      5,
		},
		{
			name:       "reject clears approved rating",
			req:        skillrating.ReviewRatingRequest{Action: skillrating.ActionReject},
			wantStatus: skillrating.StatusRejected,
			wantChange: skillrating.ChangeManagerRejected,
			wantNew:    3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupService(t)
			mgr := deps.repo.addProfile(nil)
			emp := deps.repo.addProfile(mgr)
			rating := deps.repo.addRating(emp, 3, skillrating.StatusPending)
			expectTx(t, deps.sqlMock, true)

			deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
			deps.outbox.EXPECT().
				Create(gomock.Any(), reviewedEventMatcher{status: tc.wantStatus, approved: tc.wantApproved}).
				Return(nil)

			resp, err := deps.service.ReviewRating(ctx, rating.ID.String(), mgr.UserID.String(), tc.req)

			assert.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, tc.wantApproved, resp.ApprovedRating)
			assert.Equal(t, mgr.UserID.String(), *resp.ReviewedBy)
			assert.NotNil(t, resp.ReviewedAt)

			log := deps.repo.logs[0]
			assert.Equal(t, tc.wantChange, log.ChangeType)
			assert.Equal(t, 3, *log.PreviousRating)
			assert.Equal(t, tc.wantNew, log.NewRating)
			assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		})
	}

	t.Run("negative - second review fails", func(t *testing.T) {
		deps := setupService(t)
		mgr := deps.repo.addProfile(nil)
		emp := deps.repo.addProfile(mgr)
		rating := deps.repo.addRating(emp, 3, skillrating.StatusPending)

		expectTx(t, deps.sqlMock, true)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		_, err := deps.service.ReviewRating(ctx, rating.ID.String(), mgr.UserID.String(),
			skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove})
		assert.NoError(t, err)

		expectTx(t, deps.sqlMock, false)
		_, err = deps.service.ReviewRating(ctx, rating.ID.String(), mgr.UserID.String(),
			skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove})
		assert.ErrorIs(t, err, skillratingerrors.ErrNotPending)
	})

	t.Run("negative - manager mismatch", func(t *testing.T) {
		deps := setupService(t)
		mgr := deps.repo.addProfile(nil)
		stranger := deps.repo.addProfile(nil)
		emp := deps.repo.addProfile(mgr)
		rating := deps.repo.addRating(emp, 3, skillrating.StatusPending)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.ReviewRating(ctx, rating.ID.String(), stranger.UserID.String(),
			skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove})
		assert.ErrorIs(t, err, skillratingerrors.ErrManagerMismatch)
		assert.Empty(t, deps.repo.logs)
	})

	t.Run("negative - manager profile not found", func(t *testing.T) {
		deps := setupService(t)
		mgr := deps.repo.addProfile(nil)
		emp := deps.repo.addProfile(mgr)
		rating := deps.repo.addRating(emp, 3, skillrating.StatusPending)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.ReviewRating(ctx, rating.ID.String(), uuid.NewString(),
			skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove})
		assert.ErrorIs(t, err, skillratingerrors.ErrManagerNotFound)
	})

	t.Run("negative - edit without valid value", func(t *testing.T) {
		for _, v := range []*int{nil, intPtr(0), intPtr(6)} {
			deps := setupService(t)
			mgr := deps.repo.addProfile(nil)
			emp := deps.repo.addProfile(mgr)
			rating := deps.repo.addRating(emp, 3, skillrating.StatusPending)
			expectTx(t, deps.sqlMock, false)

			_, err := deps.service.ReviewRating(ctx, rating.ID.String(), mgr.UserID.String(),
				skillrating.ReviewRatingRequest{Action: skillrating.ActionEdit, ApprovedRating: v})
			assert.ErrorIs(t, err, skillratingerrors.ErrInvalidApprovedRating)
			assert.Equal(t, skillrating.StatusPending, deps.repo.ratings[rating.ID.String()].Status)
		}
	})
}

func TestService_ProgressLogTimesStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	deps := setupService(t)
	mgr := deps.repo.addProfile(nil)
	emp := deps.repo.addProfile(mgr)
	rating := deps.repo.addRating(emp, 2, skillrating.StatusPending)

	// history written by a clock that ran ahead
	future := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	deps.repo.lastLog = &future

	expectTx(t, deps.sqlMock, true)
	expectTx(t, deps.sqlMock, true)
	deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
	deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	_, err := deps.service.UpdateSelfRating(ctx, rating.ID.String(), emp.UserID.String(), 3)
	assert.NoError(t, err)
	_, err = deps.service.ReviewRating(ctx, rating.ID.String(), mgr.UserID.String(),
		skillrating.ReviewRatingRequest{Action: skillrating.ActionApprove})
	assert.NoError(t, err)

	assert.Len(t, deps.repo.logs, 2)
	assert.Equal(t, future.Add(time.Microsecond), deps.repo.logs[0].ChangedAt)
	assert.True(t, deps.repo.logs[1].ChangedAt.After(deps.repo.logs[0].ChangedAt))
}

func TestNextChangedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 1500, time.UTC)

	assert.Equal(t, now.Truncate(time.Microsecond), skillrating.NextChangedAt(now, nil))

	earlier := now.Add(-time.Second)
	assert.Equal(t, now.Truncate(time.Microsecond), skillrating.NextChangedAt(now, &earlier))

	same := now.Truncate(time.Microsecond)
	assert.Equal(t, same.Add(time.Microsecond), skillrating.NextChangedAt(now, &same))
}
