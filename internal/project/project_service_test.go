package project_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-skillmatrix/internal/aiplanner"
	aiplannererrors "go-skillmatrix/internal/aiplanner/errors"
	"go-skillmatrix/internal/assignment"
	"go-skillmatrix/internal/deliverable"
	deliverableerrors "go-skillmatrix/internal/deliverable/errors"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	kafkaMock "go-skillmatrix/internal/messaging/kafka/mock"
	"go-skillmatrix/internal/project"
	projecterrors "go-skillmatrix/internal/project/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeProjectRepo struct {
	projects map[string]*project.Project
	active   map[uuid.UUID]int64
	catalog  []aiplanner.CatalogSkill
	deleted  []uuid.UUID
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[string]*project.Project{}, active: map[uuid.UUID]int64{}}
}

func (f *fakeProjectRepo) add(status string) *project.Project {
	p := &project.Project{ID: uuid.New(), Name: "Apollo", Status: status}
	f.projects[p.ID.String()] = p
	return p
}

func (f *fakeProjectRepo) WithTx(*sql.Tx) project.Repository { return f }
func (f *fakeProjectRepo) Create(_ context.Context, p *project.Project) error {
	f.projects[p.ID.String()] = p
	return nil
}
func (f *fakeProjectRepo) FindByID(_ context.Context, id string) (*project.Project, error) {
	if p, ok := f.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProjectRepo) FindByIDForUpdate(ctx context.Context, id string) (*project.Project, error) {
	return f.FindByID(ctx, id)
}
func (f *fakeProjectRepo) List(context.Context) ([]project.SummaryRow, error) { return nil, nil }
func (f *fakeProjectRepo) CountDeliverables(context.Context, uuid.UUID) (int64, error) {
	return 3, nil
}
func (f *fakeProjectRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := f.projects[id.String()]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}
func (f *fakeProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	delete(f.projects, id.String())
	return nil
}
func (f *fakeProjectRepo) CountActiveAssignments(_ context.Context, id uuid.UUID) (int64, error) {
	return f.active[id], nil
}
func (f *fakeProjectRepo) SkillCatalog(context.Context) ([]aiplanner.CatalogSkill, error) {
	return f.catalog, nil
}

type fakeAssignments struct {
	assignment.Repository
	released map[uuid.UUID]int64
	calls    int
}

func (f *fakeAssignments) WithTx(*sql.Tx) assignment.Repository { return f }
func (f *fakeAssignments) ReleaseByProject(_ context.Context, projectID uuid.UUID, _ time.Time) (int64, error) {
	f.calls++
	return f.released[projectID], nil
}

type fakeDeliverables struct {
	deliverable.Service
	created   []string
	failName  string
	failSkill uuid.UUID
}

func (f *fakeDeliverables) Create(_ context.Context, projectID string, req deliverable.CreateDeliverableRequest) (deliverable.DeliverableResponse, error) {
	if req.Name == f.failName {
		return deliverable.DeliverableResponse{}, deliverableerrors.ErrDuplicateName
	}
	f.created = append(f.created, req.Name)
	return deliverable.DeliverableResponse{ID: uuid.NewString(), ProjectID: projectID, Name: req.Name}, nil
}

func (f *fakeDeliverables) AddSkill(_ context.Context, deliverableID string, req deliverable.AddSkillRequest) (deliverable.RequiredSkillResponse, error) {
	if req.SkillID == f.failSkill.String() {
		return deliverable.RequiredSkillResponse{}, deliverableerrors.ErrInvalidWeight
	}
	return deliverable.RequiredSkillResponse{DeliverableID: deliverableID, SkillID: req.SkillID, Weight: *req.Weight}, nil
}

func (f *fakeDeliverables) ListByProject(context.Context, string) ([]deliverable.DeliverableResponse, error) {
	return []deliverable.DeliverableResponse{{Name: "API"}}, nil
}

type fakePlanner struct {
	proposals []aiplanner.Proposal
	err       error
	brief     aiplanner.Brief
}

func (f *fakePlanner) Plan(_ context.Context, brief aiplanner.Brief, _ []aiplanner.CatalogSkill) ([]aiplanner.Proposal, error) {
	f.brief = brief
	return f.proposals, f.err
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

type completedMatcher struct{ released int64 }

func (m completedMatcher) Matches(x any) bool {
	msg, ok := x.(kafka.OutboxEvent)
	if !ok || msg.EventType != events.EventProjectCompleted || msg.Topic != events.ProjectTopic {
		return false
	}
	var payload events.ProjectCompletedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return false
	}
	return payload.ReleasedAssignments == m.released
}

func (m completedMatcher) String() string { return "project_completed" }

type deletedMatcher struct{ projectID uuid.UUID }

func (m deletedMatcher) Matches(x any) bool {
	msg, ok := x.(kafka.OutboxEvent)
	if !ok || msg.EventType != events.EventProjectDeleted || msg.Topic != events.ProjectTopic {
		return false
	}
	var payload events.ProjectDeletedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return false
	}
	return payload.ProjectID == m.projectID.String() && msg.AggregateID == m.projectID.String()
}

func (m deletedMatcher) String() string { return "project_deleted for " + m.projectID.String() }

type deps struct {
	service      project.Service
	repo         *fakeProjectRepo
	assignments  *fakeAssignments
	deliverables *fakeDeliverables
	planner      *fakePlanner
	sqlMock      sqlmock.Sqlmock
	outbox       *kafkaMock.MockOutboxRepository
}

func setup(t *testing.T) deps {
	ctrl := gomock.NewController(t)
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	d := deps{
		repo:         newFakeProjectRepo(),
		assignments:  &fakeAssignments{released: map[uuid.UUID]int64{}},
		deliverables: &fakeDeliverables{},
		planner:      &fakePlanner{},
		sqlMock:      mock,
		outbox:       kafkaMock.NewMockOutboxRepository(ctrl),
	}
	d.service = project.NewService(db, d.repo, d.assignments, d.deliverables, d.planner, d.outbox)
	return d
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{project.StatusPlanned, project.StatusActive, true},
		{project.StatusActive, project.StatusCompleted, true},
		{project.StatusActive, project.StatusActive, true},
		{project.StatusPlanned, project.StatusCompleted, false},
		{project.StatusActive, project.StatusPlanned, false},
		{project.StatusCompleted, project.StatusActive, false},
		{project.StatusPlanned, "ARCHIVED", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, project.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("planned to active", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)
		expectTx(t, d.sqlMock, true)

		resp, err := d.service.UpdateStatus(ctx, p.ID.String(), project.StatusActive)

		assert.NoError(t, err)
		assert.Equal(t, project.StatusActive, resp.Status)
		assert.Equal(t, int64(3), resp.DeliverablesCount)
		assert.Zero(t, d.assignments.calls)
	})

	t.Run("completing releases assignments", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusActive)
		d.assignments.released[p.ID] = 2
		expectTx(t, d.sqlMock, true)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(gomock.Any(), completedMatcher{released: 2}).Return(nil)

		resp, err := d.service.UpdateStatus(ctx, p.ID.String(), project.StatusCompleted)

		assert.NoError(t, err)
		assert.Equal(t, project.StatusCompleted, resp.Status)
		assert.Equal(t, int64(2), resp.ReleasedAssignments)
		assert.Equal(t, 1, d.assignments.calls)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - transitions", func(t *testing.T) {
		cases := []struct{ from, to string }{
			{project.StatusPlanned, project.StatusCompleted},
			{project.StatusActive, project.StatusPlanned},
			{project.StatusCompleted, project.StatusActive},
		}
		for _, tc := range cases {
			d := setup(t)
			p := d.repo.add(tc.from)
			expectTx(t, d.sqlMock, false)

			_, err := d.service.UpdateStatus(ctx, p.ID.String(), tc.to)

			assert.ErrorIs(t, err, projecterrors.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.from, d.repo.projects[p.ID.String()].Status)
		}
	})

	t.Run("negative - not found", func(t *testing.T) {
		d := setup(t)
		expectTx(t, d.sqlMock, false)

		_, err := d.service.UpdateStatus(ctx, uuid.NewString(), project.StatusActive)
		assert.ErrorIs(t, err, projecterrors.ErrProjectNotFound)
	})

	t.Run("negative - unknown status", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)

		_, err := d.service.UpdateStatus(ctx, p.ID.String(), "ARCHIVED")
		assert.ErrorIs(t, err, projecterrors.ErrInvalidStatus)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("planned project is removed and announced", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)
		expectTx(t, d.sqlMock, true)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(gomock.Any(), deletedMatcher{projectID: p.ID}).Return(nil)

		assert.NoError(t, d.service.Delete(ctx, p.ID.String()))
		assert.Equal(t, []uuid.UUID{p.ID}, d.repo.deleted)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - outbox failure rolls back", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)
		expectTx(t, d.sqlMock, false)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(gomock.Any(), deletedMatcher{projectID: p.ID}).Return(errors.New("outbox down"))

		err := d.service.Delete(ctx, p.ID.String())

		assert.Error(t, err)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - active assignments", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusActive)
		d.repo.active[p.ID] = 1
		expectTx(t, d.sqlMock, false)

		err := d.service.Delete(ctx, p.ID.String())
		assert.ErrorIs(t, err, projecterrors.ErrHasActiveAssignments)
	})

	t.Run("negative - not planned", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusCompleted)
		expectTx(t, d.sqlMock, false)

		err := d.service.Delete(ctx, p.ID.String())
		assert.ErrorIs(t, err, projecterrors.ErrNotPlanned)
		assert.Empty(t, d.repo.deleted)
	})

	t.Run("negative - not found", func(t *testing.T) {
		d := setup(t)
		expectTx(t, d.sqlMock, false)

		err := d.service.Delete(ctx, uuid.NewString())
		assert.ErrorIs(t, err, projecterrors.ErrProjectNotFound)
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	d := setup(t)

	start, end := "2026-01-10", "2026-03-01"
	resp, err := d.service.Create(ctx, project.CreateProjectRequest{Name: " Apollo ", StartDate: &start, EndDate: &end})
	assert.NoError(t, err)
	assert.Equal(t, "Apollo", resp.Name)
	assert.Equal(t, project.StatusPlanned, resp.Status)
	assert.Equal(t, "2026-01-10", *resp.StartDate)

	_, err = d.service.Create(ctx, project.CreateProjectRequest{Name: "Bad", StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, projecterrors.ErrInvalidDateRange)

	garbage := "next tuesday"
	_, err = d.service.Create(ctx, project.CreateProjectRequest{Name: "Bad", StartDate: &garbage})
	assert.ErrorIs(t, err, projecterrors.ErrInvalidDate)
}

func TestService_GetByID(t *testing.T) {
	d := setup(t)
	p := d.repo.add(project.StatusPlanned)

	resp, err := d.service.GetByID(context.Background(), p.ID.String())
	assert.NoError(t, err)
	assert.Len(t, resp.Deliverables, 1)
	assert.Equal(t, int64(1), resp.DeliverablesCount)

	_, err = d.service.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, projecterrors.ErrProjectNotFound)
}

func TestService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("creates proposals and skips failures", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)
		desc := "Customer portal"
		p.Description = &desc
		goID, badID := uuid.New(), uuid.New()
		d.deliverables.failName = "Duplicate"
		d.deliverables.failSkill = badID
		d.planner.proposals = []aiplanner.Proposal{
			{Name: "Backend", Skills: []aiplanner.ProposedSkill{
				{SkillID: goID, SkillName: "Go", Weight: 0.9},
				{SkillID: badID, SkillName: "Broken", Weight: 0.5},
			}},
			{Name: "Duplicate"},
			{Name: "Frontend"},
		}

		resp, err := d.service.Analyze(ctx, p.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 2, resp.DeliverablesCreated)
		assert.Equal(t, []string{"Backend", "Frontend"}, d.deliverables.created)
		if assert.Len(t, resp.Deliverables, 2) {
			assert.Len(t, resp.Deliverables[0].AssignedSkills, 1)
			assert.Equal(t, goID.String(), resp.Deliverables[0].AssignedSkills[0].SkillID)
			assert.Empty(t, resp.Deliverables[1].AssignedSkills)
		}
		assert.Equal(t, aiplanner.Brief{Name: "Apollo", Description: "Customer portal"}, d.planner.brief)
	})

	t.Run("planner errors pass through", func(t *testing.T) {
		d := setup(t)
		p := d.repo.add(project.StatusPlanned)
		d.planner.err = aiplannererrors.ErrNoSkills

		_, err := d.service.Analyze(ctx, p.ID.String())
		assert.True(t, errors.Is(err, aiplannererrors.ErrNoSkills))
	})

	t.Run("unknown project", func(t *testing.T) {
		d := setup(t)

		_, err := d.service.Analyze(ctx, uuid.NewString())
		assert.ErrorIs(t, err, projecterrors.ErrProjectNotFound)
	})
}
