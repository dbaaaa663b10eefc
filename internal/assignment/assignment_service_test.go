package assignment_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-skillmatrix/internal/assignment"
	assignmenterrors "go-skillmatrix/internal/assignment/errors"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka"
	kafkaMock "go-skillmatrix/internal/messaging/kafka/mock"
	"go-skillmatrix/internal/shared/apperror"
	"go-skillmatrix/internal/shared/lock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

// fakeAssignmentRepo is shared by concurrent reviewers, so every method
// takes the mutex.
type fakeAssignmentRepo struct {
	mu           sync.Mutex
	projects     map[uuid.UUID]string
	deliverables map[string]*assignment.DeliverableRef
	profiles     map[string]*assignment.Profile // by id
	requests     map[string]*assignment.AssignmentRequest
	assignments  []assignment.EmployeeProjectAssignment
	calls        []string
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		projects:     map[uuid.UUID]string{},
		deliverables: map[string]*assignment.DeliverableRef{},
		profiles:     map[string]*assignment.Profile{},
		requests:     map[string]*assignment.AssignmentRequest{},
	}
}

func (f *fakeAssignmentRepo) addDeliverable(projectStatus string) *assignment.DeliverableRef {
	d := &assignment.DeliverableRef{ID: uuid.New(), ProjectID: uuid.New(), Name: "API", ProjectStatus: projectStatus}
	f.projects[d.ProjectID] = projectStatus
	f.deliverables[d.ID.String()] = d
	return d
}

func (f *fakeAssignmentRepo) addProfile(manager *assignment.Profile) *assignment.Profile {
	p := &assignment.Profile{ID: uuid.New(), UserID: uuid.New(), Fullname: "Someone"}
	if manager != nil {
		p.ManagerID = &manager.ID
	}
	f.profiles[p.ID.String()] = p
	return p
}

func (f *fakeAssignmentRepo) addRequest(d *assignment.DeliverableRef, employee *assignment.Profile) *assignment.AssignmentRequest {
	r := &assignment.AssignmentRequest{
		ID: uuid.New(), ProjectID: d.ProjectID, DeliverableID: d.ID, EmployeeID: employee.ID,
		RequestedBy: uuid.New(), Status: assignment.StatusPending,
	}
	f.requests[r.ID.String()] = r
	return r
}

func (f *fakeAssignmentRepo) activeCount(employeeID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.assignments {
		if a.EmployeeID == employeeID && a.ReleasedAt == nil {
			n++
		}
	}
	return n
}

func (f *fakeAssignmentRepo) WithTx(*sql.Tx) assignment.Repository { return f }

func (f *fakeAssignmentRepo) FindDeliverable(_ context.Context, id string) (*assignment.DeliverableRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.deliverables[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) LockProjectStatus(_ context.Context, projectID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "lock_project")
	if s, ok := f.projects[projectID]; ok {
		return s, nil
	}
	return "", gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) FindProfileByID(_ context.Context, id string) (*assignment.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) FindProfileByUserID(_ context.Context, userID string) (*assignment.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID.String() == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) LockProfile(ctx context.Context, id uuid.UUID) (*assignment.Profile, error) {
	return f.FindProfileByID(ctx, id.String())
}

func (f *fakeAssignmentRepo) HasActiveAssignment(_ context.Context, employeeID uuid.UUID) (bool, error) {
	return f.activeCount(employeeID) > 0, nil
}

func (f *fakeAssignmentRepo) HasPendingRequest(_ context.Context, employeeID, deliverableID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.EmployeeID == employeeID && r.DeliverableID == deliverableID && r.Status == assignment.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignmentRepo) CreateRequest(_ context.Context, r *assignment.AssignmentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.requests[r.ID.String()] = &cp
	return nil
}

func (f *fakeAssignmentRepo) FindRequestByID(_ context.Context, id string) (*assignment.AssignmentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) FindRequestForUpdate(ctx context.Context, id string) (*assignment.AssignmentRequest, error) {
	return f.FindRequestByID(ctx, id)
}

func (f *fakeAssignmentRepo) SaveRequest(_ context.Context, r *assignment.AssignmentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.requests[r.ID.String()] = &cp
	return nil
}

func (f *fakeAssignmentRepo) CreateAssignment(_ context.Context, a *assignment.EmployeeProjectAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create_assignment")
	f.assignments = append(f.assignments, *a)
	return nil
}

func (f *fakeAssignmentRepo) ReleaseByProject(_ context.Context, projectID uuid.UUID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.assignments {
		if f.assignments[i].ProjectID == projectID && f.assignments[i].ReleasedAt == nil {
			f.assignments[i].ReleasedAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignmentRepo) ListPendingByManager(context.Context, uuid.UUID) ([]assignment.PendingRequestRow, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) ListByEmployee(context.Context, uuid.UUID) ([]assignment.AssignmentRow, error) {
	return nil, nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) { return nil, lock.ErrNotAcquired }

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type approvedEventMatcher struct{ employeeID uuid.UUID }

func (m approvedEventMatcher) Matches(x any) bool {
	msg, ok := x.(kafka.OutboxEvent)
	if !ok || msg.EventType != events.EventAssignmentApproved || msg.Topic != events.StaffingTopic {
		return false
	}
	var payload events.AssignmentApprovedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return false
	}
	return payload.EmployeeID == m.employeeID.String() && payload.AssignmentID == msg.AggregateID
}

func (m approvedEventMatcher) String() string { return "assignment_approved for " + m.employeeID.String() }

type deps struct {
	service assignment.Service
	repo    *fakeAssignmentRepo
	sqlMock sqlmock.Sqlmock
	outbox  *kafkaMock.MockOutboxRepository
}

func setup(t *testing.T, locker lock.Locker) deps {
	ctrl := gomock.NewController(t)
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newFakeAssignmentRepo()
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	return deps{
		service: assignment.NewService(db, repo, locker, outbox),
		repo:    repo,
		sqlMock: mock,
		outbox:  outbox,
	}
}

func TestService_CreateRequest(t *testing.T) {
	ctx := context.Background()
	hrUser := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		dl := d.repo.addDeliverable("ACTIVE")
		employee := d.repo.addProfile(nil)
		expectTx(t, d.sqlMock, true)

		resp, err := d.service.CreateRequest(ctx, dl.ID.String(), employee.ID.String(), hrUser)

		assert.NoError(t, err)
		assert.Equal(t, assignment.StatusPending, resp.Status)
		assert.Equal(t, dl.ProjectID.String(), resp.ProjectID)
		assert.Equal(t, hrUser, resp.RequestedBy)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - planned project", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		dl := d.repo.addDeliverable("PLANNED")
		employee := d.repo.addProfile(nil)
		expectTx(t, d.sqlMock, false)

		_, err := d.service.CreateRequest(ctx, dl.ID.String(), employee.ID.String(), hrUser)

		assert.ErrorIs(t, err, assignmenterrors.ErrProjectNotActive)
		assert.Empty(t, d.repo.requests)
	})

	t.Run("negative - cases", func(t *testing.T) {
		cases := []struct {
			name    string
			prepare func(d deps) (deliverableID, employeeID string)
			wantErr error
		}{
			{
				name: "deliverable not found",
				prepare: func(d deps) (string, string) {
					return uuid.NewString(), d.repo.addProfile(nil).ID.String()
				},
				wantErr: assignmenterrors.ErrDeliverableNotFound,
			},
			{
				name: "employee not found",
				prepare: func(d deps) (string, string) {
					return d.repo.addDeliverable("ACTIVE").ID.String(), uuid.NewString()
				},
				wantErr: assignmenterrors.ErrEmployeeNotFound,
			},
			{
				name: "employee already assigned",
				prepare: func(d deps) (string, string) {
					dl := d.repo.addDeliverable("ACTIVE")
					e := d.repo.addProfile(nil)
					d.repo.assignments = append(d.repo.assignments, assignment.EmployeeProjectAssignment{
						ID: uuid.New(), EmployeeID: e.ID, ProjectID: uuid.New(), DeliverableID: uuid.New(),
					})
					return dl.ID.String(), e.ID.String()
				},
				wantErr: assignmenterrors.ErrAlreadyAssigned,
			},
			{
				name: "pending request exists",
				prepare: func(d deps) (string, string) {
					dl := d.repo.addDeliverable("ACTIVE")
					e := d.repo.addProfile(nil)
					d.repo.addRequest(dl, e)
					return dl.ID.String(), e.ID.String()
				},
				wantErr: assignmenterrors.ErrPendingExists,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				d := setup(t, lock.NewLocal())
				deliverableID, employeeID := tc.prepare(d)
				expectTx(t, d.sqlMock, false)

				_, err := d.service.CreateRequest(ctx, deliverableID, employeeID, hrUser)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}

func TestService_ReviewRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("approve creates assignment and event", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		expectTx(t, d.sqlMock, true)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(gomock.Any(), approvedEventMatcher{employeeID: employee.ID}).Return(nil)

		resp, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)

		assert.NoError(t, err)
		assert.Equal(t, assignment.StatusApproved, resp.Request.Status)
		assert.Equal(t, manager.UserID.String(), *resp.Request.ReviewedBy)
		if assert.NotNil(t, resp.Assignment) {
			assert.True(t, resp.Assignment.Active)
		}
		assert.Equal(t, 1, d.repo.activeCount(employee.ID))
		assert.Equal(t, []string{"lock_project", "create_assignment"}, d.repo.calls)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - project completed while waiting for the row lock", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		dl := d.repo.addDeliverable("ACTIVE")
		req := d.repo.addRequest(dl, employee)
		// the completing transaction committed first and released everything
		d.repo.projects[dl.ProjectID] = "COMPLETED"
		expectTx(t, d.sqlMock, false)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)

		assert.ErrorIs(t, err, assignmenterrors.ErrProjectNotActive)
		assert.Equal(t, 0, d.repo.activeCount(employee.ID))
		assert.Equal(t, []string{"lock_project"}, d.repo.calls)
		assert.Equal(t, assignment.StatusPending, d.repo.requests[req.ID.String()].Status)
	})

	t.Run("reject resolves only", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		expectTx(t, d.sqlMock, true)

		resp, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionReject)

		assert.NoError(t, err)
		assert.Equal(t, assignment.StatusRejected, resp.Request.Status)
		assert.Nil(t, resp.Assignment)
		assert.Equal(t, 0, d.repo.activeCount(employee.ID))
	})

	t.Run("re-approving fails", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		expectTx(t, d.sqlMock, true)
		d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
		d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)
		assert.NoError(t, err)

		expectTx(t, d.sqlMock, false)
		_, err = d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrRequestNotPending)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
		assert.Equal(t, 1, d.repo.activeCount(employee.ID))
	})

	t.Run("negative - manager mismatch", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		other := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		expectTx(t, d.sqlMock, false)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), other.UserID.String(), assignment.ActionApprove)

		assert.ErrorIs(t, err, assignmenterrors.ErrManagerMismatch)
		assert.Equal(t, assignment.StatusPending, d.repo.requests[req.ID.String()].Status)
	})

	t.Run("negative - project no longer active", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		dl := d.repo.addDeliverable("ACTIVE")
		req := d.repo.addRequest(dl, employee)
		d.repo.projects[dl.ProjectID] = "COMPLETED"
		expectTx(t, d.sqlMock, false)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrProjectNotActive)
	})

	t.Run("negative - employee gained an assignment", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		d.repo.assignments = append(d.repo.assignments, assignment.EmployeeProjectAssignment{
			ID: uuid.New(), EmployeeID: employee.ID, ProjectID: uuid.New(), DeliverableID: uuid.New(),
		})
		expectTx(t, d.sqlMock, false)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrAlreadyAssigned)
	})

	t.Run("negative - manager profile missing", func(t *testing.T) {
		d := setup(t, lock.NewLocal())
		employee := d.repo.addProfile(nil)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
		expectTx(t, d.sqlMock, false)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), uuid.NewString(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrManagerNotFound)
	})

	t.Run("negative - unknown request", func(t *testing.T) {
		d := setup(t, lock.NewLocal())

		_, err := d.service.ReviewRequest(ctx, uuid.NewString(), uuid.NewString(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrRequestNotFound)
	})

	t.Run("negative - invalid action", func(t *testing.T) {
		d := setup(t, lock.NewLocal())

		_, err := d.service.ReviewRequest(ctx, uuid.NewString(), uuid.NewString(), "EDIT")
		assert.ErrorIs(t, err, assignmenterrors.ErrInvalidAction)
	})

	t.Run("negative - lock busy", func(t *testing.T) {
		d := setup(t, busyLocker{})
		manager := d.repo.addProfile(nil)
		employee := d.repo.addProfile(manager)
		req := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)

		_, err := d.service.ReviewRequest(ctx, req.ID.String(), manager.UserID.String(), assignment.ActionApprove)
		assert.ErrorIs(t, err, assignmenterrors.ErrReviewInProgress)
		assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	})
}

func TestService_ReviewRequest_ConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	d := setup(t, lock.NewLocal())
	manager := d.repo.addProfile(nil)
	employee := d.repo.addProfile(manager)
	first := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)
	second := d.repo.addRequest(d.repo.addDeliverable("ACTIVE"), employee)

	// the lock serializes the two transactions
	d.sqlMock.ExpectBegin()
	d.sqlMock.ExpectCommit()
	d.sqlMock.ExpectBegin()
	d.sqlMock.ExpectRollback()
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox).Times(1)
	d.outbox.EXPECT().Create(gomock.Any(), approvedEventMatcher{employeeID: employee.ID}).Return(nil).Times(1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, req := range []*assignment.AssignmentRequest{first, second} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = d.service.ReviewRequest(ctx, id, manager.UserID.String(), assignment.ActionApprove)
		}(i, req.ID.String())
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.HasCode(err, apperror.CodeConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, 1, d.repo.activeCount(employee.ID))
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
}

func TestService_ListAssignmentsForEmployee(t *testing.T) {
	d := setup(t, nil)

	_, err := d.service.ListAssignmentsForEmployee(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, assignmenterrors.ErrEmployeeNotFound)

	employee := d.repo.addProfile(nil)
	out, err := d.service.ListAssignmentsForEmployee(context.Background(), employee.ID.String())
	assert.NoError(t, err)
	assert.Empty(t, out)
}
