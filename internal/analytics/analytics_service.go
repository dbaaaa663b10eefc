package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	analyticserrors "go-skillmatrix/internal/analytics/errors"
	"go-skillmatrix/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=analytics_service.go -destination=mock/analytics_service_mock.go -package=mock
type Service interface {
	GetEmployeeSkillProgress(ctx context.Context, employeeID string) (EmployeeProgressResponse, error)
	GetEmployeesOverview(ctx context.Context) ([]EmployeeOverview, error)
	GetSkillProgressTimeline(ctx context.Context, employeeID, skillID string) (TimelineResponse, error)
	GetDashboardStats(ctx context.Context) (DashboardStats, error)
}

type service struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewService builds the analytics service. now defaults to time.Now.
func NewService(repo Repository, now func() time.Time, logger ...*zap.Logger) Service {
	l := zap.L().Named("analytics.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("analytics.service")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now, logger: l}
}

func (s *service) findEmployee(ctx context.Context, id string) (*EmployeeRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, analyticserrors.ErrEmployeeNotFound
	}
	emp, err := s.repo.FindEmployee(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, analyticserrors.ErrEmployeeNotFound
	}
	if err != nil {
		s.logger.Error("find employee failed", zap.String("employee_id", id), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func (s *service) GetEmployeeSkillProgress(ctx context.Context, employeeID string) (EmployeeProgressResponse, error) {
	s.logger.Debug("employee skill progress requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", employeeID),
	)

	emp, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return EmployeeProgressResponse{}, err
	}

	ratings, err := s.repo.ListRatings(ctx, &emp.ID)
	if err != nil {
		s.logger.Error("list ratings failed", zap.Error(err))
		return EmployeeProgressResponse{}, err
	}

	logs, err := s.repo.ListLogs(ctx, emp.ID, nil)
	if err != nil {
		s.logger.Error("list progress logs failed", zap.Error(err))
		return EmployeeProgressResponse{}, err
	}

	bySkill := make(map[uuid.UUID][]HistoryEntry, len(ratings))
	for _, l := range logs {
		bySkill[l.SkillID] = append(bySkill[l.SkillID], mapHistory(l))
	}

	resp := EmployeeProgressResponse{
		EmployeeID: emp.ID.String(),
		Fullname:   emp.Fullname,
		Department: emp.DepartmentName,
		Skills:     make([]SkillProgress, len(ratings)),
	}
	for i, r := range ratings {
		history := bySkill[r.SkillID]
		if history == nil {
			history = []HistoryEntry{}
		}
		resp.Skills[i] = SkillProgress{
			SkillID:       r.SkillID.String(),
			SkillName:     r.SkillName,
			CurrentRating: r.CurrentRating(),
			Status:        r.Status,
			History:       history,
		}
	}
	return resp, nil
}

func (s *service) GetEmployeesOverview(ctx context.Context) ([]EmployeeOverview, error) {
	s.logger.Debug("employees overview requested", zap.String("request_id", contextutil.GetRequestID(ctx)))

	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}

	ratings, err := s.repo.ListRatings(ctx, nil)
	if err != nil {
		s.logger.Error("list ratings failed", zap.Error(err))
		return nil, err
	}

	byEmployee := make(map[uuid.UUID][]RatingRow, len(employees))
	for _, r := range ratings {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	out := make([]EmployeeOverview, len(employees))
	for i, e := range employees {
		out[i] = overview(e, byEmployee[e.ID])
	}
	return out, nil
}

func overview(e EmployeeRow, ratings []RatingRow) EmployeeOverview {
	o := EmployeeOverview{
		ID:          e.ID.String(),
		Fullname:    e.Fullname,
		Department:  e.DepartmentName,
		TotalSkills: len(ratings),
	}

	var sum, approvedCount int
	var last time.Time
	for _, r := range ratings {
		switch r.Status {
		case statusApproved, statusEdited:
			o.ApprovedSkills++
		case statusPending:
			o.PendingSkills++
		}
		if r.ApprovedRating != nil {
			sum += *r.ApprovedRating
			approvedCount++
		}
		if r.UpdatedAt.After(last) {
			last = r.UpdatedAt
		}
	}

	if approvedCount > 0 {
		o.AverageRating = math.Round(float64(sum)/float64(approvedCount)*100) / 100
	}
	if !last.IsZero() {
		ts := last.UTC().Format(time.RFC3339)
		o.LastUpdated = &ts
	}
	return o
}

func (s *service) GetSkillProgressTimeline(ctx context.Context, employeeID, skillID string) (TimelineResponse, error) {
	s.logger.Debug("skill timeline requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", employeeID),
		zap.String("skill_id", skillID),
	)

	emp, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return TimelineResponse{}, err
	}

	if _, err := uuid.Parse(skillID); err != nil {
		return TimelineResponse{}, analyticserrors.ErrSkillNotFound
	}
	sk, err := s.repo.FindSkill(ctx, skillID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TimelineResponse{}, analyticserrors.ErrSkillNotFound
	}
	if err != nil {
		s.logger.Error("find skill failed", zap.Error(err))
		return TimelineResponse{}, err
	}

	rating, err := s.repo.FindRating(ctx, emp.ID, sk.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("skill timeline for unrated skill",
			zap.String("employee_id", employeeID),
			zap.String("skill_id", skillID),
		)
		return TimelineResponse{}, analyticserrors.ErrSkillNotRated
	}
	if err != nil {
		s.logger.Error("find rating failed", zap.Error(err))
		return TimelineResponse{}, err
	}

	logs, err := s.repo.ListLogs(ctx, emp.ID, &sk.ID)
	if err != nil {
		s.logger.Error("list progress logs failed", zap.Error(err))
		return TimelineResponse{}, err
	}

	resp := TimelineResponse{
		Employee:      TimelineEmployee{ID: emp.ID.String(), Fullname: emp.Fullname},
		Skill:         TimelineSkill{Name: sk.Name, Description: sk.Description},
		CurrentRating: rating.CurrentRating(),
		Status:        rating.Status,
		Timeline:      make([]HistoryEntry, len(logs)),
	}
	for i, l := range logs {
		resp.Timeline[i] = mapHistory(l)
	}
	resp.TotalImprovement, resp.DurationDays = progression(logs)

	return resp, nil
}

// progression derives the improvement from the first baseline to the latest
// rating and the span in whole days, rounded up. logs must be oldest first.
func progression(logs []LogRow) (improvement int, durationDays int) {
	if len(logs) == 0 {
		return 0, 0
	}

	firstLog, lastLog := logs[0], logs[len(logs)-1]
	baseline := firstLog.NewRating
	if firstLog.PreviousRating != nil {
		baseline = *firstLog.PreviousRating
	}
	improvement = lastLog.NewRating - baseline

	if len(logs) > 1 {
		span := lastLog.ChangedAt.Sub(firstLog.ChangedAt)
		durationDays = int(math.Ceil(span.Hours() / 24))
	}
	return improvement, durationDays
}

func (s *service) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	s.logger.Debug("dashboard stats requested", zap.String("request_id", contextutil.GetRequestID(ctx)))

	var stats DashboardStats
	var err error

	if stats.ActiveProjects, err = s.repo.CountActiveProjects(ctx); err != nil {
		s.logger.Error("count active projects failed", zap.Error(err))
		return DashboardStats{}, err
	}
	if stats.TotalEmployees, err = s.repo.CountEmployees(ctx); err != nil {
		s.logger.Error("count employees failed", zap.Error(err))
		return DashboardStats{}, err
	}
	if stats.PendingAssignments, err = s.repo.CountPendingAssignments(ctx); err != nil {
		s.logger.Error("count pending assignments failed", zap.Error(err))
		return DashboardStats{}, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(dashboardWindowDays - 1))

	if stats.NewSkills, err = s.repo.CountRatingsSince(ctx, now.AddDate(0, 0, -dashboardWindowDays)); err != nil {
		s.logger.Error("count new ratings failed", zap.Error(err))
		return DashboardStats{}, err
	}

	times, err := s.repo.LogTimesSince(ctx, start)
	if err != nil {
		s.logger.Error("list activity failed", zap.Error(err))
		return DashboardStats{}, err
	}
	stats.ActivityGraphData = activity(start, dashboardWindowDays, times)

	return stats, nil
}

// activity buckets timestamps per UTC day starting at start. Days without
// entries are reported with a zero count.
func activity(start time.Time, days int, times []time.Time) []ActivityPoint {
	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.UTC().Format(dayLayout)]++
	}

	out := make([]ActivityPoint, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		out[i] = ActivityPoint{Date: day, Count: counts[day]}
	}
	return out
}

func mapHistory(l LogRow) HistoryEntry {
	h := HistoryEntry{
		Date:           l.ChangedAt.UTC().Format(time.RFC3339),
		Rating:         l.NewRating,
		PreviousRating: l.PreviousRating,
		ChangeType:     l.ChangeType,
		Comment:        l.Comment,
	}
	if l.ChangedBy != nil && l.ReviewerEmail != nil {
		name := "Unknown"
		if l.ReviewerName != nil {
			name = *l.ReviewerName
		}
		h.ReviewedBy = &Reviewer{Email: *l.ReviewerEmail, Fullname: name}
	}
	return h
}
