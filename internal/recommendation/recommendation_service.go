package recommendation

import (
	"context"
	"errors"
	"fmt"

	recommendationerrors "go-skillmatrix/internal/recommendation/errors"
	"go-skillmatrix/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=recommendation_service.go -destination=mock/recommendation_service_mock.go -package=mock
type Service interface {
	GetRecommendedEmployees(ctx context.Context, deliverableID string, topK int) (DeliverableRecommendations, error)
	GetEmployeeSkillAnalysis(ctx context.Context, deliverableID, employeeID string) (SkillAnalysis, error)
	GetProjectRecommendations(ctx context.Context, projectID string, topK int) (ProjectRecommendations, error)
	ExportProjectRecommendations(ctx context.Context, projectID string, topK int) (Export, error)
}

type service struct {
	repo   Repository
	cache  *Cache
	logger *zap.Logger
}

// NewService wires the engine. A nil cache reads straight from the
// repository on every call.
func NewService(repo Repository, cache *Cache, logger ...*zap.Logger) Service {
	l := zap.L().Named("recommendation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recommendation.service")
	}
	return &service{repo: repo, cache: cache, logger: l}
}

func ValidTopK(topK int) bool {
	return topK >= 1 && topK <= MaxTopK
}

func (s *service) GetRecommendedEmployees(ctx context.Context, deliverableID string, topK int) (DeliverableRecommendations, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("deliverable recommendations requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.Int("top_k", topK),
	)

	if !ValidTopK(topK) {
		return DeliverableRecommendations{}, recommendationerrors.ErrInvalidTopK
	}
	if _, err := uuid.Parse(deliverableID); err != nil {
		return DeliverableRecommendations{}, recommendationerrors.ErrDeliverableNotFound
	}

	scope := fmt.Sprintf("deliverable:%s:%d", deliverableID, topK)
	resp, err := fetch(ctx, s.cache, scope, func(ctx context.Context) (DeliverableRecommendations, error) {
		d, err := s.repo.FindDeliverable(ctx, deliverableID)
		if err != nil {
			return DeliverableRecommendations{}, s.notFound(err, recommendationerrors.ErrDeliverableNotFound, "find deliverable failed")
		}
		return s.rankDeliverable(ctx, *d, topK)
	})
	if err != nil {
		return DeliverableRecommendations{}, err
	}

	s.logger.Info("deliverable recommendations success",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.Int("returned", len(resp.TopEmployees)),
	)
	return resp, nil
}

func (s *service) rankDeliverable(ctx context.Context, d DeliverableRow, topK int) (DeliverableRecommendations, error) {
	requirements, err := s.repo.ListRequirements(ctx, d.ID)
	if err != nil {
		s.logger.Error("list requirements failed", zap.String("deliverable_id", d.ID.String()), zap.Error(err))
		return DeliverableRecommendations{}, err
	}
	if len(requirements) == 0 {
		s.logger.Warn("deliverable has no required skills", zap.String("deliverable_id", d.ID.String()))
		return DeliverableRecommendations{}, recommendationerrors.ErrNoRequiredSkills
	}

	candidates, err := s.snapshot(ctx, requirements)
	if err != nil {
		return DeliverableRecommendations{}, err
	}

	ranked := Rank(requirements, candidates, topK)
	resp := DeliverableRecommendations{
		DeliverableID:       d.ID.String(),
		DeliverableName:     d.Name,
		RequiredSkillsCount: len(requirements),
		TotalCandidates:     len(candidates),
		TopK:                topK,
		TopEmployees:        make([]EmployeeRecommendation, len(ranked)),
	}
	for i, sc := range ranked {
		resp.TopEmployees[i] = mapRecommendation(sc)
	}
	return resp, nil
}

// snapshot loads every employee and the approved ratings for the required
// skills. The scan is unfiltered on purpose: employees with no matching
// rating still rank, with an index of zero.
func (s *service) snapshot(ctx context.Context, requirements []Requirement) ([]Candidate, error) {
	employees, err := s.repo.ListEmployees(ctx)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, err
	}

	ratings, err := s.repo.ListApprovedRatings(ctx, skillIDs(requirements))
	if err != nil {
		s.logger.Error("list approved ratings failed", zap.Error(err))
		return nil, err
	}

	return BuildCandidates(employees, ratings), nil
}

func (s *service) GetEmployeeSkillAnalysis(ctx context.Context, deliverableID, employeeID string) (SkillAnalysis, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("employee skill analysis requested",
		zap.String("request_id", rid),
		zap.String("deliverable_id", deliverableID),
		zap.String("employee_id", employeeID),
	)

	if _, err := uuid.Parse(deliverableID); err != nil {
		return SkillAnalysis{}, recommendationerrors.ErrDeliverableNotFound
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return SkillAnalysis{}, recommendationerrors.ErrEmployeeNotFound
	}

	scope := fmt.Sprintf("analysis:%s:%s", deliverableID, employeeID)
	return fetch(ctx, s.cache, scope, func(ctx context.Context) (SkillAnalysis, error) {
		d, err := s.repo.FindDeliverable(ctx, deliverableID)
		if err != nil {
			return SkillAnalysis{}, s.notFound(err, recommendationerrors.ErrDeliverableNotFound, "find deliverable failed")
		}

		emp, err := s.repo.FindEmployee(ctx, employeeID)
		if err != nil {
			return SkillAnalysis{}, s.notFound(err, recommendationerrors.ErrEmployeeNotFound, "find employee failed")
		}

		requirements, err := s.repo.ListRequirements(ctx, d.ID)
		if err != nil {
			s.logger.Error("list requirements failed", zap.Error(err))
			return SkillAnalysis{}, err
		}

		ratings, err := s.repo.ListApprovedRatings(ctx, skillIDs(requirements), emp.ID)
		if err != nil {
			s.logger.Error("list approved ratings failed", zap.Error(err))
			return SkillAnalysis{}, err
		}

		candidates := BuildCandidates([]EmployeeRow{*emp}, ratings)
		score := Evaluate(requirements, candidates[0])

		s.logger.Info("employee skill analysis success",
			zap.String("request_id", rid),
			zap.String("employee_id", employeeID),
			zap.Float64("skill_index", score.TotalSkillIndex),
		)

		return SkillAnalysis{
			Employee: AnalysisEmployee{
				ID:         emp.ID.String(),
				UserID:     emp.UserID.String(),
				Name:       emp.Fullname,
				Email:      emp.Email,
				Department: emp.DepartmentName,
			},
			Deliverable: AnalysisDeliverable{
				ID:          d.ID.String(),
				Name:        d.Name,
				Description: d.Description,
			},
			TotalSkillIndex:    round2(score.TotalSkillIndex),
			CoveragePercentage: round2(score.CoveragePercentage),
			SkillBreakdown:     mapMatches(score.SkillMatches),
			MissingSkills:      score.MissingSkills,
		}, nil
	})
}

func (s *service) GetProjectRecommendations(ctx context.Context, projectID string, topK int) (ProjectRecommendations, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("project recommendations requested",
		zap.String("request_id", rid),
		zap.String("project_id", projectID),
		zap.Int("top_k", topK),
	)

	if !ValidTopK(topK) {
		return ProjectRecommendations{}, recommendationerrors.ErrInvalidTopK
	}
	if _, err := uuid.Parse(projectID); err != nil {
		return ProjectRecommendations{}, recommendationerrors.ErrProjectNotFound
	}

	scope := fmt.Sprintf("project:%s:%d", projectID, topK)
	resp, err := fetch(ctx, s.cache, scope, func(ctx context.Context) (ProjectRecommendations, error) {
		return s.projectRecommendations(ctx, projectID, topK)
	})
	if err != nil {
		return ProjectRecommendations{}, err
	}

	s.logger.Info("project recommendations success",
		zap.String("request_id", rid),
		zap.String("project_id", projectID),
		zap.Int("deliverables", resp.DeliverablesWithRecommendations),
	)
	return resp, nil
}

func (s *service) projectRecommendations(ctx context.Context, projectID string, topK int) (ProjectRecommendations, error) {
	p, err := s.repo.FindProject(ctx, projectID)
	if err != nil {
		return ProjectRecommendations{}, s.notFound(err, recommendationerrors.ErrProjectNotFound, "find project failed")
	}

	deliverables, err := s.repo.ListDeliverables(ctx, p.ID)
	if err != nil {
		s.logger.Error("list deliverables failed", zap.String("project_id", projectID), zap.Error(err))
		return ProjectRecommendations{}, err
	}
	if len(deliverables) == 0 {
		s.logger.Warn("project has no deliverables", zap.String("project_id", projectID))
		return ProjectRecommendations{}, recommendationerrors.ErrNoDeliverables
	}

	resp := ProjectRecommendations{
		ProjectID:         p.ID.String(),
		ProjectName:       p.Name,
		TotalDeliverables: len(deliverables),
		Recommendations:   []ProjectDeliverableRecommendations{},
	}

	for _, d := range deliverables {
		ranked, err := s.rankDeliverable(ctx, d, topK)
		if errors.Is(err, recommendationerrors.ErrNoRequiredSkills) {
			continue
		}
		if err != nil {
			return ProjectRecommendations{}, err
		}

		resp.Recommendations = append(resp.Recommendations, ProjectDeliverableRecommendations{
			DeliverableID:          d.ID.String(),
			DeliverableName:        d.Name,
			DeliverableDescription: d.Description,
			RequiredSkillsCount:    ranked.RequiredSkillsCount,
			TopRecommendations:     ranked.TopEmployees,
		})
	}
	resp.DeliverablesWithRecommendations = len(resp.Recommendations)

	return resp, nil
}

func (s *service) ExportProjectRecommendations(ctx context.Context, projectID string, topK int) (Export, error) {
	resp, err := s.GetProjectRecommendations(ctx, projectID, topK)
	if err != nil {
		return Export{}, err
	}

	data, err := BuildWorkbook(resp)
	if err != nil {
		s.logger.Error("build recommendation workbook failed", zap.String("project_id", projectID), zap.Error(err))
		return Export{}, err
	}

	return Export{
		Filename: fmt.Sprintf("recommendations-%s.xlsx", resp.ProjectID),
		Data:     data,
	}, nil
}

func (s *service) notFound(err error, target error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	s.logger.Error(msg, zap.Error(err))
	return err
}

func skillIDs(requirements []Requirement) []uuid.UUID {
	ids := make([]uuid.UUID, len(requirements))
	for i, r := range requirements {
		ids[i] = r.SkillID
	}
	return ids
}

func mapMatches(matches []SkillMatch) []SkillMatchResponse {
	out := make([]SkillMatchResponse, len(matches))
	for i, m := range matches {
		out[i] = SkillMatchResponse{
			SkillID:        m.SkillID.String(),
			SkillName:      m.SkillName,
			RequiredWeight: m.RequiredWeight,
			EmployeeRating: m.EmployeeRating,
			Contribution:   round2(m.Contribution),
		}
	}
	return out
}

func mapRecommendation(sc Score) EmployeeRecommendation {
	return EmployeeRecommendation{
		EmployeeID:         sc.Employee.ID.String(),
		EmployeeUserID:     sc.Employee.UserID.String(),
		EmployeeName:       sc.Employee.Fullname,
		DepartmentName:     sc.Employee.DepartmentName,
		TotalSkillIndex:    round2(sc.TotalSkillIndex),
		CoveragePercentage: round2(sc.CoveragePercentage),
		SkillMatches:       mapMatches(sc.SkillMatches),
		MissingSkills:      sc.MissingSkills,
	}
}
