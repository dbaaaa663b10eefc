// Package aiplanner asks a generative model to break a project into
// deliverables with weighted skill requirements drawn from the catalogue.
package aiplanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	aiplannererrors "go-skillmatrix/internal/aiplanner/errors"
	"go-skillmatrix/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator turns a prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Brief struct {
	Name        string
	Description string
}

type CatalogSkill struct {
	ID          uuid.UUID
	Name        string
	Description *string
}

type ProposedSkill struct {
	SkillID   uuid.UUID
	SkillName string
	Weight    float64
}

type Proposal struct {
	Name        string
	Description string
	Skills      []ProposedSkill
}

//go:generate mockgen -source=aiplanner.go -destination=mock/aiplanner_mock.go -package=mock
type Planner interface {
	Plan(ctx context.Context, brief Brief, catalog []CatalogSkill) ([]Proposal, error)
}

type planner struct {
	gen    Generator
	logger *zap.Logger
}

func NewPlanner(gen Generator, logger ...*zap.Logger) Planner {
	l := zap.L().Named("aiplanner")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("aiplanner")
	}
	return &planner{gen: gen, logger: l}
}

func (p *planner) Plan(ctx context.Context, brief Brief, catalog []CatalogSkill) ([]Proposal, error) {
	if len(catalog) == 0 {
		return nil, aiplannererrors.ErrNoSkills
	}
	if p.gen == nil {
		p.logger.Warn("ai planner has no generator configured")
		return nil, aiplannererrors.ErrAnalysisFailed
	}

	text, err := p.gen.Generate(ctx, BuildPrompt(brief, catalog))
	if err != nil {
		p.logger.Error("ai planner generate failed", zap.Error(err))
		return nil, wrapFailure(err)
	}

	answer, err := ParseAnswer(text)
	if err != nil {
		p.logger.Error("ai planner parse failed", zap.Error(err), zap.Int("length", len(text)))
		return nil, wrapFailure(err)
	}

	byName := make(map[string]CatalogSkill, len(catalog))
	for _, s := range catalog {
		byName[strings.ToLower(s.Name)] = s
	}

	proposals := make([]Proposal, 0, len(answer.Deliverables))
	for _, d := range answer.Deliverables {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}

		proposal := Proposal{Name: name, Description: strings.TrimSpace(d.Description)}
		for _, s := range d.Skills {
			known, ok := byName[strings.ToLower(strings.TrimSpace(s.SkillName))]
			if !ok {
				p.logger.Debug("ai planner skipped unknown skill", zap.String("skill", s.SkillName))
				continue
			}
			proposal.Skills = append(proposal.Skills, ProposedSkill{
				SkillID:   known.ID,
				SkillName: known.Name,
				Weight:    s.Weight,
			})
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}

func wrapFailure(err error) error {
	return apperror.Wrap(err, aiplannererrors.ErrAnalysisFailed.Code, aiplannererrors.ErrAnalysisFailed.Message,
		aiplannererrors.ErrAnalysisFailed.HTTPStatus)
}

// BuildPrompt lists the catalogue and asks for 3-5 deliverables with 2-4
// weighted skills each.
func BuildPrompt(brief Brief, catalog []CatalogSkill) string {
	var skills strings.Builder
	for _, s := range catalog {
		skills.WriteString("- ")
		skills.WriteString(s.Name)
		if s.Description != nil && *s.Description != "" {
			skills.WriteString(": ")
			skills.WriteString(*s.Description)
		}
		skills.WriteString("\n")
	}

	return fmt.Sprintf(`You are a project management assistant. Analyze this project and break it down into deliverables with skill requirements.

Project Name: %s
Project Description: %s

Available Skills in System:
%s
Instructions:
1. Break the project into 3-5 major deliverables
2. For each deliverable, assign 2-4 skills from the AVAILABLE SKILLS LIST ONLY
3. Assign weight (0.0 to 1.0) for each skill based on importance (1.0 = most critical)
4. Use ONLY the skill names exactly as listed above

Return a JSON response (no markdown, just raw JSON):
{
  "deliverables": [
    {
      "name": "Deliverable Name",
      "description": "Brief description",
      "skills": [
        { "skillName": "Exact Skill Name", "weight": 0.9 }
      ]
    }
  ]
}`, brief.Name, brief.Description, skills.String())
}

type Answer struct {
	Deliverables []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Skills      []struct {
			SkillName string  `json:"skillName"`
			Weight    float64 `json:"weight"`
		} `json:"skills"`
	} `json:"deliverables"`
}

var errNoJSON = errors.New("model answer holds no JSON object")

// ParseAnswer strips markdown fences and decodes the JSON object in text.
func ParseAnswer(text string) (Answer, error) {
	raw := strings.TrimSpace(text)
	if i := strings.Index(raw, "```"); i != -1 {
		raw = raw[i+3:]
		raw = strings.TrimPrefix(raw, "json")
		if j := strings.Index(raw, "```"); j != -1 {
			raw = raw[:j]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return Answer{}, errNoJSON
	}

	var answer Answer
	if err := json.Unmarshal([]byte(raw[start:end+1]), &answer); err != nil {
		return Answer{}, err
	}
	return answer, nil
}
