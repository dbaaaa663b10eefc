package aiplanner_test

import (
	"context"
	"errors"
	"testing"

	"go-skillmatrix/internal/aiplanner"
	aiplannererrors "go-skillmatrix/internal/aiplanner/errors"
	"go-skillmatrix/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func catalog() []aiplanner.CatalogSkill {
	desc := "Backend services"
	return []aiplanner.CatalogSkill{
		{ID: uuid.New(), Name: "Go", Description: &desc},
		{ID: uuid.New(), Name: "PostgreSQL"},
		{ID: uuid.New(), Name: "React"},
	}
}

func TestParseAnswer(t *testing.T) {
	const body = `{"deliverables":[{"name":"API","description":"REST","skills":[{"skillName":"Go","weight":0.9}]}]}`

	cases := map[string]string{
		"raw":         body,
		"json fence":  "```json\n" + body + "\n```",
		"plain fence": "```\n" + body + "\n```",
		"with prose":  "Here you go:\n" + body + "\nGood luck",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			answer, err := aiplanner.ParseAnswer(text)
			assert.NoError(t, err)
			if assert.Len(t, answer.Deliverables, 1) {
				assert.Equal(t, "API", answer.Deliverables[0].Name)
				assert.Equal(t, 0.9, answer.Deliverables[0].Skills[0].Weight)
			}
		})
	}

	_, err := aiplanner.ParseAnswer("I cannot help with that")
	assert.Error(t, err)
}

func TestPlanner_Plan(t *testing.T) {
	ctx := context.Background()

	t.Run("matches skills case-insensitively and drops unknown ones", func(t *testing.T) {
		skills := catalog()
		gen := &stubGenerator{text: "```json\n" + `{"deliverables":[
			{"name":"Backend","description":"API","skills":[
				{"skillName":"go","weight":0.9},
				{"skillName":"POSTGRESQL","weight":0.6},
				{"skillName":"Cobol","weight":0.4}]},
			{"name":"  ","skills":[]},
			{"name":"Frontend","skills":[{"skillName":"React","weight":1}]}
		]}` + "\n```"}

		proposals, err := aiplanner.NewPlanner(gen).Plan(ctx, aiplanner.Brief{Name: "Apollo", Description: "Portal"}, skills)

		assert.NoError(t, err)
		if assert.Len(t, proposals, 2) {
			assert.Equal(t, "Backend", proposals[0].Name)
			assert.Len(t, proposals[0].Skills, 2)
			assert.Equal(t, skills[0].ID, proposals[0].Skills[0].SkillID)
			assert.Equal(t, "PostgreSQL", proposals[0].Skills[1].SkillName)
			assert.Equal(t, "Frontend", proposals[1].Name)
		}
		assert.Contains(t, gen.prompt, "Project Name: Apollo")
		assert.Contains(t, gen.prompt, "- Go: Backend services")
		assert.Contains(t, gen.prompt, "- PostgreSQL\n")
	})

	t.Run("empty catalogue", func(t *testing.T) {
		_, err := aiplanner.NewPlanner(&stubGenerator{}).Plan(ctx, aiplanner.Brief{Name: "Apollo"}, nil)
		assert.ErrorIs(t, err, aiplannererrors.ErrNoSkills)
	})

	t.Run("generator failure", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("quota exceeded")}

		_, err := aiplanner.NewPlanner(gen).Plan(ctx, aiplanner.Brief{Name: "Apollo"}, catalog())

		assert.True(t, apperror.HasCode(err, apperror.CodeInternalError))
		assert.Equal(t, "Failed to analyze project with AI. Please try again.", apperror.ToHTTP(err).Message)
	})

	t.Run("unparseable answer", func(t *testing.T) {
		gen := &stubGenerator{text: "sorry"}

		_, err := aiplanner.NewPlanner(gen).Plan(ctx, aiplanner.Brief{Name: "Apollo"}, catalog())
		assert.True(t, apperror.HasCode(err, apperror.CodeInternalError))
	})

	t.Run("no generator configured", func(t *testing.T) {
		_, err := aiplanner.NewPlanner(nil).Plan(ctx, aiplanner.Brief{Name: "Apollo"}, catalog())
		assert.ErrorIs(t, err, aiplannererrors.ErrAnalysisFailed)
	})
}
