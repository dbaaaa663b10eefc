package recommendation

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

type SkillMatch struct {
	SkillID        uuid.UUID
	SkillName      string
	RequiredWeight float64
	EmployeeRating *int
	Contribution   float64
}

type Score struct {
	Employee           EmployeeRow
	TotalSkillIndex    float64
	CoveragePercentage float64
	SkillMatches       []SkillMatch
	MissingSkills      []string
}

// BuildCandidates groups ratings by employee. A rating counts only when it
// carries an approved value, whatever its status says, so EDITED ratings
// match and PENDING or REJECTED ones do not.
func BuildCandidates(employees []EmployeeRow, ratings []RatingRow) []Candidate {
	byEmployee := make(map[uuid.UUID]map[uuid.UUID]int, len(employees))
	for _, r := range ratings {
		if r.ApprovedRating == nil {
			continue
		}
		m, ok := byEmployee[r.EmployeeID]
		if !ok {
			m = make(map[uuid.UUID]int)
			byEmployee[r.EmployeeID] = m
		}
		m[r.SkillID] = *r.ApprovedRating
	}

	out := make([]Candidate, len(employees))
	for i, e := range employees {
		out[i] = Candidate{Employee: e, Ratings: byEmployee[e.ID]}
	}
	return out
}

// Evaluate computes the skill index and coverage of one candidate:
// index = sum(weight * approved rating), coverage = matched / required * 100.
func Evaluate(requirements []Requirement, c Candidate) Score {
	score := Score{
		Employee:      c.Employee,
		SkillMatches:  make([]SkillMatch, 0, len(requirements)),
		MissingSkills: []string{},
	}

	matched := 0
	for _, req := range requirements {
		m := SkillMatch{
			SkillID:        req.SkillID,
			SkillName:      req.SkillName,
			RequiredWeight: req.Weight,
		}
		if rating, ok := c.Ratings[req.SkillID]; ok {
			r := rating
			m.EmployeeRating = &r
			m.Contribution = req.Weight * float64(rating)
			score.TotalSkillIndex += m.Contribution
			matched++
		} else {
			score.MissingSkills = append(score.MissingSkills, req.SkillName)
		}
		score.SkillMatches = append(score.SkillMatches, m)
	}

	if len(requirements) > 0 {
		score.CoveragePercentage = float64(matched) / float64(len(requirements)) * 100
	}
	return score
}

// Rank scores every candidate, orders them by skill index descending and
// keeps the first topK. Equal indexes keep their input order.
func Rank(requirements []Requirement, candidates []Candidate, topK int) []Score {
	scores := make([]Score, len(candidates))
	for i, c := range candidates {
		scores[i] = Evaluate(requirements, c)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalSkillIndex > scores[j].TotalSkillIndex
	})

	if topK >= 0 && len(scores) > topK {
		scores = scores[:topK]
	}
	return scores
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
