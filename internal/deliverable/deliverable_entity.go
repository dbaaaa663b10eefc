package deliverable

import (
	"time"

	"github.com/google/uuid"
)

type Deliverable struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_deliverables_project_name"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:uq_deliverables_project_name"`
	Description *string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Deliverable) TableName() string { return "deliverables" }

// DeliverableSkill is a weighted skill requirement. Weight is in [0, 1].
type DeliverableSkill struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeliverableID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_deliverable_skills_pair"`
	SkillID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_deliverable_skills_pair"`
	Weight        float64   `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (DeliverableSkill) TableName() string { return "deliverable_skills" }

// RequiredSkillRow is a requirement joined with its skill.
type RequiredSkillRow struct {
	DeliverableID    uuid.UUID
	SkillID          uuid.UUID
	SkillName        string
	SkillDescription *string
	Weight           float64
}

// SummaryRow is a deliverable with its requirement and assignment counts.
type SummaryRow struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	Name              string
	Description       *string
	RequiredSkills    int64
	ActiveAssignments int64
	PendingRequests   int64
	CreatedAt         time.Time
}

func ValidWeight(w float64) bool {
	return w >= 0 && w <= 1
}
