package project

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPlanned   = "PLANNED"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
)

// statusOrder ranks the lifecycle. A project only moves one step forward.
var statusOrder = map[string]int{
	StatusPlanned:   0,
	StatusActive:    1,
	StatusCompleted: 2,
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:255;not null"`
	Description *string
	Status      string     `gorm:"size:20;not null;default:PLANNED"`
	StartDate   *time.Time `gorm:"type:date"`
	EndDate     *time.Time `gorm:"type:date"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }

// SummaryRow is a project with its deliverable count.
type SummaryRow struct {
	Project
	DeliverablesCount int64
}

// CanTransition reports whether a project may move from one status to the
// other. Staying put is allowed; going back or skipping a step is not.
func CanTransition(from, to string) bool {
	f, ok := statusOrder[from]
	if !ok {
		return false
	}
	t, ok := statusOrder[to]
	if !ok {
		return false
	}
	return t == f || t == f+1
}
