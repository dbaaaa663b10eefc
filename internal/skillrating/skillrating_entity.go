package skillrating

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusEdited   = "EDITED"
	StatusRejected = "REJECTED"
)

const (
	ChangeInitialRating   = "INITIAL_RATING"
	ChangeSelfUpdated     = "SELF_UPDATED"
	ChangeManagerApproved = "MANAGER_APPROVED"
	ChangeManagerEdited   = "MANAGER_EDITED"
	ChangeManagerRejected = "MANAGER_REJECTED"
)

const (
	ActionApprove = "APPROVE"
	ActionEdit    = "EDIT"
	ActionReject  = "REJECT"
)

const (
	MinRating = 1
	MaxRating = 5
)

type EmployeeSkill struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployeeID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_employee_skills_pair"`
	SkillID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_employee_skills_pair"`
	SelfRating     int        `gorm:"not null"`
	ApprovedRating *int
	Status         string     `gorm:"size:20;not null;default:PENDING"`
	ReviewedBy     *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt     *time.Time
	ReviewComment  *string
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (EmployeeSkill) TableName() string { return "employee_skills" }

// SkillProgressLog rows are written once and never changed.
type SkillProgressLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_progress_logs_pair"`
	SkillID        uuid.UUID `gorm:"type:uuid;not null;index:idx_skill_progress_logs_pair"`
	PreviousRating *int
	NewRating      int        `gorm:"not null"`
	ChangeType     string     `gorm:"size:30;not null"`
	ChangedBy      *uuid.UUID `gorm:"type:uuid"`
	Comment        *string
	ChangedAt      time.Time `gorm:"not null"`
}

func (SkillProgressLog) TableName() string { return "skill_progress_logs" }

// Profile is the slice of an employee profile the workflow needs.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Fullname  string
	ManagerID *uuid.UUID
}

// RatingRow is a rating joined with its skill and employee.
type RatingRow struct {
	ID               uuid.UUID
	EmployeeID       uuid.UUID
	EmployeeFullname string
	EmployeeEmail    string
	SkillID          uuid.UUID
	SkillName        string
	SelfRating       int
	ApprovedRating   *int
	Status           string
	ReviewedBy       *uuid.UUID
	ReviewerEmail    *string
	ReviewedAt       *time.Time
	ReviewComment    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}
