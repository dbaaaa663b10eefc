package assignment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

const projectStatusActive = "ACTIVE"

type AssignmentRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProjectID     uuid.UUID  `gorm:"type:uuid;not null"`
	DeliverableID uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	RequestedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	Status        string     `gorm:"size:20;not null;default:PENDING"`
	ReviewedBy    *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt    *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (AssignmentRequest) TableName() string { return "assignment_requests" }

// EmployeeProjectAssignment is active while ReleasedAt is nil. An employee
// holds at most one active assignment.
type EmployeeProjectAssignment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliverableID uuid.UUID `gorm:"type:uuid;not null"`
	AssignedAt    time.Time `gorm:"not null"`
	ReleasedAt    *time.Time
}

func (EmployeeProjectAssignment) TableName() string { return "employee_project_assignments" }

type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Fullname  string
	ManagerID *uuid.UUID
}

// DeliverableRef is a deliverable with the status of its project.
type DeliverableRef struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	Name          string
	ProjectStatus string
}

type PendingRequestRow struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	ProjectName     string
	DeliverableID   uuid.UUID
	DeliverableName string
	EmployeeID      uuid.UUID
	EmployeeName    string
	EmployeeEmail   string
	RequestedBy     uuid.UUID
	RequesterEmail  string
	Status          string
	CreatedAt       time.Time
}

type AssignmentRow struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	ProjectID       uuid.UUID
	ProjectName     string
	ProjectStatus   string
	DeliverableID   uuid.UUID
	DeliverableName string
	AssignedAt      time.Time
	ReleasedAt      *time.Time
}
