package employee

import (
	"time"

	"github.com/google/uuid"
)

type EmployeeProfile struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	Fullname     string     `gorm:"size:255;not null"`
	DepartmentID uuid.UUID  `gorm:"type:uuid;not null"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (EmployeeProfile) TableName() string { return "employee_profiles" }

// EmployeeRow is a profile joined with its user, department and manager.
type EmployeeRow struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Fullname        string
	Email           string
	Role            string
	DepartmentID    uuid.UUID
	DepartmentName  string
	ManagerID       *uuid.UUID
	ManagerFullname *string
}
