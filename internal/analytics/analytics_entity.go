package analytics

import (
	"time"

	"github.com/google/uuid"
)

const (
	statusPending  = "PENDING"
	statusApproved = "APPROVED"
	statusEdited   = "EDITED"

	dashboardWindowDays = 30
	dayLayout           = "2006-01-02"
)

type EmployeeRow struct {
	ID             uuid.UUID
	Fullname       string
	DepartmentName string
}

type SkillRow struct {
	ID          uuid.UUID
	Name        string
	Description *string
}

type RatingRow struct {
	EmployeeID     uuid.UUID
	SkillID        uuid.UUID
	SkillName      string
	SelfRating     int
	ApprovedRating *int
	Status         string
	UpdatedAt      time.Time
}

// CurrentRating is the approved value when there is one, else the self
// rating.
func (r RatingRow) CurrentRating() int {
	if r.ApprovedRating != nil {
		return *r.ApprovedRating
	}
	return r.SelfRating
}

// LogRow is one audit entry joined with the user who made the change.
type LogRow struct {
	SkillID        uuid.UUID
	PreviousRating *int
	NewRating      int
	ChangeType     string
	Comment        *string
	ChangedAt      time.Time
	ChangedBy      *uuid.UUID
	ReviewerEmail  *string
	ReviewerName   *string
}
