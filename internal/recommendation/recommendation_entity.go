package recommendation

import "github.com/google/uuid"

const (
	DefaultTopK = 5
	MaxTopK     = 1000
)

// Requirement is one weighted skill a deliverable asks for.
type Requirement struct {
	SkillID   uuid.UUID
	SkillName string
	Weight    float64
}

type DeliverableRow struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description *string
}

type ProjectRow struct {
	ID   uuid.UUID
	Name string
}

type EmployeeRow struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Fullname       string
	Email          string
	DepartmentName string
}

// RatingRow carries only the approved side of an employee skill. Rows
// without an approved rating are never loaded.
type RatingRow struct {
	EmployeeID     uuid.UUID
	SkillID        uuid.UUID
	Status         string
	ApprovedRating *int
}

// Candidate is an employee together with the approved ratings that can
// count toward a match, keyed by skill id.
type Candidate struct {
	Employee EmployeeRow
	Ratings  map[uuid.UUID]int
}
