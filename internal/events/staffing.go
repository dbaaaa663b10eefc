package events

import "time"

const (
	StaffingTopic = "staffing.assignment.lifecycle.v1"
	ProjectTopic  = "staffing.project.lifecycle.v1"
)

const (
	EventAssignmentApproved       = "assignment_approved"
	EventProjectCompleted         = "project_completed"
	EventProjectDeleted           = "project_deleted"
	EventDeliverableSkillsChanged = "deliverable_skills_changed"
)

type AssignmentApprovedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	AssignmentID  string    `json:"assignment_id"`
	EmployeeID    string    `json:"employee_id"`
	ProjectID     string    `json:"project_id"`
	DeliverableID string    `json:"deliverable_id"`
	ApprovedBy    string    `json:"approved_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ProjectCompletedEvent struct {
	EventType           string    `json:"event_type"`
	RequestID           string    `json:"request_id,omitempty"`
	ProjectID           string    `json:"project_id"`
	ReleasedAssignments int64     `json:"released_assignments"`
	OccurredAt          time.Time `json:"occurred_at"`
}

type ProjectDeletedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	ProjectID  string    `json:"project_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type DeliverableSkillsChangedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	DeliverableID string    `json:"deliverable_id"`
	SkillID       string    `json:"skill_id"`
	Change        string    `json:"change"` // added, updated, removed, deliverable_removed
	OccurredAt    time.Time `json:"occurred_at"`
}

// Envelope is the subset every event payload carries.
type Envelope struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
