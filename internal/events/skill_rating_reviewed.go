package events

import "time"

const SkillRatingTopic = "skills.rating.lifecycle.v1"

const EventSkillRatingReviewed = "skill_rating_reviewed"

type SkillRatingReviewedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	RatingID       string    `json:"rating_id"`
	EmployeeID     string    `json:"employee_id"`
	SkillID        string    `json:"skill_id"`
	Status         string    `json:"status"`
	ApprovedRating *int      `json:"approved_rating,omitempty"`
	ReviewedBy     string    `json:"reviewed_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}
