package deliverable

type CreateDeliverableRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

type UpdateDeliverableRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type AddSkillRequest struct {
	SkillID string   `json:"skill_id" binding:"required,uuid"`
	Weight  *float64 `json:"weight" binding:"required"`
}

type UpdateWeightRequest struct {
	Weight *float64 `json:"weight" binding:"required"`
}

type DeliverableResponse struct {
	ID                  string                  `json:"id"`
	ProjectID           string                  `json:"project_id"`
	Name                string                  `json:"name"`
	Description         *string                 `json:"description"`
	RequiredSkills      []RequiredSkillResponse `json:"required_skills,omitempty"`
	RequiredSkillsCount int64                   `json:"required_skills_count"`
	ActiveAssignments   int64                   `json:"active_assignments"`
	PendingRequests     int64                   `json:"pending_requests"`
	CreatedAt           string                  `json:"created_at"`
}

type RequiredSkillResponse struct {
	DeliverableID    string  `json:"deliverable_id"`
	SkillID          string  `json:"skill_id"`
	SkillName        string  `json:"skill_name"`
	SkillDescription *string `json:"skill_description,omitempty"`
	Weight           float64 `json:"weight"`
}
