package project

import "go-skillmatrix/internal/deliverable"

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description" binding:"omitempty,max=5000"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PLANNED ACTIVE COMPLETED"`
}

type ProjectResponse struct {
	ID                string                            `json:"id"`
	Name              string                            `json:"name"`
	Description       *string                           `json:"description"`
	Status            string                            `json:"status"`
	StartDate         *string                           `json:"start_date"`
	EndDate           *string                           `json:"end_date"`
	DeliverablesCount int64                             `json:"deliverables_count"`
	Deliverables      []deliverable.DeliverableResponse `json:"deliverables,omitempty"`
	CreatedAt         string                            `json:"created_at"`
	UpdatedAt         string                            `json:"updated_at"`
}

type StatusResponse struct {
	ProjectResponse
	ReleasedAssignments int64 `json:"released_assignments"`
}

type AnalyzedDeliverable struct {
	deliverable.DeliverableResponse
	AssignedSkills []deliverable.RequiredSkillResponse `json:"assigned_skills"`
}

type AnalyzeResponse struct {
	ProjectID           string                `json:"project_id"`
	DeliverablesCreated int                   `json:"deliverables_created"`
	Deliverables        []AnalyzedDeliverable `json:"deliverables"`
}
