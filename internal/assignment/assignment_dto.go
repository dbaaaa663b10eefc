package assignment

type CreateRequestRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
}

type ReviewRequestRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
}

type RequestResponse struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	DeliverableID string  `json:"deliverable_id"`
	EmployeeID    string  `json:"employee_id"`
	RequestedBy   string  `json:"requested_by"`
	Status        string  `json:"status"`
	ReviewedBy    *string `json:"reviewed_by"`
	ReviewedAt    *string `json:"reviewed_at"`
	CreatedAt     string  `json:"created_at"`
}

type PendingRequestResponse struct {
	ID              string `json:"id"`
	ProjectID       string `json:"project_id"`
	ProjectName     string `json:"project_name"`
	DeliverableID   string `json:"deliverable_id"`
	DeliverableName string `json:"deliverable_name"`
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name"`
	EmployeeEmail   string `json:"employee_email"`
	RequestedBy     string `json:"requested_by"`
	RequesterEmail  string `json:"requester_email"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type ReviewResponse struct {
	Request    RequestResponse     `json:"request"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
}

type AssignmentResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	ProjectID       string  `json:"project_id"`
	ProjectName     string  `json:"project_name,omitempty"`
	ProjectStatus   string  `json:"project_status,omitempty"`
	DeliverableID   string  `json:"deliverable_id"`
	DeliverableName string  `json:"deliverable_name,omitempty"`
	Active          bool    `json:"active"`
	AssignedAt      string  `json:"assigned_at"`
	ReleasedAt      *string `json:"released_at"`
}
