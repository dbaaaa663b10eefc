package employee

type CreateEmployeeRequest struct {
	UserID       string `json:"user_id" binding:"required,uuid"`
	Fullname     string `json:"fullname" binding:"required,max=255"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

// AssignManagerRequest sets the direct manager; a null manager_id clears it.
type AssignManagerRequest struct {
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
}

type EmployeeResponse struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Fullname     string           `json:"fullname"`
	Email        string           `json:"email,omitempty"`
	Role         string           `json:"role,omitempty"`
	DepartmentID string           `json:"department_id"`
	Department   string           `json:"department,omitempty"`
	ManagerID    *string          `json:"manager_id"`
	Manager      *ManagerResponse `json:"manager,omitempty"`
}

type ManagerResponse struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
}
