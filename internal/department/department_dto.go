package department

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=150"`
}

type DepartmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
