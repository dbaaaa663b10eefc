package skillrating

type SubmitRatingRequest struct {
	SkillID    string `json:"skill_id" binding:"required,uuid"`
	SelfRating int    `json:"self_rating"`
}

type UpdateRatingRequest struct {
	SelfRating int `json:"self_rating"`
}

type ReviewRatingRequest struct {
	Action         string  `json:"action" binding:"required,oneof=APPROVE EDIT REJECT"`
	ApprovedRating *int    `json:"approved_rating"`
	Comment        *string `json:"comment" binding:"omitempty,max=1000"`
}

type RatingResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	SkillID        string  `json:"skill_id"`
	SelfRating     int     `json:"self_rating"`
	ApprovedRating *int    `json:"approved_rating"`
	Status         string  `json:"status"`
	ReviewedBy     *string `json:"reviewed_by"`
	ReviewedAt     *string `json:"reviewed_at"`
	ReviewComment  *string `json:"review_comment"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type RatingDetailResponse struct {
	RatingResponse
	SkillName     string  `json:"skill_name"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	EmployeeEmail string  `json:"employee_email,omitempty"`
	ReviewerEmail *string `json:"reviewer_email,omitempty"`
}
