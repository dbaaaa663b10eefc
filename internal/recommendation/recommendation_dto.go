package recommendation

type SkillMatchResponse struct {
	SkillID        string  `json:"skill_id"`
	SkillName      string  `json:"skill_name"`
	RequiredWeight float64 `json:"required_weight"`
	EmployeeRating *int    `json:"employee_rating"`
	Contribution   float64 `json:"contribution"`
}

type EmployeeRecommendation struct {
	EmployeeID         string               `json:"employee_id"`
	EmployeeUserID     string               `json:"employee_user_id"`
	EmployeeName       string               `json:"employee_name"`
	DepartmentName     string               `json:"department_name"`
	TotalSkillIndex    float64              `json:"total_skill_index"`
	CoveragePercentage float64              `json:"coverage_percentage"`
	SkillMatches       []SkillMatchResponse `json:"skill_matches"`
	MissingSkills      []string             `json:"missing_skills"`
}

type DeliverableRecommendations struct {
	DeliverableID       string                   `json:"deliverable_id"`
	DeliverableName     string                   `json:"deliverable_name"`
	RequiredSkillsCount int                      `json:"required_skills_count"`
	TotalCandidates     int                      `json:"total_candidates"`
	TopK                int                      `json:"top_k"`
	TopEmployees        []EmployeeRecommendation `json:"top_employees"`
}

type ProjectDeliverableRecommendations struct {
	DeliverableID          string                   `json:"deliverable_id"`
	DeliverableName        string                   `json:"deliverable_name"`
	DeliverableDescription *string                  `json:"deliverable_description"`
	RequiredSkillsCount    int                      `json:"required_skills_count"`
	TopRecommendations     []EmployeeRecommendation `json:"top_recommendations"`
}

type ProjectRecommendations struct {
	ProjectID                       string                              `json:"project_id"`
	ProjectName                     string                              `json:"project_name"`
	TotalDeliverables               int                                 `json:"total_deliverables"`
	DeliverablesWithRecommendations int                                 `json:"deliverables_with_recommendations"`
	Recommendations                 []ProjectDeliverableRecommendations `json:"recommendations"`
}

type AnalysisEmployee struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type AnalysisDeliverable struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type SkillAnalysis struct {
	Employee           AnalysisEmployee     `json:"employee"`
	Deliverable        AnalysisDeliverable  `json:"deliverable"`
	TotalSkillIndex    float64              `json:"total_skill_index"`
	CoveragePercentage float64              `json:"coverage_percentage"`
	SkillBreakdown     []SkillMatchResponse `json:"skill_breakdown"`
	MissingSkills      []string             `json:"missing_skills"`
}
