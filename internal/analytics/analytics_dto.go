package analytics

type Reviewer struct {
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

type HistoryEntry struct {
	Date           string    `json:"date"`
	Rating         int       `json:"rating"`
	PreviousRating *int      `json:"previous_rating"`
	ChangeType     string    `json:"change_type"`
	Comment        *string   `json:"comment"`
	ReviewedBy     *Reviewer `json:"reviewed_by"`
}

type SkillProgress struct {
	SkillID       string         `json:"skill_id"`
	SkillName     string         `json:"skill_name"`
	CurrentRating int            `json:"current_rating"`
	Status        string         `json:"status"`
	History       []HistoryEntry `json:"history"`
}

type EmployeeProgressResponse struct {
	EmployeeID string          `json:"employee_id"`
	Fullname   string          `json:"fullname"`
	Department string          `json:"department"`
	Skills     []SkillProgress `json:"skills"`
}

type EmployeeOverview struct {
	ID             string  `json:"id"`
	Fullname       string  `json:"fullname"`
	Department     string  `json:"department"`
	TotalSkills    int     `json:"total_skills"`
	ApprovedSkills int     `json:"approved_skills"`
	PendingSkills  int     `json:"pending_skills"`
	AverageRating  float64 `json:"average_rating"`
	LastUpdated    *string `json:"last_updated"`
}

type TimelineEmployee struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
}

type TimelineSkill struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type TimelineResponse struct {
	Employee         TimelineEmployee `json:"employee"`
	Skill            TimelineSkill    `json:"skill"`
	CurrentRating    int              `json:"current_rating"`
	Status           string           `json:"status"`
	Timeline         []HistoryEntry   `json:"timeline"`
	TotalImprovement int              `json:"total_improvement"`
	DurationDays     int              `json:"duration_days"`
}

type ActivityPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DashboardStats struct {
	ActiveProjects     int64           `json:"active_projects"`
	TotalEmployees     int64           `json:"total_employees"`
	PendingAssignments int64           `json:"pending_assignments"`
	NewSkills          int64           `json:"new_skills"`
	ActivityGraphData  []ActivityPoint `json:"activity_graph_data"`
}
