package dto

// AddCandidatesRequest adds a batch of candidates to a pool with shared attributes.
type AddCandidatesRequest struct {
	CandidateIDs []string `json:"candidate_ids" validate:"required,min=1,dive,required,max=64"`
	Priority     int      `json:"priority"`
	Featured     bool     `json:"featured"`
	Notes        *string  `json:"notes" validate:"omitempty,max=2000"`
}

// UpdatePriorityRequest sets an assignment's ordering priority.
type UpdatePriorityRequest struct {
	Priority *int `json:"priority" validate:"required"`
}

// ListAssignmentsQuery captures assignment list filters.
type ListAssignmentsQuery struct {
	FeaturedOnly bool `form:"featured"`
	Page         int  `form:"page" validate:"omitempty,min=1"`
	PageSize     int  `form:"page_size" validate:"omitempty,min=1,max=100"`
}
