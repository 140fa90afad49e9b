package dto

import "github.com/noah-isme/talent-pool-api/internal/models"

// RecordSelectionRequest records a company's disposition toward a pooled candidate.
// CompanyID may be omitted by company callers; it defaults to their own company.
type RecordSelectionRequest struct {
	CandidateID   string               `json:"candidate_id" validate:"required,max=64"`
	CompanyID     string               `json:"company_id" validate:"omitempty,max=64"`
	SelectionType models.SelectionType `json:"selection_type" validate:"required,oneof=interested shortlisted contacted rejected"`
}
