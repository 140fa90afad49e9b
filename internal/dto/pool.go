package dto

import "github.com/noah-isme/talent-pool-api/internal/models"

// CreatePoolRequest describes the payload for creating a pool.
type CreatePoolRequest struct {
	Name          string                `json:"name" validate:"required,max=200"`
	Description   *string               `json:"description" validate:"omitempty,max=2000"`
	PoolType      models.PoolType       `json:"pool_type" validate:"omitempty,oneof=main custom featured premium"`
	Status        models.PoolStatus     `json:"status" validate:"omitempty,oneof=active inactive archived"`
	MaxCandidates *int                  `json:"max_candidates" validate:"omitempty,min=0"`
	Visibility    models.PoolVisibility `json:"visibility" validate:"omitempty,oneof=public private restricted"`
	Tags          []string              `json:"tags" validate:"omitempty,max=50,dive,required,max=64"`
}

// UpdatePoolRequest is a partial update; nil fields are left unchanged.
// ClearMaxCandidates removes the ceiling and takes precedence over MaxCandidates.
type UpdatePoolRequest struct {
	Name               *string                `json:"name" validate:"omitempty,max=200"`
	Description        *string                `json:"description" validate:"omitempty,max=2000"`
	PoolType           *models.PoolType       `json:"pool_type" validate:"omitempty,oneof=main custom featured premium"`
	Status             *models.PoolStatus     `json:"status" validate:"omitempty,oneof=active inactive archived"`
	MaxCandidates      *int                   `json:"max_candidates" validate:"omitempty,min=0"`
	ClearMaxCandidates bool                   `json:"clear_max_candidates"`
	Visibility         *models.PoolVisibility `json:"visibility" validate:"omitempty,oneof=public private restricted"`
	Tags               []string               `json:"tags" validate:"omitempty,max=50,dive,required,max=64"`
}

// ListPoolsQuery captures pool list filters from the query string.
type ListPoolsQuery struct {
	Status     string `form:"status" validate:"omitempty,oneof=active inactive archived"`
	PoolType   string `form:"type" validate:"omitempty,oneof=main custom featured premium"`
	Visibility string `form:"visibility" validate:"omitempty,oneof=public private restricted"`
	Search     string `form:"q" validate:"omitempty,max=200"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}
