package dto

import (
	"time"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

// GrantAccessRequest creates or replaces a company's grant on a pool.
type GrantAccessRequest struct {
	CompanyID   string             `json:"company_id" validate:"required,max=64"`
	AccessLevel models.AccessLevel `json:"access_level" validate:"required,oneof=view select contact"`
	ExpiresAt   *time.Time         `json:"expires_at"`
	Notes       *string            `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAccessRequest patches an existing grant. ClearExpiry makes the grant permanent.
type UpdateAccessRequest struct {
	AccessLevel *models.AccessLevel `json:"access_level" validate:"omitempty,oneof=view select contact"`
	ExpiresAt   *time.Time          `json:"expires_at"`
	ClearExpiry bool                `json:"clear_expiry"`
	Notes       *string             `json:"notes" validate:"omitempty,max=2000"`
}
