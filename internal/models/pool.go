package models

import (
	"time"

	"github.com/lib/pq"
)

// PoolType classifies a pool.
type PoolType string

const (
	PoolTypeMain     PoolType = "main"
	PoolTypeCustom   PoolType = "custom"
	PoolTypeFeatured PoolType = "featured"
	PoolTypePremium  PoolType = "premium"
)

// PoolStatus tracks the lifecycle of a pool.
type PoolStatus string

const (
	PoolStatusActive   PoolStatus = "active"
	PoolStatusInactive PoolStatus = "inactive"
	PoolStatusArchived PoolStatus = "archived"
)

// PoolVisibility controls who may discover a pool.
type PoolVisibility string

const (
	PoolVisibilityPublic     PoolVisibility = "public"
	PoolVisibilityPrivate    PoolVisibility = "private"
	PoolVisibilityRestricted PoolVisibility = "restricted"
)

// Pool is a named, optionally capacity-bounded grouping of candidates.
type Pool struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Description   *string        `db:"description" json:"description,omitempty"`
	PoolType      PoolType       `db:"pool_type" json:"pool_type"`
	Status        PoolStatus     `db:"status" json:"status"`
	MaxCandidates *int           `db:"max_candidates" json:"max_candidates,omitempty"`
	Visibility    PoolVisibility `db:"visibility" json:"visibility"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	CreatedBy     string         `db:"created_by" json:"created_by"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// IsMain reports whether the pool is the protected deployment-wide pool.
func (p *Pool) IsMain() bool {
	return p != nil && p.PoolType == PoolTypeMain
}

// Bounded reports whether the pool carries a capacity ceiling.
func (p *Pool) Bounded() bool {
	return p != nil && p.MaxCandidates != nil
}

// PoolFilter captures list criteria for pools.
type PoolFilter struct {
	Status     PoolStatus
	PoolType   PoolType
	Visibility PoolVisibility
	Search     string
	Page       int
	PageSize   int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
