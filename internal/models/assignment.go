package models

import "time"

// Assignment is the membership of one candidate in one pool.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	PoolID      string    `db:"pool_id" json:"pool_id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	Priority    int       `db:"priority" json:"priority"`
	Featured    bool      `db:"featured" json:"featured"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	AddedBy     string    `db:"added_by" json:"added_by"`
	AddedAt     time.Time `db:"added_at" json:"added_at"`
}

// AssignmentFilter scopes assignment listings within a pool.
type AssignmentFilter struct {
	FeaturedOnly bool
	Page         int
	PageSize     int
}

// AddResult reports the outcome of a batch add.
type AddResult struct {
	Added        []Assignment `json:"added"`
	Count        int          `json:"count"`
	Ceiling      *int         `json:"ceiling,omitempty"`
	NearCapacity bool         `json:"near_capacity"`
	Warning      string       `json:"warning,omitempty"`
}

// CapacityExceededDetail is attached to CAPACITY_EXCEEDED errors.
type CapacityExceededDetail struct {
	Current   int `json:"current"`
	Ceiling   int `json:"ceiling"`
	Requested int `json:"requested"`
	Available int `json:"available"`
}

// CapacityConflictDetail is attached to CAPACITY_CONFLICT errors.
type CapacityConflictDetail struct {
	Current          int `json:"current"`
	RequestedCeiling int `json:"requested_ceiling"`
}

// DuplicateAssignmentDetail lists the candidates that blocked a batch.
type DuplicateAssignmentDetail struct {
	CandidateIDs []string `json:"candidate_ids"`
}
