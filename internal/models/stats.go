package models

import "time"

// SkillCount is one bucket of the skill-frequency histogram.
type SkillCount struct {
	Skill string `db:"skill" json:"skill"`
	Count int    `db:"count" json:"count"`
}

// SelectionTypeCount is a raw aggregate row.
type SelectionTypeCount struct {
	SelectionType SelectionType `db:"selection_type"`
	Count         int           `db:"count"`
}

// AssignmentCounts aggregates live assignments for a pool.
type AssignmentCounts struct {
	Total    int `db:"total" json:"total"`
	Featured int `db:"featured" json:"featured"`
}

// GrantCounts aggregates grants for a pool.
type GrantCounts struct {
	Total      int        `db:"total" json:"total"`
	Active     int        `db:"active" json:"active"`
	// NextExpiry is the earliest expiry among the active grants; Active drops then.
	NextExpiry *time.Time `db:"next_expiry" json:"-"`
}

// CapacityUsage describes how full a pool is.
type CapacityUsage struct {
	Ceiling        *int     `json:"ceiling,omitempty"`
	Used           int      `json:"used"`
	Available      *int     `json:"available,omitempty"`
	UtilizationPct *float64 `json:"utilization_pct,omitempty"`
	NearCapacity   bool     `json:"near_capacity"`
}

// PoolStats is the derived view over a pool.
type PoolStats struct {
	PoolID      string                `json:"pool_id"`
	Assignments AssignmentCounts      `json:"assignments"`
	Grants      GrantCounts           `json:"grants"`
	Capacity    CapacityUsage         `json:"capacity"`
	TopSkills   []SkillCount          `json:"top_skills"`
	Selections  map[SelectionType]int `json:"selections"`
}

// CompanyPoolStats scopes pool stats to one company.
type CompanyPoolStats struct {
	PoolStats
	CompanyID         string                `json:"company_id"`
	AccessLevel       *AccessLevel          `json:"access_level,omitempty"`
	CompanySelections map[SelectionType]int `json:"company_selections"`
}
