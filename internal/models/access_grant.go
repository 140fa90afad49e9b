package models

import "time"

// AccessLevel is an ordered permission tier; higher levels imply lower ones.
type AccessLevel string

const (
	AccessLevelView    AccessLevel = "view"
	AccessLevelSelect  AccessLevel = "select"
	AccessLevelContact AccessLevel = "contact"
)

var accessLevelRank = map[AccessLevel]int{
	AccessLevelView:    1,
	AccessLevelSelect:  2,
	AccessLevelContact: 3,
}

// Valid reports whether the level is one of the known tiers.
func (l AccessLevel) Valid() bool {
	_, ok := accessLevelRank[l]
	return ok
}

// Satisfies reports whether l grants at least the required tier.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	have, ok := accessLevelRank[l]
	if !ok {
		return false
	}
	need, ok := accessLevelRank[required]
	if !ok {
		return false
	}
	return have >= need
}

// AccessGrant is the permission a company holds over a pool.
type AccessGrant struct {
	ID          string      `db:"id" json:"id"`
	PoolID      string      `db:"pool_id" json:"pool_id"`
	CompanyID   string      `db:"company_id" json:"company_id"`
	AccessLevel AccessLevel `db:"access_level" json:"access_level"`
	GrantedBy   string      `db:"granted_by" json:"granted_by"`
	GrantedAt   time.Time   `db:"granted_at" json:"granted_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	ExpiresAt   *time.Time  `db:"expires_at" json:"expires_at,omitempty"`
	Notes       *string     `db:"notes" json:"notes,omitempty"`
}

// ExpiredAt reports whether the grant had lapsed at the given instant.
func (g *AccessGrant) ExpiredAt(now time.Time) bool {
	return g != nil && g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

// AccessGrantDetail adds pool descriptors for company-facing listings.
type AccessGrantDetail struct {
	AccessGrant
	PoolName   string     `db:"pool_name" json:"pool_name"`
	PoolType   PoolType   `db:"pool_type" json:"pool_type"`
	PoolStatus PoolStatus `db:"pool_status" json:"pool_status"`
}
