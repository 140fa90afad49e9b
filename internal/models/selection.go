package models

import "time"

// SelectionType is a company's disposition toward a pooled candidate.
type SelectionType string

const (
	SelectionInterested  SelectionType = "interested"
	SelectionShortlisted SelectionType = "shortlisted"
	SelectionContacted   SelectionType = "contacted"
	SelectionRejected    SelectionType = "rejected"
)

// SelectionTypes lists every disposition in display order.
var SelectionTypes = []SelectionType{
	SelectionInterested,
	SelectionShortlisted,
	SelectionContacted,
	SelectionRejected,
}

// Valid reports whether the type is known.
func (t SelectionType) Valid() bool {
	switch t {
	case SelectionInterested, SelectionShortlisted, SelectionContacted, SelectionRejected:
		return true
	}
	return false
}

// RequiredLevel returns the access tier needed to record this disposition.
func (t SelectionType) RequiredLevel() AccessLevel {
	if t == SelectionContacted {
		return AccessLevelContact
	}
	return AccessLevelSelect
}

// Selection records one company's disposition toward one candidate within a pool.
type Selection struct {
	ID            string        `db:"id" json:"id"`
	PoolID        string        `db:"pool_id" json:"pool_id"`
	CandidateID   string        `db:"candidate_id" json:"candidate_id"`
	CompanyID     string        `db:"company_id" json:"company_id"`
	SelectionType SelectionType `db:"selection_type" json:"selection_type"`
	RecordedBy    string        `db:"recorded_by" json:"recorded_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
	UnpooledAt    *time.Time    `db:"unpooled_at" json:"unpooled_at,omitempty"`
}
