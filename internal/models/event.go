package models

import "time"

// Domain event types published after a successful commit.
const (
	EventCandidatesAdded   = "pool.candidates_added"
	EventCandidateRemoved  = "pool.candidate_removed"
	EventAccessGranted     = "pool.access_granted"
	EventAccessRevoked     = "pool.access_revoked"
	EventSelectionRecorded = "pool.selection_recorded"
)

// PoolEvent is the envelope written to the event stream.
type PoolEvent struct {
	EventID      string                 `json:"event_id"`
	EventType    string                 `json:"event_type"`
	EventVersion string                 `json:"event_version"`
	PoolID       string                 `json:"pool_id"`
	ActorID      string                 `json:"actor_id,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Payload      map[string]interface{} `json:"payload"`
}
