// Package audit implements the best-effort audit sink: a non-blocking
// channel in front of an append-only log of state-changing requests.
package audit

import "time"

// Entry is one append-only audit record. ActorID is nullable so entries
// survive principal deletion.
type Entry struct {
	ID          int64          `json:"id"`
	ActorID     *int64         `json:"actor_id,omitempty"`
	Action      string         `json:"action"`
	Path        string         `json:"path"`
	ObjectID    string         `json:"object_id,omitempty"`
	Description string         `json:"description,omitempty"`
	IP          string         `json:"ip"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Changes     map[string]any `json:"changes,omitempty"`
	At          time.Time      `json:"at"`
}
