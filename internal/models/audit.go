package models

import "time"

// AuditActionToggle is the action recorded for a toggle.
const AuditActionToggle = "toggle.update"

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	EventID    string         `json:"event_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Guard      string         `json:"guard,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	Resource   string
	ResourceID string
	ActorID    string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}
