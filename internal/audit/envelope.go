package audit

import (
	"fmt"
	"time"

	"github.com/adminkit/toggle/internal/models"
)

// EventTypeToggleUpdated is the envelope type for a toggle audit entry.
const EventTypeToggleUpdated = "toggle.updated"

// Meta identifies a published audit event.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
}

// Envelope wraps an audit entry for external consumers.
type Envelope struct {
	Meta Meta              `json:"meta"`
	Data models.AuditEntry `json:"data"`
}

// NewEnvelope builds the envelope for entry. The entry's event id becomes the
// envelope id and its creation time the occurrence time.
func NewEnvelope(entry models.AuditEntry) Envelope {
	occurred := entry.CreatedAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return Envelope{
		Meta: Meta{
			ID:         entry.EventID,
			Type:       EventTypeToggleUpdated,
			OccurredAt: occurred,
		},
		Data: entry,
	}
}

// RoutingKey returns the topic routing key for entry.
func RoutingKey(entry models.AuditEntry) string {
	return fmt.Sprintf("toggle.%s.updated", entry.Resource)
}
