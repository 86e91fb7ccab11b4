// Package domain defines the canonical service interfaces shared across the
// API, websocket and client layers. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/adminkit/toggle/internal/models"
)

// Resource is one registered resource type bound to its record store.
type Resource interface {
	Key() string
	SingularLabel() string
	Schema() *models.Schema
	// FindByID returns models.ErrRecordNotFound when no record has id.
	FindByID(ctx context.Context, id string) (*models.Record, error)
	// Save persists the named attribute of rec.
	Save(ctx context.Context, rec *models.Record, attribute string) error
}

// ResourceRegistry resolves resource keys.
type ResourceRegistry interface {
	Resource(key string) (Resource, bool)
}

// RecordStore reads and writes records of any registered schema.
type RecordStore interface {
	FindRecord(ctx context.Context, schema *models.Schema, id string) (*models.Record, error)
	UpdateAttribute(ctx context.Context, schema *models.Schema, rec *models.Record, attribute string) error
}

// ToggleService flips boolean attributes.
type ToggleService interface {
	Toggle(ctx context.Context, authz *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error)
}

// FieldService computes presenter descriptors.
type FieldService interface {
	Describe(ctx context.Context, authz *models.AuthContext, resource, id, attribute string) (*models.FieldDescriptor, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
type Auditor interface {
	RecordAudit(ctx context.Context, entry models.AuditEntry) error
}

// Broadcaster publishes toggle events to live subscribers.
type Broadcaster interface {
	BroadcastToggle(ev models.ToggleEvent)
}
