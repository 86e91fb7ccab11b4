// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/metrics"
	"github.com/adminkit/toggle/internal/models"
)

// Compile-time check: *ToggleService must satisfy domain.ToggleService.
var _ domain.ToggleService = (*ToggleService)(nil)

// ToggleOptions configures a ToggleService.
type ToggleOptions struct {
	// AllowedGuards is the any-of guard set a caller must satisfy.
	AllowedGuards []string
	// Strict rejects declared fields whose type is not boolean.
	Strict bool
}

// ToggleService flips one boolean attribute on one record.
type ToggleService struct {
	registry    domain.ResourceRegistry
	allowed     []string
	strict      bool
	auditWorker AuditEnqueuer
	broadcaster domain.Broadcaster
	log         *logrus.Logger
}

// NewToggleService creates a ToggleService. auditWorker and broadcaster may be nil.
func NewToggleService(
	registry domain.ResourceRegistry,
	opts ToggleOptions,
	auditWorker AuditEnqueuer,
	broadcaster domain.Broadcaster,
	log *logrus.Logger,
) *ToggleService {
	return &ToggleService{
		registry:    registry,
		allowed:     opts.AllowedGuards,
		strict:      opts.Strict,
		auditWorker: auditWorker,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Toggle authorizes the caller, resolves the record, negates the attribute,
// persists it and returns the new value with its display label.
//
// Checks run in a fixed order: authorization, resource, record, attribute.
// A failure at one step means later steps never run.
func (s *ToggleService) Toggle(
	ctx context.Context, authz *models.AuthContext, req models.ToggleRequest,
) (*models.ToggleResult, error) {
	res, err := s.toggle(ctx, authz, req)

	// Only registered keys become label values.
	resource := ""
	if _, ok := s.registry.Resource(req.Resource); ok {
		resource = req.Resource
	}

	metrics.MutationsTotal.WithLabelValues(resource, outcome(err)).Inc()

	return res, err
}

func (s *ToggleService) toggle(
	ctx context.Context, authz *models.AuthContext, req models.ToggleRequest,
) (*models.ToggleResult, error) {
	actor, ok := authz.SatisfiesAny(s.allowed)
	if !ok {
		return nil, models.ErrUnauthorized
	}

	resource, ok := s.registry.Resource(req.Resource)
	if !ok {
		return nil, models.ErrResourceNotFound
	}

	rec, err := resource.FindByID(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	if req.Attribute == "" {
		return nil, models.ErrAttributeRequired
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	schema := resource.Schema()

	ftype, declared := schema.Field(req.Attribute)
	if !declared {
		return nil, models.ErrUnknownAttribute
	}

	if s.strict && ftype != models.FieldBoolean {
		return nil, models.ErrAttributeNotBoolean
	}

	previous := rec.Get(req.Attribute)
	next := !previous.Truthy()

	rec.Set(req.Attribute, schema.Encode(req.Attribute, next))

	if err := resource.Save(ctx, rec, req.Attribute); err != nil {
		return nil, fmt.Errorf("saving %s/%s: %w", req.Resource, rec.ID, err)
	}

	label := ResolveLabel(rec, req.LabelKey, resource.SingularLabel())

	s.log.WithFields(logrus.Fields{
		"action":      models.AuditActionToggle,
		"resource":    resource.Key(),
		"resource_id": rec.ID,
		"attribute":   req.Attribute,
		"value":       next,
		"actor_id":    actor.ID,
		"guard":       actor.Guard,
	}).Info("audit")

	s.auditAsync(actor, resource.Key(), rec.ID, map[string]any{
		"attribute": req.Attribute,
		"from":      previous.Truthy(),
		"to":        next,
		"label":     label,
	})

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToggle(models.ToggleEvent{
			Resource:   resource.Key(),
			ResourceID: rec.ID,
			Attribute:  req.Attribute,
			Value:      next,
			Label:      label,
			ActorID:    actor.ID,
		})
	}

	return &models.ToggleResult{Success: true, Value: next, Label: label}, nil
}

// auditAsync enqueues an audit entry via the AuditWorker (best-effort, non-blocking).
func (s *ToggleService) auditAsync(actor *models.Actor, resource, resourceID string, detail map[string]any) {
	if s.auditWorker == nil {
		return
	}

	entry := models.AuditEntry{
		Action:     models.AuditActionToggle,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detail,
	}

	if actor != nil {
		entry.ActorID = actor.ID
		entry.Guard = actor.Guard
	}

	s.auditWorker.Enqueue(&AuditJob{Entry: entry})
}

// outcome maps a toggle error to a low-cardinality metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, models.ErrRecordNotFound):
		return "record_not_found"
	case errors.Is(err, models.ErrAttributeRequired):
		return "attribute_required"
	case errors.Is(err, models.ErrUnknownAttribute):
		return "unknown_attribute"
	case errors.Is(err, models.ErrAttributeNotBoolean):
		return "not_boolean"
	default:
		return "error"
	}
}
