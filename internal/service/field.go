package service

import (
	"context"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/field"
	"github.com/adminkit/toggle/internal/models"
)

// FieldRegistry resolves resources and their toggle presenters.
type FieldRegistry interface {
	domain.ResourceRegistry
	Field(resource, attribute string) (*field.Toggle, bool)
}

// Compile-time check: *FieldService must satisfy domain.FieldService.
var _ domain.FieldService = (*FieldService)(nil)

// FieldService computes presenter descriptors for toggle fields.
type FieldService struct {
	registry FieldRegistry
	allowed  []string
}

// NewFieldService creates a FieldService.
func NewFieldService(registry FieldRegistry, allowed []string) *FieldService {
	return &FieldService{registry: registry, allowed: allowed}
}

// Describe returns the descriptor of attribute on the given record. Any
// authenticated viewer may describe a field; viewers outside the allowed
// guards see it read-only.
func (s *FieldService) Describe(
	ctx context.Context, authz *models.AuthContext, resource, id, attribute string,
) (*models.FieldDescriptor, error) {
	if _, ok := authz.Any(s.allowed); !ok {
		return nil, models.ErrUnauthorized
	}

	res, ok := s.registry.Resource(resource)
	if !ok {
		return nil, models.ErrResourceNotFound
	}

	rec, err := res.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if attribute == "" {
		return nil, models.ErrAttributeRequired
	}

	tg, ok := s.registry.Field(resource, attribute)
	if !ok {
		return nil, models.ErrUnknownAttribute
	}

	d := tg.Describe(s.allowed, authz, rec)

	return &d, nil
}
