package api

import (
	"github.com/adminkit/toggle/internal/domain"
)

// Repository interfaces used by API handlers, aliased from the canonical
// domain interfaces.
type (
	ToggleRepository   = domain.ToggleService
	FieldRepository    = domain.FieldService
	AuditRepository    = domain.AuditService
	ResourceRepository = domain.ResourceRegistry
)
