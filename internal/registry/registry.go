// Package registry maps resource keys to record schemas and their toggle
// fields, and carries the guard configuration the endpoint authorizes against.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/field"
	"github.com/adminkit/toggle/internal/models"
)

// Guard drivers.
const (
	DriverSession = "session"
	DriverAPIKey  = "api_key"
	DriverJWT     = "jwt"
)

// DefaultGuard is the guard allowed when none is configured.
const DefaultGuard = "web"

// Guards is the named-guard configuration.
type Guards struct {
	// Allowed is the any-of set the toggle endpoint checks, in order.
	Allowed []string
	// Drivers maps every defined guard name to its driver.
	Drivers map[string]string
}

// Registry is an immutable-after-load set of resources.
type Registry struct {
	guards    Guards
	store     domain.RecordStore
	resources map[string]*resource
	toggles   map[string]map[string]*field.Toggle
}

// New creates an empty registry backed by store.
func New(guards Guards, store domain.RecordStore) (*Registry, error) {
	if len(guards.Allowed) == 0 {
		guards.Allowed = []string{DefaultGuard}
	}

	if guards.Drivers == nil {
		guards.Drivers = map[string]string{DefaultGuard: DriverSession}
	}

	for _, name := range guards.Allowed {
		if _, ok := guards.Drivers[name]; !ok {
			return nil, fmt.Errorf("allowed guard %q has no driver", name)
		}
	}

	for name, driver := range guards.Drivers {
		switch driver {
		case DriverSession, DriverAPIKey, DriverJWT:
		default:
			return nil, fmt.Errorf("guard %q: unknown driver %q", name, driver)
		}
	}

	return &Registry{
		guards:    guards,
		store:     store,
		resources: make(map[string]*resource),
		toggles:   make(map[string]map[string]*field.Toggle),
	}, nil
}

// Register adds a schema and its configured toggles.
func (r *Registry) Register(schema *models.Schema, toggles ...*field.Toggle) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	if _, dup := r.resources[schema.Key]; dup {
		return fmt.Errorf("resource %q registered twice", schema.Key)
	}

	byAttr := make(map[string]*field.Toggle, len(toggles))
	for _, t := range toggles {
		if _, ok := schema.Field(t.Attribute); !ok {
			return fmt.Errorf("resource %q: toggle %q is not a declared field", schema.Key, t.Attribute)
		}
		if key := t.LabelKey(); key != nil {
			if _, ok := schema.Field(*key); !ok {
				return fmt.Errorf("resource %q: toast_label_key %q is not a declared field", schema.Key, *key)
			}
		}
		byAttr[t.Attribute] = t
	}

	r.resources[schema.Key] = &resource{schema: schema, store: r.store}
	r.toggles[schema.Key] = byAttr

	return nil
}

// Guards returns the guard configuration.
func (r *Registry) Guards() Guards {
	return r.guards
}

// AllowedGuards returns the any-of guard set for the toggle endpoint.
func (r *Registry) AllowedGuards() []string {
	return r.guards.Allowed
}

// Resource resolves a resource key.
func (r *Registry) Resource(key string) (domain.Resource, bool) {
	res, ok := r.resources[key]
	if !ok {
		return nil, false
	}

	return res, true
}

// Keys returns the registered resource keys in stable order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.resources))
	for k := range r.resources {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Field returns the toggle configured for resource.attribute, or a default
// toggle when the attribute is a declared boolean without explicit config.
func (r *Registry) Field(resourceKey, attribute string) (*field.Toggle, bool) {
	res, ok := r.resources[resourceKey]
	if !ok {
		return nil, false
	}

	if t, ok := r.toggles[resourceKey][attribute]; ok {
		return t, true
	}

	if typ, ok := res.schema.Field(attribute); ok && typ == models.FieldBoolean {
		return field.New(attribute, humanize(attribute)), true
	}

	return nil, false
}

func humanize(attr string) string {
	s := strings.ReplaceAll(attr, "_", " ")
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

type resource struct {
	schema *models.Schema
	store  domain.RecordStore
}

func (r *resource) Key() string            { return r.schema.Key }
func (r *resource) SingularLabel() string  { return r.schema.SingularLabel }
func (r *resource) Schema() *models.Schema { return r.schema }

func (r *resource) FindByID(ctx context.Context, id string) (*models.Record, error) {
	return r.store.FindRecord(ctx, r.schema, id)
}

func (r *resource) Save(ctx context.Context, rec *models.Record, attribute string) error {
	return r.store.UpdateAttribute(ctx, r.schema, rec, attribute)
}
