package field

import (
	"net/url"

	"github.com/adminkit/toggle/internal/models"
)

// EndpointPrefix is the path under which the toggle route is mounted.
const EndpointPrefix = "/api/v1/toggle"

// Describe computes the field descriptor for rec as seen by the holder of authz.
// The field is read-only when the readonly predicate holds or when the viewer
// satisfies none of the allowed guards.
func (t *Toggle) Describe(allowed []string, authz *models.AuthContext, rec *models.Record) models.FieldDescriptor {
	actor, authorized := authz.SatisfiesAny(allowed)
	if !authorized {
		actor, _ = authz.Any(allowed)
	}

	readonly := !authorized
	if t.readonlyWhen != nil && t.readonlyWhen(actor, rec) {
		readonly = true
	}

	hidden := t.hideWhen != nil && t.hideWhen(actor, rec)

	d := models.FieldDescriptor{
		Attribute:     t.Attribute,
		Name:          t.Name,
		Readonly:      readonly,
		Hidden:        hidden,
		Filterable:    t.filterable,
		OnColor:       t.onColor,
		OffColor:      t.offColor,
		OnBullet:      t.onBullet,
		OffBullet:     t.offBullet,
		OnLabelColor:  t.onLabelColor,
		OffLabelColor: t.offLabelColor,
		ValueLabels:   t.valueLabels,
		Help:          t.help,
		ToastShow:     t.toastShow,
		ToastLabelKey: t.toastLabelKey,
	}

	if rec != nil {
		d.Resource = rec.Resource
		d.ResourceID = rec.ID
		d.Value = rec.Get(t.Attribute).Truthy()
		d.ToggleEndpoint = EndpointPrefix + "/" + url.PathEscape(rec.Resource) + "/" + url.PathEscape(rec.ID)
	}

	return d
}
