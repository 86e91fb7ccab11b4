// Package field holds the presenter-side configuration of a toggle field and
// computes the descriptor a UI renders for one record and one viewer.
package field

import (
	"github.com/adminkit/toggle/internal/models"
)

// Default colors for a toggle, light then dark.
const (
	DefaultOnColor           = "#00d5be"
	DefaultOnColorDark       = "#009689"
	DefaultOffColor          = "#e5e5e5"
	DefaultOffColorDark      = "#323f57"
	DefaultBulletColor       = "#ffffff"
	DefaultOnLabelColor      = "#ffffff"
	DefaultOffLabelColor     = "#a1a1a1"
	DefaultOffLabelColorDark = "#737373"
)

// View names accepted by Help.
const (
	ViewIndex  = "index"
	ViewDetail = "detail"
	ViewForm   = "form"
)

// Predicate decides a per-render flag from the viewer and the record.
type Predicate func(actor *models.Actor, rec *models.Record) bool

// AttributeEquals returns a predicate that is true when the record's
// attribute is truthy (want=true) or falsy (want=false).
func AttributeEquals(attribute string, want bool) Predicate {
	return func(_ *models.Actor, rec *models.Record) bool {
		if rec == nil {
			return false
		}
		return rec.Get(attribute).Truthy() == want
	}
}

// AttributeMatches returns a predicate that is true when the record's
// attribute renders to exactly value.
func AttributeMatches(attribute, value string) Predicate {
	return func(_ *models.Actor, rec *models.Record) bool {
		if rec == nil {
			return false
		}
		v := rec.Get(attribute)
		return !v.IsNull() && v.String() == value
	}
}

// Toggle is the configuration of one toggle field.
type Toggle struct {
	Attribute string
	Name      string

	onColor       models.Colors
	offColor      models.Colors
	onBullet      models.Colors
	offBullet     models.Colors
	onLabelColor  models.Colors
	offLabelColor models.Colors
	valueLabels   *models.ValueLabels
	help          map[string]string
	toastShow     bool
	toastLabelKey *string
	filterable    bool
	hideWhen      Predicate
	readonlyWhen  Predicate
}

// New returns a toggle for attribute with the default presentation.
func New(attribute, name string) *Toggle {
	if name == "" {
		name = attribute
	}

	return &Toggle{
		Attribute:     attribute,
		Name:          name,
		onColor:       models.Colors{Light: DefaultOnColor, Dark: DefaultOnColorDark},
		offColor:      models.Colors{Light: DefaultOffColor, Dark: DefaultOffColorDark},
		onBullet:      models.Colors{Light: DefaultBulletColor, Dark: DefaultBulletColor},
		offBullet:     models.Colors{Light: DefaultBulletColor, Dark: DefaultBulletColor},
		onLabelColor:  models.Colors{Light: DefaultOnLabelColor, Dark: DefaultOnLabelColor},
		offLabelColor: models.Colors{Light: DefaultOffLabelColor, Dark: DefaultOffLabelColorDark},
		toastShow:     true,
		filterable:    true,
	}
}

func pair(light, dark string) models.Colors {
	if dark == "" {
		dark = light
	}

	return models.Colors{Light: light, Dark: dark}
}

// OnColor sets the track color when on. An empty dark uses light.
func (t *Toggle) OnColor(light, dark string) *Toggle {
	t.onColor = pair(light, dark)
	return t
}

// OffColor sets the track color when off. An empty dark uses light.
func (t *Toggle) OffColor(light, dark string) *Toggle {
	t.offColor = pair(light, dark)
	return t
}

// OnBullet sets the knob color when on.
func (t *Toggle) OnBullet(light, dark string) *Toggle {
	t.onBullet = pair(light, dark)
	return t
}

// OffBullet sets the knob color when off.
func (t *Toggle) OffBullet(light, dark string) *Toggle {
	t.offBullet = pair(light, dark)
	return t
}

// OnLabelColor sets the text color of the "on" value label.
func (t *Toggle) OnLabelColor(light, dark string) *Toggle {
	t.onLabelColor = pair(light, dark)
	return t
}

// OffLabelColor sets the text color of the "off" value label.
func (t *Toggle) OffLabelColor(light, dark string) *Toggle {
	t.offLabelColor = pair(light, dark)
	return t
}

// ValueLabels shows on and off inside the switch.
func (t *Toggle) ValueLabels(on, off string) *Toggle {
	t.valueLabels = &models.ValueLabels{On: on, Off: off}
	return t
}

// Help sets help text for one view (index, detail or form).
func (t *Toggle) Help(view, text string) *Toggle {
	if t.help == nil {
		t.help = make(map[string]string)
	}
	t.help[view] = text

	return t
}

// ToastShow controls the transient notification after a toggle.
func (t *Toggle) ToastShow(show bool) *Toggle {
	t.toastShow = show
	return t
}

// ToastLabelKey names the attribute used as the notification label.
func (t *Toggle) ToastLabelKey(key string) *Toggle {
	if key == "" {
		t.toastLabelKey = nil
		return t
	}
	t.toastLabelKey = &key

	return t
}

// Filterable controls whether index views offer a filter on the field.
func (t *Toggle) Filterable(on bool) *Toggle {
	t.filterable = on
	return t
}

// HideWhen hides the field when p returns true.
func (t *Toggle) HideWhen(p Predicate) *Toggle {
	t.hideWhen = p
	return t
}

// ReadonlyWhen makes the field read-only when p returns true.
func (t *Toggle) ReadonlyWhen(p Predicate) *Toggle {
	t.readonlyWhen = p
	return t
}

// LabelKey returns the configured toast label key, or nil.
func (t *Toggle) LabelKey() *string {
	return t.toastLabelKey
}
