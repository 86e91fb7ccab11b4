package models

// Colors is a light/dark pair.
type Colors struct {
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// ValueLabels are the display strings for the on and off states.
type ValueLabels struct {
	On  string `json:"on"`
	Off string `json:"off"`
}

// FieldDescriptor is the serialized form of a toggle field as it applies to
// one record and one viewer.
type FieldDescriptor struct {
	Resource       string            `json:"resource"`
	ResourceID     string            `json:"resource_id"`
	Attribute      string            `json:"attribute"`
	Name           string            `json:"name"`
	Value          bool              `json:"value"`
	Readonly       bool              `json:"readonly"`
	Hidden         bool              `json:"hidden"`
	Filterable     bool              `json:"filterable"`
	OnColor        Colors            `json:"on_color"`
	OffColor       Colors            `json:"off_color"`
	OnBullet       Colors            `json:"on_bullet"`
	OffBullet      Colors            `json:"off_bullet"`
	OnLabelColor   Colors            `json:"on_label_color"`
	OffLabelColor  Colors            `json:"off_label_color"`
	ValueLabels    *ValueLabels      `json:"value_labels,omitempty"`
	Help           map[string]string `json:"help,omitempty"`
	ToastShow      bool              `json:"toast_show"`
	ToastLabelKey  *string           `json:"toast_label_key"`
	ToggleEndpoint string            `json:"toggle_endpoint"`
}
