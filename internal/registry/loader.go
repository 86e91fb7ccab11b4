package registry

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/field"
	"github.com/adminkit/toggle/internal/models"
)

type fileConfig struct {
	Guards    guardsConfig     `koanf:"guards"`
	Resources []resourceConfig `koanf:"resources"`
}

type guardsConfig struct {
	Allowed []string          `koanf:"allowed"`
	Drivers map[string]string `koanf:"drivers"`
}

type resourceConfig struct {
	Key           string                  `koanf:"key"`
	Table         string                  `koanf:"table"`
	IDColumn      string                  `koanf:"id_column"`
	IDType        string                  `koanf:"id_type"`
	SingularLabel string                  `koanf:"singular_label"`
	Timestamps    bool                    `koanf:"timestamps"`
	Fields        map[string]string       `koanf:"fields"`
	LabelFields   []string                `koanf:"label_fields"`
	Toggles       map[string]toggleConfig `koanf:"toggles"`
}

type toggleConfig struct {
	Name              string             `koanf:"name"`
	OnColor           string             `koanf:"on_color"`
	OnColorDark       string             `koanf:"on_color_dark"`
	OffColor          string             `koanf:"off_color"`
	OffColorDark      string             `koanf:"off_color_dark"`
	OnBullet          string             `koanf:"on_bullet"`
	OnBulletDark      string             `koanf:"on_bullet_dark"`
	OffBullet         string             `koanf:"off_bullet"`
	OffBulletDark     string             `koanf:"off_bullet_dark"`
	OnLabelColor      string             `koanf:"on_label_color"`
	OnLabelColorDark  string             `koanf:"on_label_color_dark"`
	OffLabelColor     string             `koanf:"off_label_color"`
	OffLabelColorDark string             `koanf:"off_label_color_dark"`
	ValueLabels       *valueLabelsConfig `koanf:"value_labels"`
	Help              map[string]string  `koanf:"help"`
	ToastShow         *bool              `koanf:"toast_show"`
	ToastLabelKey     string             `koanf:"toast_label_key"`
	Filterable        *bool              `koanf:"filterable"`
	ReadonlyWhen      *conditionConfig   `koanf:"readonly_when"`
	HideWhen          *conditionConfig   `koanf:"hide_when"`
}

type valueLabelsConfig struct {
	On  string `koanf:"on"`
	Off string `koanf:"off"`
}

type conditionConfig struct {
	Attribute string `koanf:"attribute"`
	Equals    any    `koanf:"equals"`
}

// Load reads the registry file at path and binds every resource to store.
func Load(path string, store domain.RecordStore) (*Registry, error) {
	k := koanf.New("::")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading registry file %s: %w", path, err)
	}

	var cfg fileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding registry file %s: %w", path, err)
	}

	reg, err := New(Guards{Allowed: cfg.Guards.Allowed, Drivers: cfg.Guards.Drivers}, store)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", path, err)
	}

	for i := range cfg.Resources {
		schema, toggles, err := cfg.Resources[i].build()
		if err != nil {
			return nil, fmt.Errorf("registry file %s: %w", path, err)
		}

		if err := reg.Register(schema, toggles...); err != nil {
			return nil, fmt.Errorf("registry file %s: %w", path, err)
		}
	}

	return reg, nil
}

func (rc *resourceConfig) build() (*models.Schema, []*field.Toggle, error) {
	schema := &models.Schema{
		Key:           rc.Key,
		Table:         rc.Table,
		IDColumn:      rc.IDColumn,
		IDType:        models.IDType(rc.IDType),
		SingularLabel: rc.SingularLabel,
		Timestamps:    rc.Timestamps,
		Fields:        make(map[string]models.FieldType, len(rc.Fields)),
		LabelFields:   rc.LabelFields,
	}

	if schema.Table == "" {
		schema.Table = rc.Key
	}

	if schema.IDColumn == "" {
		schema.IDColumn = "id"
	}

	if schema.IDType == "" {
		schema.IDType = models.IDInteger
	}

	for name, typ := range rc.Fields {
		schema.Fields[name] = models.FieldType(typ)
	}

	toggles := make([]*field.Toggle, 0, len(rc.Toggles))

	for attr, tc := range rc.Toggles {
		t, err := tc.build(rc.Key, attr, schema)
		if err != nil {
			return nil, nil, err
		}
		toggles = append(toggles, t)
	}

	return schema, toggles, nil
}

func (tc *toggleConfig) build(resourceKey, attr string, schema *models.Schema) (*field.Toggle, error) {
	name := tc.Name
	if name == "" {
		name = humanize(attr)
	}

	t := field.New(attr, name)

	if tc.OnColor != "" {
		t.OnColor(tc.OnColor, tc.OnColorDark)
	}
	if tc.OffColor != "" {
		t.OffColor(tc.OffColor, tc.OffColorDark)
	}
	if tc.OnBullet != "" {
		t.OnBullet(tc.OnBullet, tc.OnBulletDark)
	}
	if tc.OffBullet != "" {
		t.OffBullet(tc.OffBullet, tc.OffBulletDark)
	}
	if tc.OnLabelColor != "" {
		t.OnLabelColor(tc.OnLabelColor, tc.OnLabelColorDark)
	}
	if tc.OffLabelColor != "" {
		t.OffLabelColor(tc.OffLabelColor, tc.OffLabelColorDark)
	}
	if tc.ValueLabels != nil {
		t.ValueLabels(tc.ValueLabels.On, tc.ValueLabels.Off)
	}
	for view, text := range tc.Help {
		switch view {
		case field.ViewIndex, field.ViewDetail, field.ViewForm:
			t.Help(view, text)
		default:
			return nil, fmt.Errorf("resource %q: toggle %q: unknown help view %q", resourceKey, attr, view)
		}
	}
	if tc.ToastShow != nil {
		t.ToastShow(*tc.ToastShow)
	}
	if tc.Filterable != nil {
		t.Filterable(*tc.Filterable)
	}
	t.ToastLabelKey(tc.ToastLabelKey)

	if tc.ReadonlyWhen != nil {
		p, err := tc.ReadonlyWhen.predicate(resourceKey, schema)
		if err != nil {
			return nil, err
		}
		t.ReadonlyWhen(p)
	}

	if tc.HideWhen != nil {
		p, err := tc.HideWhen.predicate(resourceKey, schema)
		if err != nil {
			return nil, err
		}
		t.HideWhen(p)
	}

	return t, nil
}

func (cc *conditionConfig) predicate(resourceKey string, schema *models.Schema) (field.Predicate, error) {
	if _, ok := schema.Field(cc.Attribute); !ok {
		return nil, fmt.Errorf("resource %q: condition attribute %q is not a declared field", resourceKey, cc.Attribute)
	}

	switch want := cc.Equals.(type) {
	case bool:
		return field.AttributeEquals(cc.Attribute, want), nil
	case nil:
		return field.AttributeEquals(cc.Attribute, true), nil
	default:
		return field.AttributeMatches(cc.Attribute, fmt.Sprint(want)), nil
	}
}
