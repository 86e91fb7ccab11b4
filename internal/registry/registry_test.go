package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adminkit/toggle/internal/models"
	"github.com/adminkit/toggle/internal/registry"
)

type stubStore struct {
	found *models.Record
	saved []string
}

func (s *stubStore) FindRecord(_ context.Context, schema *models.Schema, id string) (*models.Record, error) {
	if s.found == nil {
		return nil, models.ErrRecordNotFound
	}
	return s.found, nil
}

func (s *stubStore) UpdateAttribute(_ context.Context, schema *models.Schema, _ *models.Record, attribute string) error {
	s.saved = append(s.saved, schema.Key+"."+attribute)
	return nil
}

const sampleYAML = `
guards:
  allowed: [web, api]
  drivers:
    web: session
    api: api_key
resources:
  - key: users
    singular_label: User
    timestamps: true
    fields:
      name: string
      active: boolean
      locked: boolean
      score: integer
    toggles:
      active:
        on_color: "#123456"
        value_labels: {on: "ON", off: "OFF"}
        toast_label_key: name
        readonly_when: {attribute: locked, equals: true}
  - key: posts
    table: blog_posts
    id_type: uuid
    singular_label: Post
    fields:
      published: boolean
    label_fields: [title]
`

func writeFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "toggle.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing registry file: %v", err)
	}

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	reg, err := registry.Load(writeFile(t, sampleYAML), store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := strings.Join(reg.AllowedGuards(), ","); got != "web,api" {
		t.Errorf("expected allowed web,api, got %s", got)
	}

	if got := strings.Join(reg.Keys(), ","); got != "posts,users" {
		t.Errorf("expected keys posts,users, got %s", got)
	}

	users, ok := reg.Resource("users")
	if !ok {
		t.Fatal("expected users resource")
	}

	s := users.Schema()
	if s.Table != "users" || s.IDColumn != "id" || s.IDType != models.IDInteger {
		t.Errorf("expected defaults applied, got %+v", s)
	}
	if users.SingularLabel() != "User" {
		t.Errorf("expected User, got %q", users.SingularLabel())
	}

	posts, _ := reg.Resource("posts")
	if posts.Schema().Table != "blog_posts" || posts.Schema().IDType != models.IDUUID {
		t.Errorf("unexpected posts schema %+v", posts.Schema())
	}
	if got := strings.Join(posts.Schema().ReadColumns(), ","); got != "published,title" {
		t.Errorf("expected published,title columns, got %s", got)
	}
	if _, ok := posts.Schema().Field("title"); ok {
		t.Error("label-only column must not be a toggleable field")
	}

	if _, ok := reg.Resource("nope"); ok {
		t.Error("expected unknown resource to be absent")
	}

	rec := models.NewRecord("users", "1", nil)
	if err := users.Save(context.Background(), rec, "active"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0] != "users.active" {
		t.Errorf("expected save delegated to store, got %v", store.saved)
	}
}

func TestLoad_ToggleConfig(t *testing.T) {
	t.Parallel()

	reg, err := registry.Load(writeFile(t, sampleYAML), &stubStore{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tg, ok := reg.Field("users", "active")
	if !ok {
		t.Fatal("expected configured toggle")
	}

	ac := models.NewAuthContext()
	ac.Authenticate("web", &models.Actor{ID: "u1", Guard: "web"})

	locked := models.NewRecord("users", "1", map[string]models.Value{"locked": models.Bool(true)})
	d := tg.Describe(reg.AllowedGuards(), ac, locked)

	if d.OnColor.Light != "#123456" || d.OnColor.Dark != "#123456" {
		t.Errorf("unexpected on color %+v", d.OnColor)
	}
	if d.ValueLabels == nil || d.ValueLabels.On != "ON" {
		t.Errorf("unexpected value labels %+v", d.ValueLabels)
	}
	if d.ToastLabelKey == nil || *d.ToastLabelKey != "name" {
		t.Error("expected toast label key name")
	}
	if !d.Readonly {
		t.Error("expected readonly for locked record")
	}

	def, ok := reg.Field("users", "locked")
	if !ok || def.Name != "Locked" {
		t.Errorf("expected default toggle for declared boolean, got %+v", def)
	}

	if _, ok := reg.Field("users", "score"); ok {
		t.Error("expected no default toggle for non-boolean field")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown driver",
			body:    "guards: {allowed: [web], drivers: {web: ldap}}\n",
			wantErr: "unknown driver",
		},
		{
			name:    "allowed guard without driver",
			body:    "guards: {allowed: [admin], drivers: {web: session}}\n",
			wantErr: "has no driver",
		},
		{
			name:    "duplicate resource",
			body:    "resources:\n  - {key: a, singular_label: A, fields: {x: boolean}}\n  - {key: a, singular_label: A, fields: {x: boolean}}\n",
			wantErr: "registered twice",
		},
		{
			name:    "toggle on undeclared field",
			body:    "resources:\n  - key: a\n    singular_label: A\n    fields: {x: boolean}\n    toggles: {y: {name: Y}}\n",
			wantErr: "not a declared field",
		},
		{
			name:    "bad table",
			body:    "resources:\n  - {key: a, table: \"a b\", singular_label: A, fields: {x: boolean}}\n",
			wantErr: "invalid table name",
		},
		{
			name:    "bad help view",
			body:    "resources:\n  - key: a\n    singular_label: A\n    fields: {x: boolean}\n    toggles: {x: {help: {preview: hi}}}\n",
			wantErr: "unknown help view",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.Load(writeFile(t, tc.body), &stubStore{})
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := registry.Load(filepath.Join(t.TempDir(), "missing.yaml"), &stubStore{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNew_DefaultGuard(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(registry.Guards{}, &stubStore{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := reg.AllowedGuards(); len(got) != 1 || got[0] != registry.DefaultGuard {
		t.Errorf("expected default guard, got %v", got)
	}
}
