package service

import (
	"context"
	"errors"
	"testing"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/field"
	"github.com/adminkit/toggle/internal/models"
)

func newFieldFixture() (*FieldService, *memResource) {
	users := newMemResource(usersSchema())
	users.put("1", map[string]models.Value{"active": models.Bool(true), "locked": models.Bool(true)})

	reg := &mockRegistry{
		resources: map[string]domain.Resource{"users": users},
		toggles: map[string]*field.Toggle{
			"users.active": field.New("active", "Active").ReadonlyWhen(field.AttributeEquals("locked", true)),
			"users.score":  field.New("score", "Score"),
		},
	}

	return NewFieldService(reg, []string{"web"}), users
}

func TestFieldService_Describe(t *testing.T) {
	t.Parallel()

	svc, _ := newFieldFixture()

	d, err := svc.Describe(context.Background(), webAuth(), "users", "1", "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.Value || !d.Readonly || d.Name != "Active" {
		t.Errorf("unexpected descriptor: %+v", d)
	}

	if d.ToggleEndpoint != "/api/v1/toggle/users/1" {
		t.Errorf("unexpected endpoint %q", d.ToggleEndpoint)
	}
}

func TestFieldService_OutsideAllowedGuardsIsReadonly(t *testing.T) {
	t.Parallel()

	svc, _ := newFieldFixture()

	authz := models.NewAuthContext()
	authz.Authenticate("api", &models.Actor{ID: "k-1", Guard: "api"})

	d, err := svc.Describe(context.Background(), authz, "users", "1", "score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.Readonly {
		t.Error("expected readonly for a viewer outside the allowed guards")
	}
}

func TestFieldService_Errors(t *testing.T) {
	t.Parallel()

	svc, users := newFieldFixture()

	tests := []struct {
		name     string
		authz    *models.AuthContext
		resource string
		id       string
		attr     string
		wantErr  error
	}{
		{name: "anonymous", authz: models.NewAuthContext(), resource: "users", id: "1", attr: "active", wantErr: models.ErrUnauthorized},
		{name: "unknown resource", authz: webAuth(), resource: "widgets", id: "1", attr: "active", wantErr: models.ErrResourceNotFound},
		{name: "missing record", authz: webAuth(), resource: "users", id: "2", attr: "active", wantErr: models.ErrRecordNotFound},
		{name: "missing attribute", authz: webAuth(), resource: "users", id: "1", attr: "", wantErr: models.ErrAttributeRequired},
		{name: "no toggle", authz: webAuth(), resource: "users", id: "1", attr: "name", wantErr: models.ErrUnknownAttribute},
	}

	for _, tt := range tests {
		_, err := svc.Describe(context.Background(), tt.authz, tt.resource, tt.id, tt.attr)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}

	for _, c := range users.getCalls() {
		if c == "Save" {
			t.Fatal("describe must never save")
		}
	}
}
