package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func usersSchema() *models.Schema {
	return &models.Schema{
		Key:           "users",
		Table:         "users",
		IDColumn:      "id",
		IDType:        models.IDInteger,
		SingularLabel: "User",
		Fields: map[string]models.FieldType{
			"active": models.FieldBoolean,
			"score":  models.FieldInteger,
			"name":   models.FieldString,
			"label":  models.FieldString,
			"title":  models.FieldString,
		},
	}
}

type toggleFixture struct {
	svc         *ToggleService
	users       *memResource
	registry    *mockRegistry
	audit       *mockAuditEnqueuer
	broadcaster *mockBroadcaster
}

func newToggleFixture(strict bool) *toggleFixture {
	users := newMemResource(usersSchema())
	reg := &mockRegistry{resources: map[string]domain.Resource{"users": users}}
	aw := &mockAuditEnqueuer{}
	bc := &mockBroadcaster{}

	svc := NewToggleService(reg, ToggleOptions{AllowedGuards: []string{"web"}, Strict: strict}, aw, bc, quietLogger())

	return &toggleFixture{svc: svc, users: users, registry: reg, audit: aw, broadcaster: bc}
}

func webAuth() *models.AuthContext {
	a := models.NewAuthContext()
	a.Authenticate("web", &models.Actor{ID: "u-1", Name: "Ada", Guard: "web"})
	return a
}

func strPtr(s string) *string { return &s }

func TestToggle_NegatesAndPersists(t *testing.T) {
	t.Parallel()

	for _, initial := range []bool{true, false} {
		f := newToggleFixture(false)
		f.users.put("1", map[string]models.Value{"active": models.Bool(initial), "name": models.String("Ada")})

		res, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
			Resource: "users", ResourceID: "1", Attribute: "active",
		})
		if err != nil {
			t.Fatalf("initial=%v: unexpected error: %v", initial, err)
		}

		if !res.Success || res.Value != !initial {
			t.Errorf("initial=%v: expected value %v, got %+v", initial, !initial, res)
		}

		if got := f.users.value("1", "active"); !got.Equal(models.Bool(!initial)) {
			t.Errorf("initial=%v: stored value = %v", initial, got.Raw())
		}
	}
}

func TestToggle_DoubleToggleRestoresValue(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)
	f.users.put("1", map[string]models.Value{"active": models.Bool(true)})

	req := models.ToggleRequest{Resource: "users", ResourceID: "1", Attribute: "active"}

	for range 2 {
		if _, err := f.svc.Toggle(context.Background(), webAuth(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := f.users.value("1", "active"); !got.Equal(models.Bool(true)) {
		t.Errorf("expected original value true, got %v", got.Raw())
	}
}

func TestToggle_Labels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		attrs    map[string]models.Value
		labelKey *string
		want     string
	}{
		{
			name:     "label key wins",
			attrs:    map[string]models.Value{"title": models.String("Alpha"), "name": models.String("Beta")},
			labelKey: strPtr("title"),
			want:     "Alpha",
		},
		{
			name:  "null name falls through to label",
			attrs: map[string]models.Value{"name": models.Null, "label": models.String("Beta")},
			want:  "Beta",
		},
		{
			name:  "title when name and label null",
			attrs: map[string]models.Value{"name": models.Null, "label": models.Null, "title": models.String("Gamma")},
			want:  "Gamma",
		},
		{
			name:  "singular label when all null",
			attrs: map[string]models.Value{"name": models.Null, "label": models.Null, "title": models.Null},
			want:  "User",
		},
		{
			name:     "null label key falls back to name",
			attrs:    map[string]models.Value{"title": models.Null, "name": models.String("Beta")},
			labelKey: strPtr("title"),
			want:     "Beta",
		},
		{
			name:     "non-string label key is rendered",
			attrs:    map[string]models.Value{"score": models.Int(42), "name": models.String("Beta")},
			labelKey: strPtr("score"),
			want:     "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newToggleFixture(false)
			attrs := tt.attrs
			attrs["active"] = models.Bool(false)
			f.users.put("1", attrs)

			res, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
				Resource: "users", ResourceID: "1", Attribute: "active", LabelKey: tt.labelKey,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if res.Label != tt.want {
				t.Errorf("label = %q, want %q", res.Label, tt.want)
			}
		})
	}
}

func TestToggle_UnauthorizedPrecedesLookup(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)

	other := models.NewAuthContext()
	other.Authenticate("api", &models.Actor{ID: "k-1", Guard: "api"})

	for _, authz := range []*models.AuthContext{nil, models.NewAuthContext(), other} {
		_, err := f.svc.Toggle(context.Background(), authz, models.ToggleRequest{
			Resource: "users", ResourceID: "does-not-exist", Attribute: "active",
		})
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}

	if calls := f.users.getCalls(); len(calls) != 0 {
		t.Errorf("expected no record access, got %v", calls)
	}
}

func TestToggle_AnyAllowedGuardSuffices(t *testing.T) {
	t.Parallel()

	users := newMemResource(usersSchema())
	users.put("1", map[string]models.Value{"active": models.Bool(false)})
	reg := &mockRegistry{resources: map[string]domain.Resource{"users": users}}
	svc := NewToggleService(reg, ToggleOptions{AllowedGuards: []string{"web", "api"}}, nil, nil, quietLogger())

	authz := models.NewAuthContext()
	authz.Authenticate("api", &models.Actor{ID: "k-1", Guard: "api"})

	res, err := svc.Toggle(context.Background(), authz, models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "active",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Value {
		t.Error("expected value true")
	}
}

func TestToggle_ErrorOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.ToggleRequest
		wantErr error
	}{
		{
			name:    "unknown resource beats missing attribute",
			req:     models.ToggleRequest{Resource: "widgets", ResourceID: "1"},
			wantErr: models.ErrResourceNotFound,
		},
		{
			name:    "missing record beats missing attribute",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "404"},
			wantErr: models.ErrRecordNotFound,
		},
		{
			name:    "missing attribute",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "1"},
			wantErr: models.ErrAttributeRequired,
		},
		{
			name:    "undeclared attribute",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "1", Attribute: "password"},
			wantErr: models.ErrUnknownAttribute,
		},
		{
			name:    "unknown resource beats oversized attribute",
			req:     models.ToggleRequest{Resource: "widgets", ResourceID: "1", Attribute: strings.Repeat("a", models.MaxAttributeLen+1)},
			wantErr: models.ErrResourceNotFound,
		},
		{
			name:    "missing record beats oversized attribute",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "404", Attribute: strings.Repeat("a", models.MaxAttributeLen+1)},
			wantErr: models.ErrRecordNotFound,
		},
		{
			name:    "oversized attribute on existing record",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "1", Attribute: strings.Repeat("a", models.MaxAttributeLen+1)},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "oversized label key",
			req:     models.ToggleRequest{Resource: "users", ResourceID: "1", Attribute: "active", LabelKey: strPtr(strings.Repeat("k", models.MaxLabelKeyLen+1))},
			wantErr: models.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newToggleFixture(false)
			f.users.put("1", map[string]models.Value{"active": models.Bool(true)})

			_, err := f.svc.Toggle(context.Background(), webAuth(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if got := f.users.value("1", "active"); !got.Equal(models.Bool(true)) {
				t.Error("record must be unchanged on error")
			}
			if len(f.audit.getJobs()) != 0 || len(f.broadcaster.getEvents()) != 0 {
				t.Error("no audit or broadcast expected on error")
			}
		})
	}
}

func TestToggle_LenientCoercesNonBoolean(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)
	f.users.put("1", map[string]models.Value{"score": models.Int(7)})

	res, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "score",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Value {
		t.Error("expected truthy 7 to toggle to false")
	}

	if got := f.users.value("1", "score"); !got.Equal(models.Int(0)) {
		t.Errorf("expected stored 0, got %v", got.Raw())
	}
}

func TestToggle_StrictRejectsNonBoolean(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(true)
	f.users.put("1", map[string]models.Value{"score": models.Int(7), "active": models.Bool(false)})

	_, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "score",
	})
	if !errors.Is(err, models.ErrAttributeNotBoolean) {
		t.Fatalf("expected ErrAttributeNotBoolean, got %v", err)
	}

	if got := f.users.value("1", "score"); !got.Equal(models.Int(7)) {
		t.Error("record must be unchanged")
	}

	res, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "active",
	})
	if err != nil || !res.Value {
		t.Fatalf("boolean field should toggle in strict mode: %+v, %v", res, err)
	}
}

func TestToggle_NullTogglesToTrue(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)
	f.users.put("1", map[string]models.Value{})

	res, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "active",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Value {
		t.Error("expected null to toggle to true")
	}
}

func TestToggle_AuditsAndBroadcasts(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)
	f.users.put("9", map[string]models.Value{"active": models.Bool(false), "name": models.String("Ada")})

	if _, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "9", Attribute: "active",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jobs := f.audit.getJobs()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 audit job, got %d", len(jobs))
	}

	e := jobs[0].Entry
	if e.Action != models.AuditActionToggle || e.Resource != "users" || e.ResourceID != "9" || e.ActorID != "u-1" || e.Guard != "web" {
		t.Errorf("unexpected audit entry: %+v", e)
	}
	if e.Detail["attribute"] != "active" || e.Detail["to"] != true || e.Detail["from"] != false {
		t.Errorf("unexpected audit detail: %+v", e.Detail)
	}

	events := f.broadcaster.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	want := models.ToggleEvent{Resource: "users", ResourceID: "9", Attribute: "active", Value: true, Label: "Ada", ActorID: "u-1"}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}
}

func TestToggle_SaveFailure(t *testing.T) {
	t.Parallel()

	f := newToggleFixture(false)
	f.users.put("1", map[string]models.Value{"active": models.Bool(false)})
	f.users.saveErr = errors.New("connection reset")

	_, err := f.svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "active",
	})
	if err == nil || errors.Is(err, models.ErrRecordNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	if len(f.audit.getJobs()) != 0 {
		t.Error("failed save must not be audited")
	}
}

func TestToggle_NilCollaborators(t *testing.T) {
	t.Parallel()

	users := newMemResource(usersSchema())
	users.put("1", map[string]models.Value{"active": models.Bool(true)})
	reg := &mockRegistry{resources: map[string]domain.Resource{"users": users}}
	svc := NewToggleService(reg, ToggleOptions{AllowedGuards: []string{"web"}}, nil, nil, quietLogger())

	res, err := svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "users", ResourceID: "1", Attribute: "active",
	})
	if err != nil || res.Value {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := map[error]string{
		nil:                           "ok",
		models.ErrUnauthorized:        "unauthorized",
		models.ErrResourceNotFound:    "resource_not_found",
		models.ErrRecordNotFound:      "record_not_found",
		models.ErrAttributeRequired:   "attribute_required",
		models.ErrUnknownAttribute:    "unknown_attribute",
		models.ErrAttributeNotBoolean: "not_boolean",
		errors.New("boom"):            "error",
	}

	for err, want := range tests {
		if got := outcome(err); got != want {
			t.Errorf("outcome(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestToggle_LabelOnlyColumns(t *testing.T) {
	t.Parallel()

	posts := newMemResource(&models.Schema{
		Key:           "posts",
		Table:         "posts",
		IDColumn:      "id",
		IDType:        models.IDInteger,
		SingularLabel: "Post",
		Fields:        map[string]models.FieldType{"published": models.FieldBoolean},
		LabelFields:   []string{"title"},
	})
	posts.put("7", map[string]models.Value{"published": models.Bool(false), "title": models.String("Launch")})

	reg := &mockRegistry{resources: map[string]domain.Resource{"posts": posts}}
	svc := NewToggleService(reg, ToggleOptions{AllowedGuards: []string{"web"}}, nil, nil, quietLogger())

	res, err := svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "posts", ResourceID: "7", Attribute: "published",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "Launch" {
		t.Errorf("expected label from label-only column, got %q", res.Label)
	}

	_, err = svc.Toggle(context.Background(), webAuth(), models.ToggleRequest{
		Resource: "posts", ResourceID: "7", Attribute: "title",
	})
	if !errors.Is(err, models.ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute for label-only column, got %v", err)
	}
	if got := posts.value("7", "title"); !got.Equal(models.String("Launch")) {
		t.Errorf("label-only column must not be written, got %v", got.Raw())
	}
}
