package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/adminkit/toggle/internal/api"
	"github.com/adminkit/toggle/internal/models"
)

func newRouter(t *testing.T, toggles *mockToggleService) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.NewRouter(ctx, &api.RouterDeps{
		Log:           testLogger(),
		Toggles:       toggles,
		Fields:        &mockFieldService{},
		Audit:         &mockAuditService{},
		AllowedGuards: []string{testGuard},
		CORSOrigins:   []string{"http://localhost:3000"},
		Version:       "test",
	})
}

func TestRouter_HealthIsUnauthenticated(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(t, &mockToggleService{}), http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_ToggleWithoutGuardsIsForbidden(t *testing.T) {
	t.Parallel()

	toggles := &mockToggleService{
		toggleFn: func(_ context.Context, authz *models.AuthContext, _ models.ToggleRequest) (*models.ToggleResult, error) {
			if _, ok := authz.SatisfiesAny([]string{testGuard}); !ok {
				return nil, models.ErrUnauthorized
			}
			return &models.ToggleResult{Success: true}, nil
		},
	}

	w := doRequest(newRouter(t, toggles), http.MethodPost, "/api/v1/toggle/users/1", `{"attribute":"is_active"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRouter_AuditRequiresGuard(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(t, &mockToggleService{}), http.MethodGet, "/api/v1/audit", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	t.Parallel()

	w := doRequest(newRouter(t, &mockToggleService{}), http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
