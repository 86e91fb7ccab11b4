package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adminkit/toggle/internal/api"
	"github.com/adminkit/toggle/internal/models"
)

func toggleRouter(actor *models.Actor, svc *mockToggleService) http.Handler {
	r := newTestRouter(actor)
	h := api.NewToggleHandler(svc, testLogger())
	r.POST("/toggle/:resource/:resourceId", h.Toggle)

	return r
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func TestToggle_Success(t *testing.T) {
	t.Parallel()

	var got models.ToggleRequest
	svc := &mockToggleService{
		toggleFn: func(_ context.Context, authz *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error) {
			if !authz.Check(testGuard) {
				t.Error("expected auth context to carry the admin guard")
			}
			got = req
			return &models.ToggleResult{Success: true, Value: true, Label: "Ada"}, nil
		},
	}

	w := doRequest(toggleRouter(adminActor(), svc), http.MethodPost, "/toggle/users/42",
		`{"attribute":"is_active","labelKey":"name"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if got.Resource != "users" || got.ResourceID != "42" || got.Attribute != "is_active" {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.LabelKey == nil || *got.LabelKey != "name" {
		t.Errorf("expected labelKey name, got %v", got.LabelKey)
	}

	var res models.ToggleResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !res.Success || !res.Value || res.Label != "Ada" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestToggle_FormAndQueryInput(t *testing.T) {
	t.Parallel()

	var got models.ToggleRequest
	svc := &mockToggleService{
		toggleFn: func(_ context.Context, _ *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error) {
			got = req
			return &models.ToggleResult{Success: true}, nil
		},
	}
	r := toggleRouter(adminActor(), svc)

	req := httptest.NewRequest(http.MethodPost, "/toggle/users/1", strings.NewReader("attribute=is_admin"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Attribute != "is_admin" || got.LabelKey != nil {
		t.Errorf("unexpected form request: %+v", got)
	}

	w = doRequest(r, http.MethodPost, "/toggle/users/1?attribute=is_active&labelKey=email", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got.Attribute != "is_active" || got.LabelKey == nil || *got.LabelKey != "email" {
		t.Errorf("unexpected query request: %+v", got)
	}
}

func TestToggle_MissingBodyReachesService(t *testing.T) {
	t.Parallel()

	svc := &mockToggleService{
		toggleFn: func(_ context.Context, _ *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error) {
			if req.Attribute != "" {
				t.Errorf("expected empty attribute, got %q", req.Attribute)
			}
			return nil, models.ErrAttributeRequired
		},
	}

	w := doRequest(toggleRouter(adminActor(), svc), http.MethodPost, "/toggle/users/1", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestToggle_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{models.ErrUnauthorized, http.StatusForbidden, api.ErrCodeUnauthorized, api.MsgUnauthorized},
		{models.ErrResourceNotFound, http.StatusNotFound, api.ErrCodeResourceNotFound, api.MsgResourceNotFound},
		{models.ErrRecordNotFound, http.StatusNotFound, api.ErrCodeRecordNotFound, api.MsgRecordNotFound},
		{models.ErrAttributeRequired, http.StatusBadRequest, api.ErrCodeAttributeRequired, api.MsgAttributeRequired},
		{models.ErrUnknownAttribute, http.StatusUnprocessableEntity, api.ErrCodeUnknownAttribute, api.MsgUnknownAttribute},
		{models.ErrAttributeNotBoolean, http.StatusUnprocessableEntity, api.ErrCodeAttributeNotBoolean, api.MsgAttributeNotBoolean},
		{fmt.Errorf("saving: %w", errors.New("connection reset")), http.StatusInternalServerError, api.ErrCodeInternalError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			svc := &mockToggleService{
				toggleFn: func(context.Context, *models.AuthContext, models.ToggleRequest) (*models.ToggleResult, error) {
					return nil, tt.err
				},
			}

			w := doRequest(toggleRouter(adminActor(), svc), http.MethodPost, "/toggle/users/1", `{"attribute":"is_active"}`)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}

			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Code != tt.code || body.Error != tt.msg {
				t.Errorf("expected %s/%q, got %s/%q", tt.code, tt.msg, body.Code, body.Error)
			}
		})
	}
}

func TestToggle_InvalidInputCarriesDetail(t *testing.T) {
	t.Parallel()

	svc := &mockToggleService{
		toggleFn: func(context.Context, *models.AuthContext, models.ToggleRequest) (*models.ToggleResult, error) {
			return nil, models.ErrFieldTooLong("attribute", models.MaxAttributeLen)
		},
	}

	w := doRequest(toggleRouter(adminActor(), svc), http.MethodPost, "/toggle/users/1", `{"attribute":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "attribute exceeds maximum length of 63") {
		t.Errorf("expected length detail, got %s", w.Body.String())
	}
}

func TestToggle_InternalErrorDoesNotLeak(t *testing.T) {
	t.Parallel()

	svc := &mockToggleService{
		toggleFn: func(context.Context, *models.AuthContext, models.ToggleRequest) (*models.ToggleResult, error) {
			return nil, errors.New(`pq: column "secret_column" does not exist`)
		},
	}

	w := doRequest(toggleRouter(adminActor(), svc), http.MethodPost, "/toggle/users/1", `{"attribute":"is_active"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret_column") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}
