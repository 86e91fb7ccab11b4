package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/middleware"
	"github.com/adminkit/toggle/internal/models"
)

const testGuard = "admin"

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// newTestRouter creates a gin engine whose requests are authenticated under
// testGuard. A nil actor leaves the auth context empty.
func newTestRouter(actor *models.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		authz := models.NewAuthContext()
		if actor != nil {
			authz.Authenticate(actor.Guard, actor)
		}
		c.Set(middleware.AuthContextKey, authz)
		c.Next()
	})

	return r
}

func adminActor() *models.Actor {
	return &models.Actor{ID: "7", Name: "Ada", Guard: testGuard}
}

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type mockToggleService struct {
	toggleFn func(ctx context.Context, authz *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error)
}

func (m *mockToggleService) Toggle(ctx context.Context, authz *models.AuthContext, req models.ToggleRequest) (*models.ToggleResult, error) {
	return m.toggleFn(ctx, authz, req)
}

type mockFieldService struct {
	describeFn func(ctx context.Context, authz *models.AuthContext, resource, id, attribute string) (*models.FieldDescriptor, error)
}

func (m *mockFieldService) Describe(ctx context.Context, authz *models.AuthContext, resource, id, attribute string) (*models.FieldDescriptor, error) {
	return m.describeFn(ctx, authz, resource, id, attribute)
}

type mockAuditService struct {
	queryFn func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn func(ctx context.Context, days int) (int, error)
}

func (m *mockAuditService) RecordAudit(context.Context, models.AuditEntry) error { return nil }

func (m *mockAuditService) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockAuditService) PurgeOldEntries(ctx context.Context, days int) (int, error) {
	return m.purgeFn(ctx, days)
}
