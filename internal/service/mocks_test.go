package service

import (
	"context"
	"sync"

	"github.com/adminkit/toggle/internal/domain"
	"github.com/adminkit/toggle/internal/field"
	"github.com/adminkit/toggle/internal/models"
)

// memResource is an in-memory domain.Resource that records calls.
type memResource struct {
	schema *models.Schema

	mu      sync.Mutex
	rows    map[string]map[string]models.Value
	calls   []string
	saveErr error
}

func newMemResource(schema *models.Schema) *memResource {
	return &memResource{schema: schema, rows: make(map[string]map[string]models.Value)}
}

func (m *memResource) put(id string, attrs map[string]models.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id] = attrs
}

func (m *memResource) value(id, attr string) models.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id][attr]
}

func (m *memResource) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.calls))
	copy(cp, m.calls)
	return cp
}

func (m *memResource) Key() string            { return m.schema.Key }
func (m *memResource) SingularLabel() string  { return m.schema.SingularLabel }
func (m *memResource) Schema() *models.Schema { return m.schema }

func (m *memResource) FindByID(_ context.Context, id string) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "FindByID")

	row, ok := m.rows[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}

	attrs := make(map[string]models.Value, len(row))
	for k, v := range row {
		attrs[k] = v
	}

	return models.NewRecord(m.schema.Key, id, attrs), nil
}

func (m *memResource) Save(_ context.Context, rec *models.Record, attribute string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "Save")

	if m.saveErr != nil {
		return m.saveErr
	}

	m.rows[rec.ID][attribute] = rec.Get(attribute)

	return nil
}

// mockRegistry maps keys to resources and optional toggles.
type mockRegistry struct {
	mu        sync.Mutex
	lookups   int
	resources map[string]domain.Resource
	toggles   map[string]*field.Toggle
}

func (m *mockRegistry) Resource(key string) (domain.Resource, bool) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()

	r, ok := m.resources[key]
	return r, ok
}

func (m *mockRegistry) Field(resource, attribute string) (*field.Toggle, bool) {
	if _, ok := m.resources[resource]; !ok {
		return nil, false
	}
	t, ok := m.toggles[resource+"."+attribute]
	return t, ok
}

func (m *mockRegistry) getLookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// mockAuditEnqueuer records enqueued jobs.
type mockAuditEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockAuditEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockAuditEnqueuer) getJobs() []*AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*AuditJob, len(m.jobs))
	copy(cp, m.jobs)
	return cp
}

// mockBroadcaster records broadcast events.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []models.ToggleEvent
}

func (m *mockBroadcaster) BroadcastToggle(ev models.ToggleEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockBroadcaster) getEvents() []models.ToggleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.ToggleEvent, len(m.events))
	copy(cp, m.events)
	return cp
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []models.AuditEntry

	err error
}

func (m *mockAuditor) RecordAudit(_ context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, entry)
	return m.err
}

func (m *mockAuditor) getCalls() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.AuditEntry, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockAuditStore implements AuditQueryStore with injectable behaviour.
type mockAuditStore struct {
	mockAuditor

	queryAudit      func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeOldEntries func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockAuditStore) QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryAudit(ctx, opts)
}

func (m *mockAuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeOldEntries(ctx, retentionDays)
}
