package client

import "time"

// ToggleResult is the response of a successful toggle.
type ToggleResult struct {
	Success bool   `json:"success"`
	Value   bool   `json:"value"`
	Label   string `json:"label"`
}

// Colors is a light/dark color pair.
type Colors struct {
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// ValueLabels are the display strings for the on and off states.
type ValueLabels struct {
	On  string `json:"on"`
	Off string `json:"off"`
}

// FieldDescriptor describes how a toggle field renders for one record.
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

// AuditEntry is a single audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	EventID    string         `json:"event_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Guard      string         `json:"guard,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOptions filters an audit query.
type AuditQueryOptions struct {
	Resource   string
	ResourceID string
	ActorID    string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	Database         string  `json:"database"`
	WebsocketClients int     `json:"websocket_clients"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// ReadyResponse is the readiness check payload.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Pool   *PoolStats        `json:"pool,omitempty"`
}

// PoolStats reports database connection pool usage.
type PoolStats struct {
	Acquired int32 `json:"acquired"`
	Idle     int32 `json:"idle"`
	Total    int32 `json:"total"`
}
