package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/adminkit/toggle/internal/models"
)

// SessionKeyPrefix namespaces session entries in Redis.
const SessionKeyPrefix = "session:"

// maxSessionIDLen bounds cookie values before they reach Redis.
const maxSessionIDLen = 256

// sessionPayload is the JSON document stored at session:<id>.
type sessionPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// SessionGuard authenticates a session cookie against sessions stored in Redis
// by the host application.
type SessionGuard struct {
	name   string
	cookie string
	rdb    redis.Cmdable
}

// NewSessionGuard creates a session guard reading the named cookie.
func NewSessionGuard(name, cookie string, rdb redis.Cmdable) *SessionGuard {
	return &SessionGuard{name: name, cookie: cookie, rdb: rdb}
}

// Name implements Guard.
func (g *SessionGuard) Name() string { return g.name }

// Driver implements Guard.
func (g *SessionGuard) Driver() string { return "session" }

// Credential returns the value of the session cookie.
func (g *SessionGuard) Credential(r *http.Request) string {
	c, err := r.Cookie(g.cookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Authenticate loads the session from Redis and returns its user.
func (g *SessionGuard) Authenticate(ctx context.Context, sessionID string) (*models.Actor, error) {
	if sessionID == "" || len(sessionID) > maxSessionIDLen {
		return nil, models.ErrInvalidCredentials
	}

	raw, err := g.rdb.Get(ctx, SessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", models.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.UserID == "" {
		return nil, fmt.Errorf("malformed session: %w", models.ErrInvalidCredentials)
	}

	return &models.Actor{ID: p.UserID, Name: p.Name, Guard: g.name}, nil
}
