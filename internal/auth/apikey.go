package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adminkit/toggle/internal/models"
)

// KeyLookup resolves an API key to the actor it was issued to.
type KeyLookup interface {
	ActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error)
}

// APIKeyGuard authenticates opaque bearer API keys.
type APIKeyGuard struct {
	name   string
	lookup KeyLookup
}

// NewAPIKeyGuard creates an API key guard.
func NewAPIKeyGuard(name string, lookup KeyLookup) *APIKeyGuard {
	return &APIKeyGuard{name: name, lookup: lookup}
}

// Name implements Guard.
func (g *APIKeyGuard) Name() string { return g.name }

// Driver implements Guard.
func (g *APIKeyGuard) Driver() string { return "api_key" }

// Credential returns the bearer token unless it is a JWT.
func (g *APIKeyGuard) Credential(r *http.Request) string {
	tok := BearerToken(r)
	if looksLikeJWT(tok) {
		return ""
	}
	return tok
}

// Authenticate implements Guard.
func (g *APIKeyGuard) Authenticate(ctx context.Context, apiKey string) (*models.Actor, error) {
	actor, err := g.lookup.ActorByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("api key lookup: %w", err)
	}

	out := *actor
	out.Guard = g.name

	return &out, nil
}
