// Package auth implements the named guards a request can authenticate under.
// Each guard is a driver (session, api_key or jwt) bound to a name from the
// registry file.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/adminkit/toggle/internal/models"
	"github.com/adminkit/toggle/internal/registry"
)

// Guard authenticates one kind of credential.
type Guard interface {
	// Name is the guard name from the registry file.
	Name() string
	// Driver is the driver the guard was built from.
	Driver() string
	// Credential extracts this guard's credential from the request, or "".
	Credential(r *http.Request) string
	// Authenticate resolves a credential to an actor. It returns an error
	// wrapping models.ErrInvalidCredentials when the credential is not valid.
	Authenticate(ctx context.Context, credential string) (*models.Actor, error)
}

// Deps carries the backends guard drivers need.
type Deps struct {
	Redis             redis.Cmdable
	Keys              KeyLookup
	SessionCookie     string
	JWTSecret         string
	JWTPreviousSecret string
}

// Build constructs one guard per defined guard name, ordered by name.
func Build(guards registry.Guards, deps Deps) ([]Guard, error) {
	names := make([]string, 0, len(guards.Drivers))
	for name := range guards.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Guard, 0, len(names))

	for _, name := range names {
		switch driver := guards.Drivers[name]; driver {
		case registry.DriverSession:
			if deps.Redis == nil {
				return nil, fmt.Errorf("guard %q: session driver needs redis", name)
			}
			out = append(out, NewSessionGuard(name, deps.SessionCookie, deps.Redis))
		case registry.DriverAPIKey:
			if deps.Keys == nil {
				return nil, fmt.Errorf("guard %q: api_key driver needs a key lookup", name)
			}
			out = append(out, NewAPIKeyGuard(name, deps.Keys))
		case registry.DriverJWT:
			if deps.JWTSecret == "" {
				return nil, fmt.Errorf("guard %q: jwt driver needs a secret", name)
			}
			out = append(out, NewJWTGuard(name, deps.JWTSecret, deps.JWTPreviousSecret))
		default:
			return nil, fmt.Errorf("guard %q: unknown driver %q", name, driver)
		}
	}

	return out, nil
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// looksLikeJWT reports whether token has the three dot-separated segments of a JWS.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// TruncateCredential returns at most the first 4 characters followed by "...".
func TruncateCredential(s string) string {
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return s
}
