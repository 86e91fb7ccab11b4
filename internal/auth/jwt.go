package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adminkit/toggle/internal/models"
)

// DefaultLeeway is the clock skew tolerated when validating tokens.
const DefaultLeeway = 30 * time.Second

// ErrExpiredToken is returned when the token has expired.
var ErrExpiredToken = errors.New("token has expired")

// Claims are the JWT claims the jwt guard accepts.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// JWTGuard authenticates HS256 bearer tokens. Tokens are signed with the
// current secret and validated against the current then the previous secret,
// so secrets can rotate without downtime.
type JWTGuard struct {
	name           string
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewJWTGuard creates a jwt guard. previous may be empty.
func NewJWTGuard(name, current, previous string) *JWTGuard {
	g := &JWTGuard{
		name:          name,
		currentSecret: []byte(current),
		leeway:        DefaultLeeway,
	}
	if previous != "" {
		g.previousSecret = []byte(previous)
	}
	return g
}

// Name implements Guard.
func (g *JWTGuard) Name() string { return g.name }

// Driver implements Guard.
func (g *JWTGuard) Driver() string { return "jwt" }

// Credential returns the bearer token only when it is shaped like a JWT.
func (g *JWTGuard) Credential(r *http.Request) string {
	tok := BearerToken(r)
	if !looksLikeJWT(tok) {
		return ""
	}
	return tok
}

// Issue signs a token for subject with the current secret.
func (g *JWTGuard) Issue(subject, name string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject cannot be empty")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.currentSecret)
}

// Authenticate accepts tokens signed with either the current or the previous
// secret.
func (g *JWTGuard) Authenticate(_ context.Context, token string) (*models.Actor, error) {
	claims, err := g.parse(token, g.currentSecret)
	if err != nil && g.previousSecret != nil && !errors.Is(err, ErrExpiredToken) {
		claims, err = g.parse(token, g.previousSecret)
	}
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", models.ErrInvalidCredentials)
	}

	return &models.Actor{ID: claims.Subject, Name: claims.Name, Guard: g.name}, nil
}

func (g *JWTGuard) parse(token string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, models.ErrInvalidCredentials
		}
		return secret, nil
	}, jwt.WithLeeway(g.leeway), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredToken, models.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("invalid token: %w", models.ErrInvalidCredentials)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", models.ErrInvalidCredentials)
	}

	return claims, nil
}
