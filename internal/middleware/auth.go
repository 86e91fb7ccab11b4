package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/auth"
	"github.com/adminkit/toggle/internal/metrics"
	"github.com/adminkit/toggle/internal/models"
	"github.com/adminkit/toggle/internal/security"
)

// AuthContextKey is the gin context key holding the *models.AuthContext.
const AuthContextKey = "auth_context"

// authTimingFloor is the minimum handling time of a request that presented an
// invalid credential, so valid and invalid keys are not distinguishable by latency.
const authTimingFloor = 50 * time.Millisecond

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// ResolveAuth runs every guard against the request and stores the resulting
// AuthContext. It never rejects a request for lacking credentials; handlers
// decide what the context allows. A credential locked out by the brute-force
// guard gets 429 before any guard sees it.
func ResolveAuth(guards []auth.Guard, bf *security.BruteForceGuard, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		authz := models.NewAuthContext()
		failed := false

		for _, g := range guards {
			cred := g.Credential(c.Request)
			if cred == "" {
				continue
			}

			if bf != nil {
				if wait, blocked := bf.RetryAfter(cred); blocked {
					c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
					respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed authentication attempts")
					return
				}
			}

			actor, err := g.Authenticate(c.Request.Context(), cred)
			if err != nil {
				if !errors.Is(err, models.ErrInvalidCredentials) {
					log.WithError(err).WithField("guard", g.Name()).Error("guard backend failed")
					continue
				}

				failed = true
				logAuthFailure(log, c, g, cred)

				if bf != nil && bf.RecordFailure(cred, g.Name()) {
					metrics.AuthLockoutsTotal.WithLabelValues(g.Name()).Inc()
				}

				continue
			}

			if bf != nil {
				bf.Reset(cred)
			}

			authz.Authenticate(g.Name(), actor)
		}

		if failed {
			enforceTimingFloor(start)
		}

		c.Set(AuthContextKey, authz)
		c.Next()
	}
}

// AuthContext returns the context stored by ResolveAuth, or an empty one.
func AuthContext(c *gin.Context) *models.AuthContext {
	if v, ok := c.Get(AuthContextKey); ok {
		if authz, ok := v.(*models.AuthContext); ok {
			return authz
		}
	}

	return models.NewAuthContext()
}

// actorID returns the id of some authenticated actor for logging, or "".
func actorID(c *gin.Context) string {
	v, ok := c.Get(AuthContextKey)
	if !ok {
		return ""
	}

	authz, ok := v.(*models.AuthContext)
	if !ok {
		return ""
	}

	if actor, ok := authz.Any(nil); ok {
		return actor.ID
	}

	return ""
}

// logAuthFailure logs a failed authentication attempt without the credential.
func logAuthFailure(log *logrus.Logger, c *gin.Context, g auth.Guard, credential string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"guard":      g.Name(),
		"driver":     g.Driver(),
		"key_prefix": auth.TruncateCredential(credential),
	}).Warn("authentication failed")
}
