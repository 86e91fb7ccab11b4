package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// MinJWTSecretLen is the minimum HS256 secret length in bytes.
const MinJWTSecretLen = 32

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateSecrets(); err != nil {
		return err
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if !isLoopback(dbHost) {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local deployments, 0.0.0.0/:: when a container boundary
	// enforces exposure.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) validateSecrets() error {
	if s := c.JWTSecret.Value(); s != "" && len(s) < MinJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLen)
	}

	if s := c.JWTPreviousSecret.Value(); s != "" && len(s) < MinJWTSecretLen {
		return fmt.Errorf("JWT_PREVIOUS_SECRET must be at least %d bytes", MinJWTSecretLen)
	}

	if s := c.RedisURL.Value(); s != "" {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("REDIS_URL must be a redis:// or rediss:// URL")
		}
	}

	return nil
}

func (c *Config) validateAudit() error {
	if s := c.AuditAMQPURL.Value(); s != "" {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			return fmt.Errorf("AUDIT_AMQP_URL must be an amqp:// or amqps:// URL")
		}
		if c.AuditAMQPExchange == "" {
			return fmt.Errorf("AUDIT_AMQP_EXCHANGE is required when AUDIT_AMQP_URL is set")
		}
	}

	if c.AuditESURL != "" {
		u, err := url.ParseRequestURI(c.AuditESURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("AUDIT_ES_URL is not a valid URL")
		}
		if !isLoopback(u.Hostname()) && u.Scheme != "https" {
			return fmt.Errorf("AUDIT_ES_URL must use HTTPS for non-localhost connections")
		}
	}

	return nil
}

// ValidateDrivers checks the settings required by the guard drivers the
// registry file defines. It runs after the registry is loaded.
func (c *Config) ValidateDrivers(drivers map[string]string) error {
	for name, driver := range drivers {
		switch driver {
		case "session":
			if c.RedisURL.Value() == "" {
				return fmt.Errorf("REDIS_URL is required by session guard %q", name)
			}
			if c.SessionCookie == "" {
				return fmt.Errorf("SESSION_COOKIE is required by session guard %q", name)
			}
		case "jwt":
			if c.JWTSecret.Value() == "" {
				return fmt.Errorf("JWT_SECRET is required by jwt guard %q", name)
			}
		}
	}

	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
