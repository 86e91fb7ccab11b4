// Package config provides environment-driven configuration for the toggle service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL       Secret
	Port              string
	ListenHost        string
	CORSOrigins       []string
	LogLevel          string
	LogFormat         string
	RegistryPath      string
	Strict            bool
	DBMaxConns        int32
	RedisURL          Secret
	SessionCookie     string
	JWTSecret         Secret
	JWTPreviousSecret Secret
	AuditQueueSize    int
	AuditAMQPURL      Secret
	AuditAMQPExchange string
	AuditESURL        string
	AuditESIndex      string
	OTelEnabled       bool
	OTelEndpoint      string
	OTelSamplingRate  float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       Secret(envOrDefault("DATABASE_URL", "")),
		Port:              envOrDefault("PORT", "3030"),
		ListenHost:        envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		RegistryPath:      envOrDefault("TOGGLE_CONFIG", "toggle.yaml"),
		Strict:            envOrDefault("TOGGLE_STRICT", "false") == "true",
		RedisURL:          Secret(envOrDefault("REDIS_URL", "")),
		SessionCookie:     envOrDefault("SESSION_COOKIE", "toggle_session"),
		JWTSecret:         Secret(envOrDefault("JWT_SECRET", "")),
		JWTPreviousSecret: Secret(envOrDefault("JWT_PREVIOUS_SECRET", "")),
		AuditAMQPURL:      Secret(envOrDefault("AUDIT_AMQP_URL", "")),
		AuditAMQPExchange: envOrDefault("AUDIT_AMQP_EXCHANGE", "toggle.audit"),
		AuditESURL:        envOrDefault("AUDIT_ES_URL", ""),
		AuditESIndex:      envOrDefault("AUDIT_ES_INDEX", "toggle-audit"),
		OTelEnabled:       envOrDefault("OTEL_ENABLED", "false") == "true",
		OTelEndpoint:      envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "10"))
	if err != nil || maxConns < 2 || maxConns > 100 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 100")
	}
	cfg.DBMaxConns = int32(maxConns) //nolint:gosec // bounded above.

	queueSize, err := strconv.Atoi(envOrDefault("AUDIT_QUEUE_SIZE", "1000"))
	if err != nil || queueSize < 1 || queueSize > 100000 {
		return nil, fmt.Errorf("AUDIT_QUEUE_SIZE must be an integer between 1 and 100000")
	}
	cfg.AuditQueueSize = queueSize

	rate, err := strconv.ParseFloat(envOrDefault("OTEL_SAMPLING_RATE", "1.0"), 64)
	if err != nil || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLING_RATE must be a number between 0 and 1")
	}
	cfg.OTelSamplingRate = rate

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	if strings.Contains(c.ListenHost, ":") {
		return "[" + c.ListenHost + "]:" + c.Port
	}

	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
