// Package config provides centralized configuration management for the console.
// It loads configuration from environment variables with defaults and
// validates all settings on startup so a misconfigured deployment fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Audit    AuditConfig
	Table    TableConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request through the chi Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// BackendConfig describes the church REST API the console is a client of.
type BackendConfig struct {
	// BaseURL is the API root, e.g. https://api.salvationministries.org/v1 (required)
	BaseURL string `env:"API_BASE_URL" envAlt:"BACKEND_URL" required:"true"`

	// Timeout is the per-request HTTP timeout (default: 15s)
	Timeout time.Duration `env:"API_TIMEOUT" default:"15s"`

	// MaxConcurrent caps in-flight backend requests (default: 8)
	MaxConcurrent int `env:"API_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a request waits for a backend slot (default: 10s)
	MaxWaitTime time.Duration `env:"API_MAX_WAIT_TIME" default:"10s"`

	// SessionCookie is the cookie carrying the backend session token (default: session)
	SessionCookie string `env:"API_SESSION_COOKIE" default:"session"`
}

// CacheConfig holds remote resource cache settings.
type CacheConfig struct {
	TTL        time.Duration `env:"CACHE_TTL" default:"30s"`
	MaxEntries int           `env:"CACHE_MAX_ENTRIES" default:"512"`
}

// DatabaseConfig holds the optional audit database connection settings.
// When URL is empty the audit trail is kept in memory and written to the
// structured log.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// MutationLimit is requests per minute for create/update/delete routes (default: 30)
	MutationLimit int `env:"RATE_LIMIT_MUTATIONS" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireSession rejects requests without a resolvable backend session (default: true)
	RequireSession bool `env:"REQUIRE_SESSION" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuditConfig holds audit trail retention settings.
type AuditConfig struct {
	RetentionDays int           `env:"AUDIT_RETENTION_DAYS" default:"365"`
	CheckInterval time.Duration `env:"AUDIT_CHECK_INTERVAL" default:"24h"`
}

// TableConfig holds list screen defaults.
type TableConfig struct {
	DefaultPageSize int   `env:"TABLE_DEFAULT_PAGE_SIZE" default:"10"`
	PageSizes       []int `env:"TABLE_PAGE_SIZES" default:"10,20,50"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AuditEnabled reports whether a database is configured for the audit trail.
func (c *Config) AuditEnabled() bool {
	return c.Database.URL != ""
}
