// Package config loads service configuration from environment variables.
// Defaults are applied for unset values and everything is validated on
// startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Source modes.
const (
	ModeDir      = "dir"
	ModeHTTP     = "http"
	ModePostgres = "postgres"
)

// Config holds all service configuration.
type Config struct {
	Server  ServerConfig
	Source  SourceConfig
	History HistoryConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are honored.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// SourceConfig selects where the log and reference tables come from.
type SourceConfig struct {
	// Mode is one of dir, http or postgres (default: dir)
	Mode string `env:"SOURCE_MODE" default:"dir"`

	// Dir holds the CSV snapshots in dir mode (default: ./data)
	Dir string `env:"SOURCE_DIR" default:"./data"`

	// BaseURL is the snapshot endpoint in http mode. Table files are
	// requested relative to it.
	BaseURL string `env:"SOURCE_BASE_URL"`

	// DatabaseURL is the PostgreSQL connection string in postgres mode.
	// Supports both DATABASE_URL and DB_URL.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns caps the pgx pool in postgres mode (default: 8)
	MaxConns int `env:"DB_MAX_CONNS" default:"8"`

	// FetchTimeout bounds a single table fetch (default: 15s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"15s"`

	// Retries is the number of attempts per table in http mode (default: 3)
	Retries int `env:"SOURCE_RETRIES" default:"3"`

	Backoff    time.Duration `env:"SOURCE_BACKOFF" default:"500ms"`
	MaxBackoff time.Duration `env:"SOURCE_MAX_BACKOFF" default:"5s"`

	// Manifest is an optional YAML file overriding per-table file names,
	// queries and optionality.
	Manifest string `env:"SOURCE_MANIFEST"`
}

// HistoryConfig holds query engine settings.
type HistoryConfig struct {
	// PageSize is the number of events per page (default: 50)
	PageSize int `env:"HISTORY_PAGE_SIZE" default:"50"`

	// ReloadInterval triggers a background reload; 0 disables it (default: 15m)
	ReloadInterval time.Duration `env:"HISTORY_RELOAD_INTERVAL" default:"15m"`

	// SessionTTL expires idle query sessions (default: 30m)
	SessionTTL time.Duration `env:"HISTORY_SESSION_TTL" default:"30m"`

	// ExportLimit caps rows in a CSV export; 0 means unlimited (default: 0)
	ExportLimit int `env:"HISTORY_EXPORT_LIMIT" default:"0"`

	// ExportConcurrency caps simultaneous CSV exports (default: 2)
	ExportConcurrency int `env:"HISTORY_EXPORT_CONCURRENCY" default:"2"`

	// ExportWait is how long an export waits for a free slot (default: 10s)
	ExportWait time.Duration `env:"HISTORY_EXPORT_WAIT" default:"10s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
