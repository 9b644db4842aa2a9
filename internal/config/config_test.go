package config

import (
	"strings"
	"testing"
	"time"
)

// env returns a lookup over a fixed map.
func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Source:  SourceConfig{Mode: ModeDir, Dir: "./data", FetchTimeout: time.Second, Retries: 1, Backoff: time.Millisecond, MaxBackoff: time.Second},
		History: HistoryConfig{PageSize: 50, SessionTTL: time.Minute, ExportConcurrency: 1},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWith(env(nil))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Source.Mode != ModeDir {
		t.Errorf("Source.Mode = %q, want %q", cfg.Source.Mode, ModeDir)
	}
	if cfg.Source.Dir != "./data" {
		t.Errorf("Source.Dir = %q, want %q", cfg.Source.Dir, "./data")
	}
	if cfg.Source.Retries != 3 {
		t.Errorf("Source.Retries = %d, want %d", cfg.Source.Retries, 3)
	}
	if cfg.History.PageSize != 50 {
		t.Errorf("History.PageSize = %d, want %d", cfg.History.PageSize, 50)
	}
	if cfg.History.ReloadInterval != 15*time.Minute {
		t.Errorf("History.ReloadInterval = %v, want %v", cfg.History.ReloadInterval, 15*time.Minute)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadWith(env(map[string]string{
		"SERVER_PORT":       "9090",
		"SOURCE_MODE":       "HTTP",
		"SOURCE_BASE_URL":   "https://example.com/csv/",
		"HISTORY_PAGE_SIZE": "25",
		"LOG_LEVEL":         "debug",
	}))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Source.Mode != ModeHTTP {
		t.Errorf("Source.Mode = %q, want %q", cfg.Source.Mode, ModeHTTP)
	}
	if cfg.History.PageSize != 25 {
		t.Errorf("History.PageSize = %d, want %d", cfg.History.PageSize, 25)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_FromProcessEnv(t *testing.T) {
	t.Setenv("SOURCE_DIR", "/srv/history")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.Dir != "/srv/history" {
		t.Errorf("Source.Dir = %q, want %q", cfg.Source.Dir, "/srv/history")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadWith(env(map[string]string{
		"SOURCE_MODE": "postgres",
		"DB_URL":      "postgres://localhost/alttest",
	}))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	if cfg.Source.DatabaseURL != "postgres://localhost/alttest" {
		t.Errorf("Source.DatabaseURL = %q, want %q", cfg.Source.DatabaseURL, "postgres://localhost/alttest")
	}
}

func TestLoad_ModeRequirements(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"http without url", map[string]string{"SOURCE_MODE": "http"}, "SOURCE_BASE_URL"},
		{"postgres without url", map[string]string{"SOURCE_MODE": "postgres"}, "DATABASE_URL"},
		{"unknown mode", map[string]string{"SOURCE_MODE": "ftp"}, "SOURCE_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWith(env(tt.vars))
			if err == nil {
				t.Fatal("LoadWith() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadWith(env(map[string]string{
		"SERVER_READ_TIMEOUT":     "45s",
		"HISTORY_RELOAD_INTERVAL": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.History.ReloadInterval != 90*time.Second {
		t.Errorf("History.ReloadInterval = %v, want %v", cfg.History.ReloadInterval, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadWith(env(map[string]string{
		"SERVER_TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.1",
	}))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.1"}
	if len(cfg.Server.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Server.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Server.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Server.TrustedProxies[i], v)
		}
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	_, err := LoadWith(env(map[string]string{"HISTORY_PAGE_SIZE": "lots"}))
	if err == nil {
		t.Fatal("LoadWith() expected error for non-numeric page size")
	}
	if !strings.Contains(err.Error(), "HISTORY_PAGE_SIZE") {
		t.Errorf("error = %q, want it to name the variable", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero page size", func(c *Config) { c.History.PageSize = 0 }, "HISTORY_PAGE_SIZE"},
		{"negative reload interval", func(c *Config) { c.History.ReloadInterval = -time.Second }, "HISTORY_RELOAD_INTERVAL"},
		{"backoff above max", func(c *Config) { c.Source.Backoff = time.Minute }, "SOURCE_MAX_BACKOFF"},
		{"zero export concurrency", func(c *Config) { c.History.ExportConcurrency = 0 }, "HISTORY_EXPORT_CONCURRENCY"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestString_MasksDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Source.DatabaseURL = "postgres://user:secret@db/history"

	s := cfg.String()
	if strings.Contains(s, "secret") {
		t.Errorf("String() leaked the database URL: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked database URL", s)
	}
}

func TestServerAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8081}
	if got := c.Addr(); got != "127.0.0.1:8081" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8081")
	}
}
