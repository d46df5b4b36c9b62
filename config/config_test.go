package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":8080"
postgres:
  dsn: "postgres://localhost:5432/meet"
auth:
  jwtSecret: "secret"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Logging.Env != "dev" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Rooms.HistoryLimit != 50 {
		t.Fatalf("historyLimit = %d, want 50", cfg.Rooms.HistoryLimit)
	}
	if cfg.EnsureInterval() != 30*time.Second {
		t.Fatalf("ensureInterval = %v, want 30s", cfg.EnsureInterval())
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		t.Fatalf("allowedOrigins default missing")
	}
}

func TestLoadConfigFull(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":9090"
  allowedOrigins: ["https://app.example.com"]
logging:
  env: "prod"
  backend: "zap"
postgres:
  dsn: "postgres://db:5432/meet"
auth:
  jwtSecret: "secret"
  issuer: "random-meet"
rooms:
  historyLimit: 25
  ensureInterval: "1m"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Rooms.HistoryLimit != 25 {
		t.Fatalf("historyLimit = %d", cfg.Rooms.HistoryLimit)
	}
	if cfg.EnsureInterval() != time.Minute {
		t.Fatalf("ensureInterval = %v", cfg.EnsureInterval())
	}
	if cfg.Auth.Issuer != "random-meet" {
		t.Fatalf("issuer = %q", cfg.Auth.Issuer)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no addr", "postgres:\n  dsn: \"x\"\nauth:\n  jwtSecret: \"s\"\n"},
		{"no dsn", "http:\n  addr: \":8080\"\nauth:\n  jwtSecret: \"s\"\n"},
		{"no secret", "http:\n  addr: \":8080\"\npostgres:\n  dsn: \"x\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writeConfig(t, tc.body)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("LoadConfig accepted incomplete config")
			}
		})
	}
}
