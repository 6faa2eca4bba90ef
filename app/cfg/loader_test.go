package cfg

import (
	"os"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if value, ok := os.LookupEnv(key); ok {
		os.Unsetenv(key)
		t.Cleanup(func() { os.Setenv(key, value) })
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// Set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadDefaults(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	oldLocal := time.Local
	defer func() { time.Local = oldLocal }()

	for _, key := range []string{"DB_PATH", "REDIS_ADDR", "PORT", "REFRESH_CRON", "WORKER_COUNT", "TZ", "UPSTREAM_TIMEOUT", "UPSTREAM_URL"} {
		unsetEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected configuration, got nil")
	}

	if cfg.DBPath != "./data/cfa-cal.db" {
		t.Errorf("Expected default DB path, got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.RefreshCron != "0 */6 * * *" {
		t.Errorf("Expected default refresh cron, got '%s'", cfg.RefreshCron)
	}
	if cfg.WorkerCount != 1 {
		t.Errorf("Expected worker count 1, got %d", cfg.WorkerCount)
	}
	if cfg.UpstreamURL != "https://api.guoyingjiaying.cn" {
		t.Errorf("Expected default upstream URL, got '%s'", cfg.UpstreamURL)
	}
	if cfg.UpstreamTimeoutDuration() != 15*time.Second {
		t.Errorf("Expected 15s upstream timeout, got %v", cfg.UpstreamTimeoutDuration())
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled when REDIS_ADDR is empty")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	oldLocal := time.Local
	defer func() { time.Local = oldLocal }()

	t.Setenv("DB_PATH", "/tmp/cal.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("API_ACCOUNT", "user")
	t.Setenv("API_PASSWORD", "secret")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("TZ", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.DBPath != "/tmp/cal.db" {
		t.Errorf("Expected DB path '/tmp/cal.db', got '%s'", cfg.DBPath)
	}
	if !cfg.RedisEnabled() {
		t.Error("Redis should be enabled when REDIS_ADDR is set")
	}
	if cfg.APIAccount != "user" || cfg.APIPassword != "secret" {
		t.Errorf("Expected upstream credentials from environment, got '%s'/'%s'", cfg.APIAccount, cfg.APIPassword)
	}
	if cfg.WorkerCount != 1 {
		t.Errorf("Expected non-positive worker count to fall back to 1, got %d", cfg.WorkerCount)
	}
	if time.Local.String() != "UTC" {
		t.Errorf("Expected time.Local to be UTC, got %s", time.Local.String())
	}
}
