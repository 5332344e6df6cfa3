package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "LOG_DIR", "DATABASE_URL", "POSTGRES_HOST",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_PORT", "REDIS_ADDRESS",
		"REDIS_PASSWORD", "REDIS_DB", "LIVE_MAX_FPS", "POSE_WORKER_SCRIPT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.AppPort != DefaultPort || cfg.LiveMaxFPS != DefaultLiveMaxFPS || cfg.PoseWorkerScript != DefaultPoseScript {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.DatabaseURL != DefaultDatabase {
		t.Errorf("Expected default database, got %s", cfg.DatabaseURL)
	}
	if cfg.IsTest() {
		t.Error("Did not expect test env")
	}
}

func TestDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "fc")

	if got, want := DatabaseURL(), "postgres://u:p@db:5432/fc"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	t.Setenv("DATABASE_URL", "postgres://explicit/db")
	if got := DatabaseURL(); got != "postgres://explicit/db" {
		t.Errorf("DATABASE_URL should win, got %s", got)
	}
}

func TestDatabaseURLEscapesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "coach")
	t.Setenv("POSTGRES_PASSWORD", "p@ss/w:rd?")
	t.Setenv("POSTGRES_DB", "fc")

	u, err := url.Parse(DatabaseURL())
	if err != nil {
		t.Fatalf("DatabaseURL is not a valid URL: %v", err)
	}
	if pass, _ := u.User.Password(); pass != "p@ss/w:rd?" {
		t.Errorf("Expected password to round-trip, got %q", pass)
	}
	if u.User.Username() != "coach" || u.Host != "db:5432" || u.Path != "/fc" {
		t.Errorf("Unexpected URL parts: %+v", u)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REDIS_DB", "zero"},
		{"LIVE_MAX_FPS", "fast"},
		{"LIVE_MAX_FPS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("APP_ENV=test\nAPP_PORT=8081\nREDIS_DB=2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.IsTest() || cfg.AppPort != "8081" || cfg.RedisDB != 2 {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Missing env file should not fail, got %v", err)
	}
}
