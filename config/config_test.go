package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	for _, key := range []string{"CROQUIS_API_URL", "CROQUIS_TOKEN", "CROQUIS_EVENT", "CROQUIS_HTTP_TIMEOUT", "CROQUIS_RATE"} {
		t.Setenv(key, "")
	}

	cfg := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if cfg.APIURL != "http://localhost:3001/api" {
		t.Fatalf("unexpected api url: %s", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 12*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.HTTPTimeout)
	}
	if cfg.Rate != 10 || cfg.EventID != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("CROQUIS_API_URL", "https://tickets.example.com/api/")
	t.Setenv("CROQUIS_EVENT", "12")
	t.Setenv("CROQUIS_HTTP_TIMEOUT", "30")
	t.Setenv("CROQUIS_RATE", "2.5")

	cfg := LoadFrom()
	if cfg.APIURL != "https://tickets.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.EventID != 12 || cfg.HTTPTimeout != 30*time.Second || cfg.Rate != 2.5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFrom_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := "CROQUIS_TOKEN=from-file\nCROQUIS_DEV_SECRET=file-secret\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CROQUIS_TOKEN", "from-env")
	t.Setenv("CROQUIS_DEV_SECRET", "")
	os.Unsetenv("CROQUIS_DEV_SECRET")

	cfg := LoadFrom(file)
	if cfg.Token != "from-env" {
		t.Fatalf("expected environment to win, got %q", cfg.Token)
	}
	if cfg.DevSecret != "file-secret" {
		t.Fatalf("expected secret from file, got %q", cfg.DevSecret)
	}
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("CROQUIS_HTTP_TIMEOUT", "soon")
	if got := getEnvAsDuration("CROQUIS_HTTP_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("CROQUIS_HTTP_TIMEOUT", "1m")
	if got := getEnvAsDuration("CROQUIS_HTTP_TIMEOUT", time.Second); got != time.Minute {
		t.Fatalf("expected 1m, got %v", got)
	}
}
