package envutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvironmentOverridesFile(t *testing.T) {
	src, err := Parse([]byte("port: 9000\naccess_token_ttl: 60\ncors_allowed_origins:\n  - http://a\n  - http://b\nmetrics_enabled: true\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := src.Int("PORT", 8080); got != 9000 {
		t.Fatalf("PORT: want=9000 got=%d", got)
	}
	t.Setenv("PORT", "7000")
	if got := src.Int("PORT", 8080); got != 7000 {
		t.Fatalf("PORT override: want=7000 got=%d", got)
	}
	if got := src.Seconds("ACCESS_TOKEN_TTL", time.Hour); got != time.Minute {
		t.Fatalf("ACCESS_TOKEN_TTL: want=1m got=%v", got)
	}
	if got := src.List("CORS_ALLOWED_ORIGINS", nil); len(got) != 2 || got[1] != "http://b" {
		t.Fatalf("CORS_ALLOWED_ORIGINS: got=%v", got)
	}
	if !src.Bool("METRICS_ENABLED", false) {
		t.Fatalf("METRICS_ENABLED: want=true")
	}
	if got := src.String("MISSING", "def"); got != "def" {
		t.Fatalf("MISSING: want=def got=%q", got)
	}
}

func TestLoadMissingFileIsEnvOnly(t *testing.T) {
	src, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := src.Int("LEANCANVAS_TEST_UNSET", 3); got != 3 {
		t.Fatalf("want=3 got=%d", got)
	}
}

func TestLoadRejectsNestedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("db:\n  host: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("want error for nested mapping")
	}
}

func TestBadNumbersFallBack(t *testing.T) {
	t.Setenv("LEANCANVAS_TEST_NUM", "abc")
	if got := Int("LEANCANVAS_TEST_NUM", 5); got != 5 {
		t.Fatalf("want=5 got=%d", got)
	}
	if got := Float("LEANCANVAS_TEST_NUM", 0.5); got != 0.5 {
		t.Fatalf("want=0.5 got=%v", got)
	}
}

func TestExportKeepsEnvironment(t *testing.T) {
	t.Setenv("LEANCANVAS_TEST_A", "env")
	t.Setenv("LEANCANVAS_TEST_B", "")
	src, err := Parse([]byte("leancanvas_test_a: file\nleancanvas_test_b: file\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := src.Export(); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := os.Getenv("LEANCANVAS_TEST_A"); got != "env" {
		t.Fatalf("A: want=env got=%q", got)
	}
	if got := os.Getenv("LEANCANVAS_TEST_B"); got != "file" {
		t.Fatalf("B: want=file got=%q", got)
	}
}
