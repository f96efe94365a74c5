package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetMatchesGlobCaseInsensitively(t *testing.T) {
	r := New()
	got := r.Get("MAX*")
	if len(got) != 2 {
		t.Fatalf("Get(MAX*) returned %d parameters, want 2", len(got))
	}
}

func TestSetRejectsUnknownParameter(t *testing.T) {
	r := New()
	if err := r.Set("not-a-real-param", "x"); err == nil {
		t.Fatalf("Set on unknown parameter succeeded, want error")
	}
}

func TestSetRejectsReadOnlyParameter(t *testing.T) {
	r := New()
	if err := r.Set("port", "7000"); err == nil {
		t.Fatalf("Set on read-only parameter succeeded, want error")
	}
}

func TestSetRejectsInvalidEnumValue(t *testing.T) {
	r := New()
	if err := r.Set("appendfsync", "sometimes"); err == nil {
		t.Fatalf("Set with bad enum value succeeded, want error")
	}
}

func TestSetAcceptsValidValueAndGetReflectsIt(t *testing.T) {
	r := New()
	if err := r.Set("maxmemory", "104857600"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := r.Get("maxmemory")
	if len(got) != 1 || got[0].Value != "104857600" {
		t.Fatalf("Get(maxmemory) = %v", got)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	r := New()
	if err := r.Load(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
}

func TestLoadAppliesRecognizedParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"maxmemory-policy":"allkeys-lru","port":"6380"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	if err := r.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := r.Get("maxmemory-policy")
	if len(got) != 1 || got[0].Value != "allkeys-lru" {
		t.Fatalf("maxmemory-policy = %v", got)
	}
	got = r.Get("port")
	if len(got) != 1 || got[0].Value != "6380" {
		t.Fatalf("port = %v, want overridden to 6380 (read-only only blocks CONFIG SET, not Load)", got)
	}
}

func TestLoadRejectsInvalidEnumValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"appendfsync":"sometimes"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	if err := r.Load(path); err == nil {
		t.Fatalf("Load with invalid enum value succeeded, want error")
	}
}

func TestRewriteRoundTripsCurrentValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := New()
	if err := r.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := r.Set("maxmemory", "2048"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Rewrite(); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	r2 := New()
	if err := r2.Load(path); err != nil {
		t.Fatalf("reload after Rewrite: %v", err)
	}
	got := r2.Get("maxmemory")
	if len(got) != 1 || got[0].Value != "2048" {
		t.Fatalf("maxmemory after reload = %v, want 2048", got)
	}
}

func TestRewriteWithoutPathErrors(t *testing.T) {
	r := New()
	if err := r.Rewrite(); err == nil {
		t.Fatalf("Rewrite without a loaded path succeeded, want error")
	}
}

func TestResetStatIncrementsCounter(t *testing.T) {
	r := New()
	if r.StatsResetCount() != 0 {
		t.Fatalf("StatsResetCount() = %d, want 0", r.StatsResetCount())
	}
	r.ResetStat()
	r.ResetStat()
	if r.StatsResetCount() != 2 {
		t.Fatalf("StatsResetCount() = %d, want 2", r.StatsResetCount())
	}
}
