package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	f, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.GC.StressTest || f.GC.LogStats || f.GC.InitialThreshold != 0 {
		t.Errorf("got non-zero defaults: %+v", f)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if f.GC.InitialThreshold != 0 {
		t.Errorf("expected zero-value defaults, got %+v", f)
	}
}

func TestLoadParsesKnownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox.yaml")
	contents := `
gc:
  stress_test: true
  log_stats: true
  initial_threshold: 2048
output:
  color: false
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.GC.StressTest || !f.GC.LogStats || f.GC.InitialThreshold != 2048 {
		t.Errorf("got %+v, want stress_test=true log_stats=true initial_threshold=2048", f)
	}
	if f.Output.Color == nil || *f.Output.Color != false {
		t.Errorf("got Output.Color=%v, want explicit false", f.Output.Color)
	}
}

func TestLoadMalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("gc: [this is not a mapping"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed YAML, got nil")
	}
}

func TestHasSourceExt(t *testing.T) {
	cases := map[string]bool{
		"script.lox": true,
		"script.txt": false,
		".lox":       true,
		"lox":        false,
		"":           false,
	}
	for path, want := range cases {
		if got := HasSourceExt(path); got != want {
			t.Errorf("HasSourceExt(%q) = %v, want %v", path, got, want)
		}
	}
}
