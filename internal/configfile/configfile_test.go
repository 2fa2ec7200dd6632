package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), Dir))
	if err != nil {
		t.Fatalf("Load() on missing config: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config for missing file, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	stashDir := filepath.Join(t.TempDir(), Dir)

	cfg := &Config{
		SpecsRoot:          "work/specs",
		ArchiveRoot:        "work/archive",
		QuietPeriodMinutes: 10,
	}
	if err := cfg.Save(stashDir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(stashDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() returned nil for existing config")
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
	if got := loaded.QuietPeriod(); got != 10*time.Minute {
		t.Errorf("QuietPeriod() = %v, want 10m", got)
	}
}

func TestQuietPeriodUnsetMeansDefault(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.QuietPeriod(); got != 0 {
		t.Errorf("unset quiet period should yield 0 (engine default), got %v", got)
	}
}

func TestLoadRejectsCorruptConfig(t *testing.T) {
	stashDir := filepath.Join(t.TempDir(), Dir)
	if err := os.MkdirAll(stashDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(stashDir), []byte("{oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(stashDir); err == nil {
		t.Error("expected error for corrupt config")
	}
}

func TestFindStashDir(t *testing.T) {
	root := t.TempDir()
	stashDir := filepath.Join(root, Dir)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(stashDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindStashDir(nested); got != stashDir {
		t.Errorf("FindStashDir(%s) = %q, want %q", nested, got, stashDir)
	}
	if got := FindStashDir(filepath.Join(os.TempDir(), "definitely-not-a-project")); got != "" {
		t.Errorf("FindStashDir on unrelated path = %q, want empty", got)
	}
}
