package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/units"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Unit() != units.In {
		t.Errorf("Unit = %v, want in", cfg.Unit())
	}
	if cfg.PrintDPI != 300 {
		t.Errorf("PrintDPI = %d, want 300", cfg.PrintDPI)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "display_unit = \"mm\"\nprint_dpi = 600\nlock_at = 50\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Unit() != units.Mm {
		t.Errorf("Unit = %v, want mm", cfg.Unit())
	}
	if cfg.PrintDPI != 600 {
		t.Errorf("PrintDPI = %d, want 600", cfg.PrintDPI)
	}
	if cfg.LockAt != 50 {
		t.Errorf("LockAt = %d, want 50", cfg.LockAt)
	}
	// untouched keys keep their defaults
	if cfg.DisplayDPI != Default().DisplayDPI {
		t.Errorf("DisplayDPI = %d, want default %d", cfg.DisplayDPI, Default().DisplayDPI)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad_unit.toml": "display_unit = \"furlong\"\n",
		"bad_dpi.toml":  "print_dpi = -1\n",
		"bad_lock.toml": "lock_at = 0\n",
		"bad_toml.toml": "display_unit = [\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, errors.ErrCodeConfiguration) {
			t.Errorf("%s: error = %v, want CONFIGURATION_ERROR", name, err)
		}
	}
}

func TestPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != "/tmp/xdg/prototypyside/config.toml" {
		t.Errorf("Path = %s", path)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdgcache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir: %v", err)
	}
	if dir != "/tmp/xdgcache/prototypyside" {
		t.Errorf("CacheDir = %s", dir)
	}
}
