// Package config loads application settings from an optional TOML file.
// Settings cover display and print resolution, the working unit, and the
// pagination safety ceiling; command-line flags override file values.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/units"
)

const appName = "prototypyside"

// Config holds the application settings.
type Config struct {
	// DisplayUnit is the unit shown in UIs and summaries: in, mm, cm, pt, px.
	DisplayUnit string `toml:"display_unit"`

	// DisplayDPI converts physical units to screen pixels.
	DisplayDPI int `toml:"display_dpi"`

	// PrintDPI is the raster resolution for exports.
	PrintDPI int `toml:"print_dpi"`

	// LockAt caps how many pages a single pagination run may generate.
	LockAt int `toml:"lock_at"`

	// FontDir overrides system font lookup during export.
	FontDir string `toml:"font_dir"`

	// NoCache disables the render cache.
	NoCache bool `toml:"no_cache"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DisplayUnit: "in",
		DisplayDPI:  144,
		PrintDPI:    300,
		LockAt:      500,
	}
}

// Load reads the config file at path. A missing file returns the defaults;
// a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefault reads the config from the standard location, or returns the
// defaults when no file exists.
func LoadDefault() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

// Path returns the config file location using the XDG standard
// (~/.config/prototypyside/config.toml).
func Path() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the render cache directory using the XDG standard
// (~/.cache/prototypyside/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if _, err := units.ParseUnit(c.DisplayUnit); err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "display_unit")
	}
	if c.DisplayDPI <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "display_dpi must be positive, got %d", c.DisplayDPI)
	}
	if c.PrintDPI <= 0 {
		return errors.New(errors.ErrCodeConfiguration, "print_dpi must be positive, got %d", c.PrintDPI)
	}
	if c.LockAt < 1 {
		return errors.New(errors.ErrCodeConfiguration, "lock_at must be at least 1, got %d", c.LockAt)
	}
	return nil
}

// Unit returns the parsed display unit.
func (c Config) Unit() units.Unit {
	u, err := units.ParseUnit(c.DisplayUnit)
	if err != nil {
		return units.In
	}
	return u
}
