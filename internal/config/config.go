// Package config loads optional defaults for dirdive from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// FileName is the config file looked up in the XDG config directories.
const FileName = "dirdive/config.json"

// Outputs lists the accepted output formats.
//
//nolint:gochecknoglobals // Config constant
var Outputs = []string{"table", "json", "paths"}

// Config holds defaults that command-line flags may override.
type Config struct {
	// Output is the default output format.
	Output string `json:"output"`
	// Top limits the number of rows printed (0 = all).
	Top int `json:"top"`
	// Confirm asks before deleting. Nil means true.
	Confirm *bool `json:"confirm"`
	// Debug enables debug logging.
	Debug bool `json:"debug"`
	// ProgressInterval is a duration string such as "250ms".
	ProgressInterval string `json:"progress_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Output: "table"}
}

// ConfirmDeletes reports whether deletions should be confirmed.
func (c Config) ConfirmDeletes() bool {
	return c.Confirm == nil || *c.Confirm
}

// Interval parses ProgressInterval; an empty value yields zero.
func (c Config) Interval() (time.Duration, error) {
	if c.ProgressInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("progress_interval: %w", err)
	}

	return d, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Top < 0 {
		return errors.New("top cannot be negative")
	}

	if !slices.Contains(Outputs, c.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.Output, Outputs)
	}

	if _, err := c.Interval(); err != nil {
		return err
	}

	return nil
}

// Load reads the configuration from explicit, or from the first existing
// default location when explicit is empty. Fields missing from the file keep
// their defaults. The returned path is empty when no file was read.
func Load(explicit string) (Config, string, error) {
	cfg := Default()

	path, ok := resolvePath(explicit)
	if !ok {
		return cfg, "", nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, "", fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := json.Unmarshal(content, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, "", fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, path, nil
}

func resolvePath(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}

	for _, candidate := range defaultPaths() {
		if fileExists(candidate) {
			return candidate, true
		}
	}

	return "", false
}

//nolint:gochecknoglobals // Replaced in tests
var defaultPaths = func() []string {
	paths := []string{filepath.Join(xdg.ConfigHome, FileName)}
	for _, dir := range xdg.ConfigDirs {
		paths = append(paths, filepath.Join(dir, FileName))
	}

	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
