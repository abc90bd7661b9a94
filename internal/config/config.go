package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RunsDir  string `toml:"runs_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Destination contains configuration for the destination photo library.
type Destination struct {
	// Client selects the destination adapter: "photos" drives Apple Photos via
	// osascript, "none" disables destination access (parse and pair only).
	Client             string `toml:"client"`
	OsascriptBinary    string `toml:"osascript_binary"`
	ChunkSize          int    `toml:"chunk_size"`
	RestartEvery       int    `toml:"restart_every"`
	DefaultAlbumPrefix string `toml:"default_album_prefix"`
	CallTimeoutSeconds int    `toml:"call_timeout_seconds"`
}

// Metadata contains configuration for metadata extraction.
type Metadata struct {
	ExiftoolBinary string `toml:"exiftool_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	Concurrency    int    `toml:"concurrency"`
	CacheEnabled   bool   `toml:"cache_enabled"`
	ExifFallback   bool   `toml:"exif_fallback"`
}

// Matching contains the destination matcher policy.
type Matching struct {
	TimestampToleranceSeconds int  `toml:"timestamp_tolerance_seconds"`
	StrictManifestMatch       bool `toml:"strict_manifest_match"`
}

// Reconcile contains run-level behaviour.
type Reconcile struct {
	// Mode is "organize" (destination already holds the media) or "import"
	// (unmatched items are imported).
	Mode   string `toml:"mode"`
	WhatIf bool   `toml:"what_if"`
}

// Filters restricts which albums are acted upon.
type Filters struct {
	IncludeAlbums []string `toml:"include_albums"`
	ExcludeAlbums []string `toml:"exclude_albums"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for takeoutsync.
//
// Configuration sections by subsystem:
//   - Paths: run state, logs, and caches
//   - Destination: destination library adapter and batching
//   - Metadata: exiftool/ffprobe binaries and extraction concurrency
//   - Matching: timestamp tolerance and manifest strictness
//   - Reconcile: run mode and what-if
//   - Filters: album include/exclude lists
//   - Logging: log format, level, and retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	Destination Destination `toml:"destination"`
	Metadata    Metadata    `toml:"metadata"`
	Matching    Matching    `toml:"matching"`
	Reconcile   Reconcile   `toml:"reconcile"`
	Filters     Filters     `toml:"filters"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/takeoutsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("takeoutsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the run, log, and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RunsDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MetadataCachePath returns the location of the sqlite metadata cache.
func (c *Config) MetadataCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "metadata.db")
}

// ImportMode reports whether unmatched items should be imported.
func (c *Config) ImportMode() bool {
	return c.Reconcile.Mode == ModeImport
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
