package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDestination()
	c.normalizeMetadata()
	c.normalizeMatching()
	c.normalizeReconcile()
	c.normalizeFilters()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RunsDir) == "" {
		c.Paths.RunsDir = defaultRunsDir
	}
	if c.Paths.RunsDir, err = expandPath(c.Paths.RunsDir); err != nil {
		return fmt.Errorf("paths.runs_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDestination() {
	c.Destination.Client = strings.ToLower(strings.TrimSpace(c.Destination.Client))
	if c.Destination.Client == "" {
		c.Destination.Client = defaultDestinationClient
	}
	c.Destination.OsascriptBinary = strings.TrimSpace(c.Destination.OsascriptBinary)
	if c.Destination.OsascriptBinary == "" {
		c.Destination.OsascriptBinary = defaultOsascriptBinary
	}
	if c.Destination.ChunkSize <= 0 {
		c.Destination.ChunkSize = defaultChunkSize
	}
	if c.Destination.RestartEvery < 0 {
		c.Destination.RestartEvery = 0
	}
	if c.Destination.CallTimeoutSeconds <= 0 {
		c.Destination.CallTimeoutSeconds = defaultCallTimeoutSeconds
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.ExiftoolBinary = strings.TrimSpace(c.Metadata.ExiftoolBinary)
	if c.Metadata.ExiftoolBinary == "" {
		c.Metadata.ExiftoolBinary = defaultExiftoolBinary
	}
	c.Metadata.FFprobeBinary = strings.TrimSpace(c.Metadata.FFprobeBinary)
	if c.Metadata.FFprobeBinary == "" {
		c.Metadata.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Metadata.Concurrency <= 0 {
		c.Metadata.Concurrency = 1
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.TimestampToleranceSeconds < 0 {
		c.Matching.TimestampToleranceSeconds = 0
	}
}

func (c *Config) normalizeReconcile() {
	c.Reconcile.Mode = strings.ToLower(strings.TrimSpace(c.Reconcile.Mode))
	if c.Reconcile.Mode == "" {
		c.Reconcile.Mode = defaultMode
	}
}

func (c *Config) normalizeFilters() {
	c.Filters.IncludeAlbums = cleanList(c.Filters.IncludeAlbums)
	c.Filters.ExcludeAlbums = cleanList(c.Filters.ExcludeAlbums)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
