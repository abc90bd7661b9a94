package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDestination(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDestination() error {
	switch c.Destination.Client {
	case ClientPhotos, ClientNone:
	default:
		return fmt.Errorf("destination.client must be %q or %q, got %q", ClientPhotos, ClientNone, c.Destination.Client)
	}
	if c.Destination.ChunkSize <= 0 {
		return errors.New("destination.chunk_size must be positive")
	}
	if c.Destination.RestartEvery > 0 && c.Destination.RestartEvery < c.Destination.ChunkSize {
		return errors.New("destination.restart_every must be 0 or at least destination.chunk_size")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	switch c.Reconcile.Mode {
	case ModeOrganize, ModeImport:
		return nil
	default:
		return fmt.Errorf("reconcile.mode must be %q or %q, got %q", ModeOrganize, ModeImport, c.Reconcile.Mode)
	}
}

func (c *Config) validateFilters() error {
	for _, pattern := range append(append([]string{}, c.Filters.IncludeAlbums...), c.Filters.ExcludeAlbums...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("filters: invalid album pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
