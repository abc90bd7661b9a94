package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"takeoutsync/internal/config"
	"takeoutsync/internal/destination"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/services/photos"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logger() (*slog.Logger, error) {
	return logging.NewFromConfig(c.configValue())
}

// destination returns the configured destination client, or nil when the
// destination is disabled.
func (c *commandContext) destination() destination.Client {
	cfg := c.configValue()
	if cfg == nil || cfg.Destination.Client != config.ClientPhotos {
		return nil
	}
	return c.photosClient()
}

func (c *commandContext) photosClient() *photos.Client {
	cfg := c.configValue()
	if cfg == nil {
		return photos.New("")
	}
	return photos.New(cfg.Destination.OsascriptBinary,
		photos.WithTimeout(time.Duration(cfg.Destination.CallTimeoutSeconds)*time.Second))
}

// requirePhotos returns the Photos client or an error when the destination is
// disabled.
func (c *commandContext) requirePhotos() (*photos.Client, error) {
	cfg := c.configValue()
	if cfg == nil || cfg.Destination.Client != config.ClientPhotos {
		return nil, errors.New("destination.client is not \"photos\"; nothing to query")
	}
	return c.photosClient(), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
