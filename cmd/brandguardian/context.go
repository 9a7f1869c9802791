package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"brandguardian/internal/config"
	"brandguardian/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds the CLI logger. Verbose output goes to stderr so stdout stays
// parseable when --json is set.
func (c *commandContext) logger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level := "warn"
	if verbose {
		level = cfg.Logging.Level
	}
	return logging.New(logging.Options{
		Level:   level,
		Format:  cfg.Logging.Format,
		Outputs: []string{"stderr"},
	})
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
