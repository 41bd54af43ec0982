package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Kanjirito/mokuro/internal/config"
	"github.com/Kanjirito/mokuro/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logFormatFlag *string
	logLevelFlag  *string

	configOnce     sync.Once
	config         *config.Config
	configPath     string
	configUsedFile bool
	configErr      error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logFormatFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logFormatFlag: logFormatFlag,
		logLevelFlag:  logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, usedFile, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.configPath = resolvedPath
		c.configUsedFile = usedFile
		if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
			cfg.Logging.Format = strings.TrimSpace(*c.logFormatFlag)
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// configSource reports where configuration came from: the resolved file path
// and whether a file was actually read (false means built-in defaults).
func (c *commandContext) configSource() (string, bool) {
	_, _ = c.ensureConfig()
	return c.configPath, c.configUsedFile
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
