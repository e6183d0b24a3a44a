package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mapwatch/internal/config"
)

const (
	annotationConfig = "configLoad"
	configSkip       = "skip"
	configLoose      = "loose"
	configStrict     = "strict"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	looseOnce sync.Once
	loose     *config.Config
	looseErr  error
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

// ensureConfig loads and validates the configuration. Commands that talk to
// Twitch or run the watch loop use it.
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

// looseConfig loads the configuration without validation, for read-only
// commands that work without Twitch credentials.
func (c *commandContext) looseConfig() (*config.Config, error) {
	c.looseOnce.Do(func() {
		cfg, _, _, err := config.LoadUnvalidated(c.configPath())
		if err != nil {
			c.looseErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.looseErr = err
			return
		}
		c.loose = cfg
	})
	return c.loose, c.looseErr
}

func configMode(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if mode := c.Annotations[annotationConfig]; mode != "" {
			return mode
		}
	}
	return configStrict
}

func skipConfig() map[string]string {
	return map[string]string{annotationConfig: configSkip}
}

func looseConfig() map[string]string {
	return map[string]string{annotationConfig: configLoose}
}
