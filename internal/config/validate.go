package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	validOutputs    = []string{"text", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks option values.
func (c *Config) Validate() error {
	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("output must be one of %s, got %q", strings.Join(validOutputs, ", "), c.Output)
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of %s, got %q", strings.Join(validLogFormats, ", "), c.Log.Format)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}
	if c.Resolver.MaxViewDepth < 0 {
		return fmt.Errorf("resolver.max_view_depth must not be negative, got %d", c.Resolver.MaxViewDepth)
	}
	if c.Serve.Addr == "" {
		return errors.New("serve.addr must not be empty")
	}
	for i, f := range c.Functions {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("functions[%d]: %w", i, err)
		}
	}
	return nil
}
