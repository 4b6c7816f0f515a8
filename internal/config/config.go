// Package config provides configuration types, defaults, and
// persistence for the loom CLI.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all configuration options.
type Config struct {
	// Path is the file or directory watched by the file feed.
	Path string `mapstructure:"path" yaml:"path"`
	// Debug enables the structured log file and the log feed pane.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Refresh RefreshConfig `mapstructure:"refresh" yaml:"refresh"`
	Theme   ThemeConfig   `mapstructure:"theme" yaml:"theme"`
}

// RefreshConfig tunes the event feeds.
type RefreshConfig struct {
	// Tick is the clock feed interval.
	Tick time.Duration `mapstructure:"tick" yaml:"tick"`
	// Debounce collapses bursts of file changes into one event.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// ThemeConfig holds color customization options, as hex values.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight" yaml:"highlight"`
	Subtle    string `mapstructure:"subtle" yaml:"subtle"`
	Error     string `mapstructure:"error" yaml:"error"`
	Success   string `mapstructure:"success" yaml:"success"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Path:  ".",
		Debug: false,
		Refresh: RefreshConfig{
			Tick:     time.Second,
			Debounce: 500 * time.Millisecond,
		},
		Theme: ThemeConfig{
			Highlight: "#7D56F4",
			Subtle:    "#6B7280",
			Error:     "#EF4444",
			Success:   "#10B981",
		},
	}
}

// Validate checks the configuration for values that would break the
// UI at runtime.
func (c Config) Validate() error {
	if c.Refresh.Tick <= 0 {
		return fmt.Errorf("refresh.tick must be positive, got %s", c.Refresh.Tick)
	}
	if c.Refresh.Debounce < 0 {
		return fmt.Errorf("refresh.debounce must not be negative, got %s", c.Refresh.Debounce)
	}
	for name, v := range map[string]string{
		"theme.highlight": c.Theme.Highlight,
		"theme.subtle":    c.Theme.Subtle,
		"theme.error":     c.Theme.Error,
		"theme.success":   c.Theme.Success,
	} {
		if err := validateHexColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func validateHexColor(v string) error {
	if v == "" {
		return nil // empty means "use the default"
	}
	if !strings.HasPrefix(v, "#") || (len(v) != 4 && len(v) != 7) {
		return fmt.Errorf("invalid hex color %q", v)
	}
	for _, r := range v[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("invalid hex color %q", v)
		}
	}
	return nil
}
