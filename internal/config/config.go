// Package config loads showhidden settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/host"
	"github.com/ppiankov/showhidden/internal/override"
)

// ErrInvalidScope is returned for a scope other than narrow or broad.
var ErrInvalidScope = errors.New("invalid scope")

// Rule forces one capability bit. Grant defaults to true when omitted.
type Rule struct {
	Bit    capability.Bitmask  `yaml:"bit"`
	Legacy capability.LegacyID `yaml:"legacy,omitempty"`
	Grant  *bool               `yaml:"grant,omitempty"`
}

// Style controls how hidden items are presented.
type Style struct {
	Name        string `yaml:"name"`
	HiddenClass string `yaml:"hidden_class"`
	CSS         string `yaml:"css,omitempty"`
}

// Config holds all configurable session parameters.
type Config struct {
	Scope          string   `yaml:"scope" env:"SHOWHIDDEN_SCOPE"`
	Rules          []Rule   `yaml:"rules"`
	ForcedSettings []string `yaml:"forced_settings"`
	Style          Style    `yaml:"style"`
	LockScreen     bool     `yaml:"lock_screen" env:"SHOWHIDDEN_LOCK_SCREEN"`
	Notify         bool     `yaml:"notify" env:"SHOWHIDDEN_NOTIFY"`
}

// DefaultConfig returns the built-in configuration: narrow scope, the view
// channel capability and its legacy alias, lock screen on.
func DefaultConfig() *Config {
	grant := true
	return &Config{
		Scope: string(override.ScopeNarrow),
		Rules: []Rule{
			{Bit: capability.ViewChannel, Legacy: capability.LegacyViewChannel, Grant: &grant},
		},
		ForcedSettings: []string{host.SettingOptedIn, host.SettingShowAllChannels},
		Style: Style{
			Name:        override.DefaultStyleName,
			HiddenClass: override.DefaultHiddenClass,
		},
		LockScreen: true,
	}
}

// DefaultPath is ~/.showhidden/config.yaml, or "" when there is no home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".showhidden", "config.yaml")
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides on top. Empty path falls back to ~/.showhidden/config.yaml.
// Missing file means defaults. Invalid YAML or values return an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			// YAML overwrites only specified fields
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv overwrites fields whose environment variable is set.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the scope and the override rules.
func (c *Config) Validate() error {
	if !override.Scope(c.Scope).Valid() {
		return fmt.Errorf("%w: %q (want narrow or broad)", ErrInvalidScope, c.Scope)
	}
	p, err := c.Policy()
	if err != nil {
		return err
	}
	if p.Primary() == 0 {
		return fmt.Errorf("invalid rules: %w", capability.ErrNoRules)
	}
	return nil
}

// Policy builds the capability policy from the configured rules.
func (c *Config) Policy() (*capability.Policy, error) {
	rules := make([]capability.Rule, len(c.Rules))
	for i, r := range c.Rules {
		grant := r.Grant == nil || *r.Grant
		rules[i] = capability.Rule{Bit: r.Bit, Legacy: r.Legacy, Grant: grant}
	}
	p, err := capability.NewPolicy(rules...)
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return p, nil
}

// SessionOptions translates the configuration into session options.
func (c *Config) SessionOptions(logger *slog.Logger) []override.Option {
	return []override.Option{
		override.WithLogger(logger),
		override.WithScope(override.Scope(c.Scope)),
		override.WithForcedSettings(c.ForcedSettings...),
		override.WithStyle(c.Style.Name, c.Style.CSS),
		override.WithHiddenClass(c.Style.HiddenClass),
		override.WithLockScreen(c.LockScreen),
		override.WithNotify(c.Notify),
	}
}

// DefaultConfigYAML returns the default configuration with comments,
// written by showhidden init-config.
func DefaultConfigYAML() string {
	return `# showhidden configuration
# Generated by: showhidden init-config
#
# Environment variables override this file:
#   SHOWHIDDEN_SCOPE, SHOWHIDDEN_LOCK_SCREEN, SHOWHIDDEN_NOTIFY

# How far the override reaches.
#   narrow: force the capabilities below and mark hidden channels
#   broad:  also force the settings listed in forced_settings
scope: narrow

# Capabilities forced to evaluate as granted.
# Fields:
#   bit: bitmask value (decimal, 0x.., 0b.. or 1<<n)
#   legacy: identifier older code paths ask with (optional)
#   grant: must be true, overrides never deny
rules:
  - bit: "1<<10"
    legacy: 1024
    grant: true

# Settings forced on in broad scope.
forced_settings:
  - opted_in
  - show_all_channels

# Presentation of channels hidden under the real permissions.
style:
  name: styles
  hidden_class: shc-hidden-channel

# Replace the content view of a hidden channel with a locked notice.
lock_screen: true

# Show a toast when the session starts.
notify: false
`
}
