// Package config loads orbit's user configuration from
// $ORBIT_HOME/config.toml and resolves the catalog root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file under $ORBIT_HOME.
const FileName = "config.toml"

// EnvHome overrides the catalog root directory.
const EnvHome = "ORBIT_HOME"

// Config is the parsed config.toml.
type Config struct {
	General General `toml:"general"`
	// Target, protocol, and channel definitions are opaque to the core
	// and handed to the collaborators that run them.
	Targets   []map[string]interface{} `toml:"targets,omitempty"`
	Protocols []map[string]interface{} `toml:"protocols,omitempty"`
	Channels  []map[string]interface{} `toml:"channels,omitempty"`
}

// General holds the core's own settings.
type General struct {
	// TargetDir is where build/test outputs and the blueprint land,
	// relative to the IP root.
	TargetDir string `toml:"target-dir,omitempty"`
	// Color is "auto", "always", or "never".
	Color string `toml:"color,omitempty"`
}

// Home resolves the catalog root: $ORBIT_HOME, or ~/.orbit.
func Home() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, ".orbit"), nil
}

// Load reads the config under home, applying defaults for anything
// unset. A missing file yields the defaults.
func Load(home string) (*Config, error) {
	cfg := &Config{}
	raw, err := os.ReadFile(filepath.Join(home, FileName))
	if err == nil {
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config back under home.
func (c *Config) Save(home string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(home, FileName), data, 0644)
}

func (c *Config) setDefaults() {
	if c.General.TargetDir == "" {
		c.General.TargetDir = "target"
	}
	if c.General.Color == "" {
		c.General.Color = "auto"
	}
}

// Validate rejects out-of-range settings.
func (c *Config) Validate() error {
	switch c.General.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("general.color must be auto, always, or never, got %q", c.General.Color)
	}
	return nil
}

// Get returns a dotted config key's value for `orbit config <key>`.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "general.target-dir":
		return c.General.TargetDir, nil
	case "general.color":
		return c.General.Color, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a dotted config key for `orbit config <key>=<value>`.
func (c *Config) Set(key, value string) error {
	switch key {
	case "general.target-dir":
		c.General.TargetDir = value
	case "general.color":
		c.General.Color = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// List renders every known key for `orbit config --list`.
func (c *Config) List() []string {
	return []string{
		"general.target-dir=" + c.General.TargetDir,
		"general.color=" + c.General.Color,
	}
}
