package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./ocmapgen.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "ocmapgen")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ocmapgen")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "ocmapgen")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "ocmapgen")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks values that cannot be rendered.
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid map size %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Players < 0 || c.Render.Teams < 0 {
		return fmt.Errorf("invalid player or team count %d/%d", c.Render.Players, c.Render.Teams)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch debounce %v", c.Watch.Debounce)
	}
	return nil
}
