// Package config handles ocmapgen configuration loading and management.
package config

import "time"

// Config holds all ocmapgen settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Data    DataConfig    `yaml:"data"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds map rendering settings.
type RenderConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Players int `yaml:"players"` // GetStartupPlayerCount()
	Teams   int `yaml:"teams"`   // GetStartupTeamCount()
	// Seed fixes the engine's random seed; nil means random.
	Seed *uint32 `yaml:"seed"`
	// Background is the output path of the background layer. In service
	// mode any non-empty value enables background images.
	Background string `yaml:"background"`
	// MapType overrides detection by file extension.
	MapType string `yaml:"map_type"`
}

// DataConfig holds planet data paths.
type DataConfig struct {
	// Root is the directory the planet root search starts from. Empty means
	// the directory of the input file.
	Root string `yaml:"root"`
}

// WatchConfig holds live reload settings.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:   200,
			Height:  200,
			Players: 1,
			Teams:   1,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
