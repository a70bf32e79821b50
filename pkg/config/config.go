// Package config handles loading and saving capgraph configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/capgraph/config.yaml
//   - State:  ~/.local/state/capgraph/ (cached layouts)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutConfig holds radial layout preferences.
type LayoutConfig struct {
	Width            float64 `yaml:"width,omitempty"`              // Canvas width in pixels
	Height           float64 `yaml:"height,omitempty"`             // Canvas height in pixels
	Tension          float64 `yaml:"tension,omitempty"`            // Edge bundling tension (0-1)
	InnerRadiusRatio float64 `yaml:"inner_radius_ratio,omitempty"` // Capability ring radius fraction
	OuterRadiusRatio float64 `yaml:"outer_radius_ratio,omitempty"` // Tool ring radius fraction
}

// TimelineConfig holds recency view preferences.
type TimelineConfig struct {
	ContainerWidth float64 `yaml:"container_width,omitempty"` // Timeline viewport width
	CardWidth      float64 `yaml:"card_width,omitempty"`      // Capability card width
	CardHeight     float64 `yaml:"card_height,omitempty"`     // Capability card height
}

// NeighborhoodConfig controls focus expansion.
type NeighborhoodConfig struct {
	DefaultDepth int `yaml:"default_depth,omitempty"` // Hops expanded around a focused node
	MaxDepth     int `yaml:"max_depth,omitempty"`     // Upper bound on requested hops
}

// WatcherConfig controls snapshot reload behavior in watch mode.
type WatcherConfig struct {
	DebounceMs int `yaml:"debounce_ms,omitempty"` // Quiet period before a change fires a reload
}

// ExportConfig holds default export settings.
type ExportConfig struct {
	Format string `yaml:"format,omitempty"` // svg, png, or json
	Dir    string `yaml:"dir,omitempty"`    // Output directory
}

// Config is the top-level configuration for capgraph.
type Config struct {
	Input        string             `yaml:"input,omitempty"` // Default snapshot path or directory
	Layout       LayoutConfig       `yaml:"layout,omitempty"`
	Timeline     TimelineConfig     `yaml:"timeline,omitempty"`
	Neighborhood NeighborhoodConfig `yaml:"neighborhood,omitempty"`
	Watcher      WatcherConfig      `yaml:"watcher,omitempty"`
	Export       ExportConfig       `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{
			Width:            1200,
			Height:           1200,
			Tension:          0.85,
			InnerRadiusRatio: 0.55,
			OuterRadiusRatio: 0.85,
		},
		Timeline: TimelineConfig{
			ContainerWidth: 1200,
			CardWidth:      180,
			CardHeight:     120,
		},
		Neighborhood: NeighborhoodConfig{
			DefaultDepth: 1,
			MaxDepth:     10,
		},
		Watcher: WatcherConfig{
			DebounceMs: 250,
		},
		Export: ExportConfig{
			Format: "svg",
		},
	}
}

// ConfigDir returns the XDG config directory for capgraph.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "capgraph")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "capgraph")
}

// StateDir returns the XDG state directory for capgraph.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "capgraph")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "capgraph")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Input = expandHome(cfg.Input)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
