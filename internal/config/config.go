// SPDX-License-Identifier: MIT

// Package config provides configuration management for ev2m3u with
// precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "6s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SourceConfig describes one upstream catalog as a thin configuration value
// around the generic pipeline.
type SourceConfig struct {
	Tag                string   `yaml:"tag"`
	Shape              string   `yaml:"shape"` // "grouped" or "flat"
	APIMirrors         []string `yaml:"apiMirrors"`
	BaseMirrors        []string `yaml:"baseMirrors"`
	ExcludedCategories []string `yaml:"excludedCategories"`
	StreamPath         string   `yaml:"streamPath,omitempty"` // flat shape embed path
	Pattern            string   `yaml:"pattern,omitempty"`    // stream URL regex override
}

// WindowConfig selects the event time window.
type WindowConfig struct {
	Mode  string   `yaml:"mode"` // "today-plus-tomorrow" or "symmetric-around-now"
	Width Duration `yaml:"width,omitempty"`
}

// ResolveConfig tunes the embed resolution stage.
type ResolveConfig struct {
	Timeout             Duration `yaml:"timeout,omitempty"`
	NavTimeout          Duration `yaml:"navTimeout,omitempty"`
	Settle              Duration `yaml:"settle,omitempty"`
	Interval            Duration `yaml:"interval,omitempty"` // pacing between events
	Concurrency         int      `yaml:"concurrency,omitempty"`
	ReattemptUnresolved bool     `yaml:"reattemptUnresolved,omitempty"`
	BrowserPath         string   `yaml:"browserPath,omitempty"`
}

// CacheConfig tunes the persisted payload and record caches.
type CacheConfig struct {
	SourceTTL Duration `yaml:"sourceTTL,omitempty"`
}

// PlaylistConfig tunes playlist rendering.
type PlaylistConfig struct {
	Fallback string `yaml:"fallback,omitempty"` // "omit" or "include-embed-ref"
}

// DaemonConfig tunes the long-running mode.
type DaemonConfig struct {
	Enabled         bool     `yaml:"enabled,omitempty"`
	Listen          string   `yaml:"listen,omitempty"`
	RefreshInterval Duration `yaml:"refreshInterval,omitempty"`
}

// Config is the fully resolved runtime configuration.
type Config struct {
	DataDir  string         `yaml:"dataDir,omitempty"`
	LogLevel string         `yaml:"logLevel,omitempty"`
	Sources  []SourceConfig `yaml:"sources"`
	Window   WindowConfig   `yaml:"window,omitempty"`
	Resolve  ResolveConfig  `yaml:"resolve,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Playlist PlaylistConfig `yaml:"playlist,omitempty"`
	Daemon   DaemonConfig   `yaml:"daemon,omitempty"`
}

// Defaults returns the built-in configuration baseline.
func Defaults() Config {
	return Config{
		DataDir:  "./data",
		LogLevel: "info",
		Window:   WindowConfig{Mode: "today-plus-tomorrow", Width: Duration(12 * time.Hour)},
		Resolve: ResolveConfig{
			Timeout:     Duration(6 * time.Second),
			NavTimeout:  Duration(15 * time.Second),
			Settle:      Duration(1500 * time.Millisecond),
			Interval:    Duration(500 * time.Millisecond),
			Concurrency: 1,
		},
		Cache:    CacheConfig{SourceTTL: Duration(5*time.Hour + 30*time.Minute)},
		Playlist: PlaylistConfig{Fallback: "omit"},
		Daemon:   DaemonConfig{Listen: ":8080", RefreshInterval: Duration(15 * time.Minute)},
	}
}

// Load builds the effective configuration from defaults, the optional YAML
// file at path, and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	for _, src := range c.Sources {
		if src.Tag == "" {
			return fmt.Errorf("config: source without tag")
		}
		if len(src.APIMirrors) == 0 {
			return fmt.Errorf("config: source %q needs at least one API mirror", src.Tag)
		}
		if len(src.BaseMirrors) == 0 {
			return fmt.Errorf("config: source %q needs at least one base mirror", src.Tag)
		}
		switch src.Shape {
		case "", "grouped", "flat":
		default:
			return fmt.Errorf("config: source %q has unknown shape %q", src.Tag, src.Shape)
		}
	}
	switch c.Window.Mode {
	case "today-plus-tomorrow", "symmetric-around-now":
	default:
		return fmt.Errorf("config: unknown window mode %q", c.Window.Mode)
	}
	if c.Window.Mode == "symmetric-around-now" && c.Window.Width.Std() <= 0 {
		return fmt.Errorf("config: symmetric window needs a positive width")
	}
	if c.Resolve.Timeout.Std() <= 0 {
		return fmt.Errorf("config: resolve timeout must be positive")
	}
	if c.Resolve.Concurrency < 1 {
		return fmt.Errorf("config: resolve concurrency must be at least 1")
	}
	switch c.Playlist.Fallback {
	case "omit", "include-embed-ref":
	default:
		return fmt.Errorf("config: unknown playlist fallback mode %q", c.Playlist.Fallback)
	}
	return nil
}
