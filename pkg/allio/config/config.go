// Package config loads allio's runtime configuration: the sync engine's
// poll interval and window filters, the event bus capacity, and the
// exclusion pid an embedding overlay application uses to hide itself from
// its own accessibility scan.
//
// Configuration can be loaded from a YAML file, set programmatically, or
// overridden via environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/watchcask/allio/pkg/allio/types"
)

// Config holds the knobs allio's embedding application can tune. Zero
// values are not valid configuration on their own — start from Default
// and override, or use Load, which fills in defaults for anything the
// file omits.
type Config struct {
	// ExcludePID is allio's own overlay window's process id, if any: its
	// window position becomes the coordinate offset applied to every other
	// window, and the window itself never appears in snapshots.
	ExcludePID *types.ProcessId `yaml:"exclude_pid,omitempty"`

	// FilterFullscreen drops fullscreen windows from FetchWindows results.
	FilterFullscreen bool `yaml:"filter_fullscreen"`

	// FilterOffscreen drops windows positioned entirely off every display.
	FilterOffscreen bool `yaml:"filter_offscreen"`

	// IntervalMS is how often the sync engine polls for window and mouse
	// changes, in milliseconds.
	IntervalMS uint64 `yaml:"interval_ms"`

	// UseDisplayLink is decoded and carried in Config, but nothing in this
	// module reads it: polling always runs on the fixed IntervalMS ticker.
	UseDisplayLink bool `yaml:"use_display_link"`

	// EventChannelCapacity is the per-subscriber buffered channel size for
	// the event bus.
	EventChannelCapacity int `yaml:"event_channel_capacity"`
}

// Default returns a Config with the documented default values:
//   - filter_fullscreen and filter_offscreen enabled
//   - an 8ms poll interval, no display-link sync
//   - a 5000-event subscriber buffer
func Default() *Config {
	return &Config{
		FilterFullscreen:     true,
		FilterOffscreen:      true,
		IntervalMS:           8,
		UseDisplayLink:       false,
		EventChannelCapacity: 5000,
	}
}

// PollInterval converts IntervalMS to a time.Duration for the sync engine.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.IntervalMS == 0 {
		return fmt.Errorf("config: interval_ms must be positive, got 0")
	}
	if c.EventChannelCapacity <= 0 {
		return fmt.Errorf("config: event_channel_capacity must be positive, got %d", c.EventChannelCapacity)
	}
	return nil
}

// Load reads a YAML config file at path, starting from Default so any
// field the file omits keeps its default rather than zeroing out.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides on top of
// whatever is already set. Invalid values are silently ignored, leaving
// the existing value in place.
//
// Supported variables:
//   - ALLIO_EXCLUDE_PID
//   - ALLIO_FILTER_FULLSCREEN
//   - ALLIO_FILTER_OFFSCREEN
//   - ALLIO_INTERVAL_MS
//   - ALLIO_USE_DISPLAY_LINK
//   - ALLIO_EVENT_CHANNEL_CAPACITY
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ALLIO_EXCLUDE_PID"); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 32); err == nil {
			pid := types.ProcessId(parsed)
			c.ExcludePID = &pid
		}
	}

	applyEnvBool("ALLIO_FILTER_FULLSCREEN", &c.FilterFullscreen)
	applyEnvBool("ALLIO_FILTER_OFFSCREEN", &c.FilterOffscreen)
	applyEnvBool("ALLIO_USE_DISPLAY_LINK", &c.UseDisplayLink)

	if val := os.Getenv("ALLIO_INTERVAL_MS"); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil && parsed > 0 {
			c.IntervalMS = parsed
		}
	}
	if val := os.Getenv("ALLIO_EVENT_CHANNEL_CAPACITY"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			c.EventChannelCapacity = parsed
		}
	}
}

func applyEnvBool(envKey string, target *bool) {
	if val := os.Getenv(envKey); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*target = parsed
		}
	}
}
