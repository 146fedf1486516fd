// Package config loads camerad's YAML configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lanikai/camerahal/internal/logging"
)

// Config represents the complete camerad configuration
type Config struct {
	Source        string          `yaml:"source"`    // e.g. "v4l2:/dev/video0", "pattern:320x240"
	LogLevel      string          `yaml:"log_level"` // LOGLEVEL-style directives, e.g. "info,surface=debug"
	StatsInterval time.Duration   `yaml:"stats_interval"`
	Display       DisplayConfig   `yaml:"display"`
	Preview       PreviewConfig   `yaml:"preview"`
	Recording     RecordingConfig `yaml:"recording"`
}

// DisplayConfig selects where preview frames go
type DisplayConfig struct {
	Kind        string `yaml:"kind"`        // ws, fbdev, none
	Address     string `yaml:"address"`     // listen address for ws
	Framebuffer string `yaml:"framebuffer"` // device for fbdev
}

// PreviewConfig bounds how hard to try for each display buffer
type PreviewConfig struct {
	LockRetries  int           `yaml:"lock_retries"`
	LockInterval time.Duration `yaml:"lock_interval"`
}

// RecordingConfig controls delivery of video frames to camerad itself
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Allocator string `yaml:"allocator"` // heap, mmap
}

const (
	DisplayWebsocket   = "ws"
	DisplayFramebuffer = "fbdev"
	DisplayNone        = "none"

	AllocatorHeap = "heap"
	AllocatorMmap = "mmap"
)

func Default() Config {
	return Config{
		Source:        "pattern:640x480",
		StatsInterval: 5 * time.Second,
		Display: DisplayConfig{
			Kind:        DisplayWebsocket,
			Address:     ":8000",
			Framebuffer: "/dev/fb0",
		},
		Preview: PreviewConfig{
			LockRetries:  5,
			LockInterval: time.Millisecond,
		},
		Recording: RecordingConfig{
			Allocator: AllocatorHeap,
		},
	}
}

// Load reads and parses a YAML configuration file. Missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if cfg.Source == "" {
		return errors.New("source is required")
	}
	if err := logging.CheckDirectives(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if cfg.StatsInterval < 0 {
		return errors.Errorf("stats_interval must not be negative (got %v)", cfg.StatsInterval)
	}

	switch cfg.Display.Kind {
	case DisplayWebsocket:
		if cfg.Display.Address == "" {
			return errors.New("display.address is required for ws display")
		}
	case DisplayFramebuffer:
		if cfg.Display.Framebuffer == "" {
			return errors.New("display.framebuffer is required for fbdev display")
		}
	case DisplayNone:
	default:
		return errors.Errorf("display.kind must be one of ws, fbdev, none (got %q)", cfg.Display.Kind)
	}

	if cfg.Preview.LockRetries < 0 {
		return errors.Errorf("preview.lock_retries must not be negative (got %d)", cfg.Preview.LockRetries)
	}
	if cfg.Preview.LockInterval < 0 || cfg.Preview.LockInterval > time.Second {
		return errors.Errorf("preview.lock_interval must be within [0, 1s] (got %v)", cfg.Preview.LockInterval)
	}

	switch cfg.Recording.Allocator {
	case AllocatorHeap, AllocatorMmap:
	default:
		return errors.Errorf("recording.allocator must be heap or mmap (got %q)", cfg.Recording.Allocator)
	}
	return nil
}
