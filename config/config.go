// Package config loads runtime settings from an optional YAML file and then
// from ORRERY_* environment variables, which win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/lod"
	"github.com/teranos/orrery/scan"
	"github.com/teranos/orrery/scene"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ORRERY_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full set of tunables.
type Config struct {
	// Content is a catalog file. Empty means the built-in catalog.
	Content       string `yaml:"content" env:"CONTENT"`
	FPS           int    `yaml:"fps" env:"FPS"`
	ReducedMotion bool   `yaml:"reduced_motion" env:"REDUCED_MOTION"`
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL"`

	Journey journey.Config `yaml:"journey" envPrefix:"JOURNEY_"`
	Scan    scan.Config    `yaml:"scan" envPrefix:"SCAN_"`
	LOD     lod.Thresholds `yaml:"lod" envPrefix:"LOD_"`
	Layout  layout.Config  `yaml:"layout" envPrefix:"LAYOUT_"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FPS:      scene.DefaultFPS,
		LogLevel: "info",
		Journey:  journey.DefaultConfig(),
		Scan:     scan.DefaultConfig(),
		LOD:      lod.DefaultThresholds(),
		Layout:   layout.DefaultConfig(),
	}
}

// Load reads path (skipped when empty) over the defaults, applies the
// environment and validates the result. A nil environ means the process
// environment.
func Load(path string, environ map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first problem found, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps %d must be positive", ErrInvalid, c.FPS)
	}
	if err := c.LOD.Validate(); err != nil {
		return fmt.Errorf("%w: lod: %w", ErrInvalid, err)
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"journey.transit", c.Journey.Transit},
		{"journey.hold", c.Journey.Hold},
		{"scan.duration", c.Scan.Duration},
		{"scan.release_grace", c.Scan.ReleaseGrace},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s %s must be positive", ErrInvalid, d.name, d.d)
		}
	}
	if c.Scan.Range <= 0 {
		return fmt.Errorf("%w: scan.range %.2f must be positive", ErrInvalid, c.Scan.Range)
	}
	if c.Layout.GalaxySlots <= 0 || c.Layout.RingRadius <= 0 {
		return fmt.Errorf("%w: layout needs positive galaxy_slots and ring_radius", ErrInvalid)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	return nil
}

// Level is the parsed log level, info when unparseable.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// SceneOptions maps the settings onto the runtime.
func (c Config) SceneOptions() scene.Options {
	return scene.Options{
		FPS:           c.FPS,
		ReducedMotion: c.ReducedMotion,
		Journey:       c.Journey,
		Scan:          c.Scan,
		LOD:           c.LOD,
	}
}
