// Package config loads rowstamp's TOML configuration file.
//
// Every field is optional; missing values keep their defaults:
//
//	speed = 45.0
//
//	[wheel]
//	obstacles_per_row = 5
//	radius = 20.0
//	width = 10.0
//
//	[stamper]
//	initial_delay = 0.0
//	spacing = 2.0
//
//	[spawn]
//	position = { x = 0.0, y = 0.0, z = 0.0 }
//	rotation_x = 0.0
//
//	[cache]
//	dir = "~/.cache/rowstamp"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
package config

import (
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// Config is the top-level configuration.
type Config struct {
	Wheel   wheel.Geometry `toml:"wheel"`
	Speed   float64        `toml:"speed"`
	Stamper stamper.Config `toml:"stamper"`
	Spawn   Spawn          `toml:"spawn"`
	Cache   Cache          `toml:"cache"`
}

// Spawn is the pose instances are created at.
type Spawn struct {
	Position  geom.Vec3 `toml:"position"`
	RotationX float64   `toml:"rotation_x"` // degrees about the wheel axis
}

// Cache configures plan caching.
type Cache struct {
	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`
	// RedisAddr switches to a Redis cache when set.
	RedisAddr string `toml:"redis_addr"`
	// TTL bounds how long an entry is kept. Zero uses the cache default.
	TTL Duration `toml:"ttl"`
}

// Duration is a time.Duration read from a TOML string such as "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Wheel:   wheel.DefaultGeometry(),
		Speed:   wheel.DefaultSpeed,
		Stamper: stamper.DefaultConfig(),
	}
}

// Load reads path on top of the defaults. Unknown keys are rejected so
// typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes a TOML document on top of the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Wheel.Validate(); err != nil {
		return err
	}
	if !(c.Speed > 0) || math.IsInf(c.Speed, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "speed must be > 0, got %v", c.Speed)
	}
	if err := c.Stamper.Validate(); err != nil {
		return err
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must be >= 0, got %s", c.Cache.TTL.Duration)
	}
	return nil
}

// SpawnTransform returns the spawn pose as a transform.
func (c Config) SpawnTransform() *geom.Transform {
	return geom.NewTransform("spawn", c.Spawn.Position, geom.AxisAngle(wheel.Axis, c.Spawn.RotationX))
}

// Apply copies the configured run parameters into opts. Fields already
// set on opts are kept.
func (c Config) Apply(opts *pipeline.Options) {
	if opts.Geometry == (wheel.Geometry{}) {
		opts.Geometry = c.Wheel
	}
	if opts.Speed == 0 {
		opts.Speed = c.Speed
	}
	if opts.Timing == nil {
		timing := c.Stamper
		opts.Timing = &timing
	}
	if opts.Spawn == (geom.Vec3{}) && opts.SpawnRotationX == 0 {
		opts.Spawn = c.Spawn.Position
		opts.SpawnRotationX = c.Spawn.RotationX
	}
}
