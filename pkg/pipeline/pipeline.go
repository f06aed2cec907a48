// Package pipeline provides the planning pipeline for rowstamp.
//
// This package implements the load → plan → graph pipeline used by the
// CLI and the HTTP API. By centralizing this logic, both entry points
// produce the same plans and share cache entries.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and decode a level from a file or an inline document
//  2. Plan: Run the stamper over the whole level on a virtual clock and
//     record every trigger and placement
//  3. Graph: Render the level's row groups as DOT or SVG
//
// Plans and graphs are pure functions of the level content and options,
// so both are cached by content hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	plan, err := runner.Plan(ctx, pipeline.Options{LevelPath: "levels/intro.toml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(plan.Stats.Placed)
package pipeline

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rowstamp/pkg/cache"
	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// Format constants for graph output.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported graph formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the planning pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	LevelPath   string `json:"level_path,omitempty"`
	Level       string `json:"level,omitempty"`        // Inline level document
	LevelFormat string `json:"level_format,omitempty"` // toml, json or hcl; inferred from LevelPath when empty
	LevelName   string `json:"level_name,omitempty"`   // Overrides the level's own name
	Strict      bool   `json:"strict,omitempty"`       // Validate the level before planning
	Refresh     bool   `json:"refresh,omitempty"`

	// Plan options
	Geometry       wheel.Geometry  `json:"geometry"`
	Speed          float64         `json:"speed,omitempty"`
	Timing         *stamper.Config `json:"timing,omitempty"` // nil uses stamper.DefaultConfig
	Spawn          geom.Vec3       `json:"spawn"`
	SpawnRotationX float64         `json:"spawn_rotation_x,omitempty"`

	// Graph options
	Format   string `json:"format,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a graph format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// ValidateLevelFormat checks that a level format is valid.
func ValidateLevelFormat(format string) error {
	switch format {
	case level.FormatTOML, level.FormatJSON, level.FormatHCL:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "invalid level_format: %q (must be one of: toml, json, hcl)", format)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForPlan(); err != nil {
		return err
	}
	o.SetGraphDefaults()
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading a level.
func (o *Options) ValidateForLoad() error {
	if o.LevelPath == "" && o.Level == "" {
		return errors.New(errors.ErrCodeInvalidInput, "level_path or level is required")
	}
	if o.LevelPath != "" && o.Level != "" {
		return errors.New(errors.ErrCodeInvalidInput, "level_path and level are mutually exclusive")
	}
	if o.LevelFormat == "" {
		if o.LevelPath != "" {
			o.LevelFormat = level.FormatFromPath(o.LevelPath)
		} else {
			o.LevelFormat = level.FormatTOML
		}
	}
	if err := ValidateLevelFormat(o.LevelFormat); err != nil {
		return err
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetPlanDefaults sets default values for planning.
func (o *Options) SetPlanDefaults() {
	if o.Geometry == (wheel.Geometry{}) {
		o.Geometry = wheel.DefaultGeometry()
	}
	if o.Speed == 0 {
		o.Speed = wheel.DefaultSpeed
	}
	if o.Timing == nil {
		cfg := stamper.DefaultConfig()
		o.Timing = &cfg
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForPlan validates and sets defaults for planning.
func (o *Options) ValidateForPlan() error {
	o.SetPlanDefaults()
	if err := o.Geometry.Validate(); err != nil {
		return err
	}
	if !(o.Speed > 0) || math.IsInf(o.Speed, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "speed must be > 0, got %v", o.Speed)
	}
	return o.Timing.Validate()
}

// SetGraphDefaults sets default values for graph rendering.
func (o *Options) SetGraphDefaults() {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForGraph validates and sets defaults for graph rendering.
func (o *Options) ValidateForGraph() error {
	o.SetGraphDefaults()
	return ValidateFormat(o.Format)
}

// PlanKeyOpts returns cache key options for planning.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	opts := cache.PlanKeyOpts{
		ObstaclesPerRow: o.Geometry.ObstaclesPerRow,
		Radius:          o.Geometry.Radius,
		Width:           o.Geometry.Width,
		Speed:           o.Speed,
		SpawnX:          o.Spawn.X,
		SpawnY:          o.Spawn.Y,
		SpawnZ:          o.Spawn.Z,
		SpawnRotationX:  o.SpawnRotationX,
		Strict:          o.Strict,
		LevelName:       o.LevelName,
	}
	if o.Timing != nil {
		opts.InitialDelay = o.Timing.InitialDelay
		opts.Spacing = o.Timing.Spacing
	}
	return opts
}

// GraphKeyOpts returns cache key options for graph rendering.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	opts := cache.GraphKeyOpts{
		Format:    o.Format,
		Detailed:  o.Detailed,
		LevelName: o.LevelName,
	}
	if o.Timing != nil {
		opts.InitialDelay = o.Timing.InitialDelay
		opts.Spacing = o.Timing.Spacing
	}
	return opts
}
