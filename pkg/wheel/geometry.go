// Package wheel models the rotating wheel that obstacles are stamped onto:
// its fixed geometry, its lanes and the mutable speed the row scheduler
// reads.
package wheel

import (
	"math"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

// Build-time defaults for the wheel geometry.
const (
	DefaultObstaclesPerRow = 5
	DefaultRadius          = 20.0
	DefaultWidth           = 10.0

	// DefaultSpeed is the wheel's spin in degrees per second.
	DefaultSpeed = 45.0
)

// Geometry holds the fixed dimensions of the wheel.
type Geometry struct {
	ObstaclesPerRow int     `toml:"obstacles_per_row" json:"obstacles_per_row"`
	Radius          float64 `toml:"radius" json:"radius"`
	Width           float64 `toml:"width" json:"width"`
}

// DefaultGeometry returns the build-time default geometry.
func DefaultGeometry() Geometry {
	return Geometry{
		ObstaclesPerRow: DefaultObstaclesPerRow,
		Radius:          DefaultRadius,
		Width:           DefaultWidth,
	}
}

// Validate checks that every dimension is strictly positive.
func (g Geometry) Validate() error {
	if g.ObstaclesPerRow <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "obstacles per row must be > 0, got %d", g.ObstaclesPerRow)
	}
	if !(g.Radius > 0) || math.IsInf(g.Radius, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "wheel radius must be > 0, got %v", g.Radius)
	}
	if !(g.Width > 0) || math.IsInf(g.Width, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "wheel width must be > 0, got %v", g.Width)
	}
	return nil
}

// LaneWidth returns the horizontal span of a single lane.
func (g Geometry) LaneWidth() float64 {
	return g.Width / float64(g.ObstaclesPerRow)
}

// LaneX returns the horizontal center of lane i. Lanes split the wheel
// width evenly and are centered on x = 0.
func (g Geometry) LaneX(i int) float64 {
	start := -g.Width * .5
	laneWidth := g.LaneWidth()
	return start + float64(i)*laneWidth + .5*laneWidth
}

// Lanes returns every lane of the wheel from left to right.
func (g Geometry) Lanes() []Lane {
	lanes := make([]Lane, g.ObstaclesPerRow)
	w := g.LaneWidth()
	start := -g.Width * .5
	for i := range lanes {
		left := start + float64(i)*w
		lanes[i] = Lane{Index: i, Left: left, Right: left + w}
	}
	return lanes
}

// Placement converts a generation count into the angular pose of a row.
// rotationDegrees is the tilt applied about the wheel axis and (y, z) is
// the point on the wheel rim at that tilt, so y*y + z*z == Radius*Radius.
func (g Geometry) Placement(generation int) (rotationDegrees, y, z float64) {
	rotationDegrees = -float64(generation) / g.Radius * 90
	t := -rotationDegrees * math.Pi / 180
	y = g.Radius * math.Cos(t)
	z = -g.Radius * math.Sin(t)
	return rotationDegrees, y, z
}
