package stamper

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/observability"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// RunState is the cursor and generation bookkeeping of one run.
type RunState struct {
	// RowIndex is the next row to stamp. It only moves forward.
	RowIndex int
	// Generation is the live generation counter used for placement.
	Generation int

	// Counters
	RowsStamped int
	Placed      int
	Skipped     int
	Fired       int
}

// Reset zeroes the state for a new run.
func (s *RunState) Reset() { *s = RunState{} }

// Placement records one obstacle put on the wheel.
type Placement struct {
	Row             int
	Lane            int
	Generation      int
	Offset          bool
	Prefab          string
	Position        geom.Vec3
	RotationDegrees float64
	Instance        *prefab.Instance
}

// Placer stamps rows onto the wheel. It is not safe for concurrent use;
// the scheduler that drives it runs callbacks one at a time.
type Placer struct {
	Geometry wheel.Geometry
	Wheel    Wheel
	Rows     []level.ObstacleRow
	Prefabs  prefab.Resolver
	Scene    prefab.Instantiator

	// Spawn is the pose new instances are created at before they are moved
	// onto the wheel. Nil means the world origin.
	Spawn *geom.Transform

	Logger *log.Logger

	// OnPlace, when set, receives every placement.
	OnPlace func(Placement)

	State RunState
}

// StampHierarchy stamps the row at the cursor and keeps going through the
// parent chain it starts, all within one call. A row reached through a
// parent whose OffsetChild is set bumps the generation; the terminal row
// that closes the chain resets it to zero.
//
// It fails with INDEX_OUT_OF_RANGE when the level ends while the chain
// still expects a row.
func (p *Placer) StampHierarchy() error {
	s := &p.State
	for {
		if s.RowIndex >= len(p.Rows) {
			return errors.New(errors.ErrCodeIndexOutOfRange,
				"row %d out of range: level has %d rows", s.RowIndex, len(p.Rows))
		}

		offset := s.RowIndex > 0 && p.Rows[s.RowIndex-1].OffsetChild
		if err := p.Stamp(p.Rows[s.RowIndex], offset); err != nil {
			return err
		}

		thisRow := p.Rows[s.RowIndex]
		s.RowIndex++
		s.RowsStamped++

		if !thisRow.IsParent {
			s.Generation = 0
			return nil
		}
		if offset {
			s.Generation++
		}
	}
}

// Stamp places every obstacle of row at the live generation. Rows of the
// wrong length fail with INVALID_ROW_SHAPE before anything is created.
// Lanes whose prefab cannot be resolved are logged and skipped.
//
// The offset flag is reported to hooks only; placement always follows the
// live generation counter.
func (p *Placer) Stamp(row level.ObstacleRow, offset bool) error {
	if n := p.Geometry.ObstaclesPerRow; len(row.Obstacles) != n {
		return errors.New(errors.ErrCodeInvalidRowShape,
			"row %d: must be %d obstacles per row, got %d", p.State.RowIndex, n, len(row.Obstacles))
	}

	logger := p.logger()
	gen := p.State.Generation
	rot, y, z := p.Geometry.Placement(gen)
	spawnPos, spawnRot := p.spawnPose()
	parent := p.Wheel.Transform()

	placed := 0
	for lane, code := range row.Obstacles {
		if code == level.Nothing {
			continue
		}

		name := code.String()
		pf, ok := p.Prefabs.Resolve(name)
		if !ok || pf == nil {
			p.State.Skipped++
			logger.Warn("missing prefab, skipping lane",
				"row", p.State.RowIndex, "lane", lane, "prefab", name)
			observability.Stamper().OnLaneSkipped(p.State.RowIndex, lane, name)
			continue
		}

		inst := p.Scene.Instantiate(pf, spawnPos, spawnRot)
		tr := inst.Transform
		tr.SetParent(parent, true)

		// Rotate first, then overwrite the position: the two use the same
		// angle but are applied separately.
		pos := geom.Vec3{X: p.Geometry.LaneX(lane), Y: y, Z: z}
		tr.Rotate(wheel.Axis, rot)
		tr.SetPosition(pos)

		placed++
		if p.OnPlace != nil {
			p.OnPlace(Placement{
				Row:             p.State.RowIndex,
				Lane:            lane,
				Generation:      gen,
				Offset:          offset,
				Prefab:          name,
				Position:        pos,
				RotationDegrees: rot,
				Instance:        inst,
			})
		}
	}

	p.State.Placed += placed
	logger.Debug("stamped row",
		"row", p.State.RowIndex, "generation", gen, "offset", offset, "placed", placed)
	observability.Stamper().OnRowStamped(p.State.RowIndex, gen, offset, placed)
	return nil
}

func (p *Placer) spawnPose() (geom.Vec3, geom.Quat) {
	if p.Spawn == nil {
		return geom.Vec3{}, geom.Identity
	}
	return p.Spawn.Position(), p.Spawn.Rotation()
}

func (p *Placer) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return p.Logger
}
