package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/timer"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// Plan is the full outcome of stamping a level at a constant wheel speed:
// when every row group fires and where every obstacle ends up.
type Plan struct {
	Level      *level.Level      `json:"level"`
	LevelHash  string            `json:"level_hash"`
	Geometry   wheel.Geometry    `json:"geometry"`
	Speed      float64           `json:"speed"`
	Timing     stamper.Config    `json:"timing"`
	Triggers   []stamper.Trigger `json:"triggers"`
	Rows       []RowPlan         `json:"rows"`
	Placements []Placement       `json:"placements"`
	Stats      Stats             `json:"stats"`
}

// RowPlan describes one row of the level.
type RowPlan struct {
	Row        int     `json:"row"`
	Group      int     `json:"group"`
	Generation int     `json:"generation"`
	Parent     bool    `json:"parent,omitempty"`
	Offset     bool    `json:"offset,omitempty"`
	At         float64 `json:"at"` // seconds after Init
	Placed     int     `json:"placed"`
}

// Placement is one obstacle on the wheel, in the wheel's world frame.
type Placement struct {
	Row             int       `json:"row"`
	Lane            int       `json:"lane"`
	Generation      int       `json:"generation"`
	Offset          bool      `json:"offset,omitempty"`
	Prefab          string    `json:"prefab"`
	At              float64   `json:"at"`
	Position        geom.Vec3 `json:"position"`
	RotationDegrees float64   `json:"rotation_degrees"`
}

// Stats summarizes a plan.
type Stats struct {
	Rows     int     `json:"rows"`
	Groups   int     `json:"groups"`
	Placed   int     `json:"placed"`
	Skipped  int     `json:"skipped"`
	Duration float64 `json:"duration"` // seconds until the last trigger
}

// MarshalPlan serializes a plan to JSON.
func MarshalPlan(p *Plan) ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPlan deserializes a plan from JSON.
func UnmarshalPlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Level == nil {
		return nil, fmt.Errorf("plan has no level")
	}
	return &p, nil
}

// TriggerDelays returns the delay of every row group at a constant wheel
// speed.
func TriggerDelays(l *level.Level, timing stamper.Config) []time.Duration {
	n := len(l.ScheduledRows())
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = timer.Seconds(float64(i)*timing.Spacing + timing.InitialDelay)
	}
	return out
}

// BuildPlan stamps l onto a fresh wheel on a virtual clock and records the
// result. opts must already be validated for planning.
func BuildPlan(ctx context.Context, l *level.Level, opts Options) (*Plan, error) {
	if opts.Strict {
		if err := l.Validate(opts.Geometry.ObstaclesPerRow); err != nil {
			return nil, err
		}
	}

	sched := timer.NewVirtual()
	spawn := geom.NewTransform("spawn", opts.Spawn, geom.AxisAngle(wheel.Axis, opts.SpawnRotationX))

	var placements []Placement
	record := func(p stamper.Placement) {
		placements = append(placements, Placement{
			Row:             p.Row,
			Lane:            p.Lane,
			Generation:      p.Generation,
			Offset:          p.Offset,
			Prefab:          p.Prefab,
			At:              sched.Now().Seconds(),
			Position:        p.Position,
			RotationDegrees: p.RotationDegrees,
		})
	}

	s := stamper.New(stamper.Deps{
		Wheel:     wheel.New(opts.Speed),
		Levels:    level.Static(l),
		Prefabs:   prefab.NewDefaultRegistry(),
		Scene:     prefab.NewScene(),
		Scheduler: sched,
	}, *opts.Timing,
		stamper.WithGeometry(opts.Geometry),
		stamper.WithSpawn(spawn),
		stamper.WithLogger(opts.Logger),
		stamper.WithPlacementFunc(record),
	)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	sched.RunUntilIdle()
	if err := s.Err(); err != nil {
		return nil, err
	}

	triggers := s.Triggers()
	state := s.State()
	plan := &Plan{
		Level:      l,
		Geometry:   opts.Geometry,
		Speed:      opts.Speed,
		Timing:     *opts.Timing,
		Triggers:   triggers,
		Rows:       rowPlans(l, triggers, placements),
		Placements: placements,
		Stats: Stats{
			Rows:    len(l.Rows),
			Groups:  len(triggers),
			Placed:  state.Placed,
			Skipped: state.Skipped,
		},
	}
	if n := len(triggers); n > 0 {
		plan.Stats.Duration = triggers[n-1].Delay.Seconds()
	}
	return plan, nil
}

func rowPlans(l *level.Level, triggers []stamper.Trigger, placements []Placement) []RowPlan {
	gens := l.Generations()
	placed := make([]int, len(l.Rows))
	for _, p := range placements {
		placed[p.Row]++
	}

	rows := make([]RowPlan, 0, len(l.Rows))
	for _, g := range l.Groups() {
		var at float64
		if g.Index < len(triggers) {
			at = triggers[g.Index].Delay.Seconds()
		}
		for i := g.Start; i < g.End; i++ {
			rows = append(rows, RowPlan{
				Row:        i,
				Group:      g.Index,
				Generation: gens[i],
				Parent:     l.Rows[i].IsParent,
				Offset:     i > 0 && l.Rows[i-1].OffsetChild,
				At:         at,
				Placed:     placed[i],
			})
		}
	}
	return rows
}
