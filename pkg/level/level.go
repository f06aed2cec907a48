// Package level defines the row data that the stamper turns into obstacles,
// and the providers that hand a level to a run.
//
// A level is an ordered list of rows. Each row spans every lane of the
// wheel. A parent row chains straight into the next row without waiting
// for another trigger, so a level breaks down into row groups: a run of
// parent rows closed by one terminal row.
//
//	rows:   [P] [P] [T] [T] [P] [T]
//	groups: |--- 0 ---| |1| |- 2 -|
//
// Only the first row of each group is scheduled; the rest are stamped in
// the same trigger.
package level

import (
	"context"

	"github.com/matzehuels/rowstamp/pkg/errors"
)

// ObstacleRow is one cross-section of obstacles spanning all lanes.
type ObstacleRow struct {
	Obstacles []ObstacleCode `toml:"obstacles" json:"obstacles"`

	// IsParent chains this row into the next one with no delay.
	IsParent bool `toml:"parent" json:"parent,omitempty"`

	// OffsetChild bumps the generation when the next row is reached
	// through this row's chain.
	OffsetChild bool `toml:"offset_child" json:"offset_child,omitempty"`
}

// Empty reports whether every lane of the row is Nothing.
func (r ObstacleRow) Empty() bool {
	for _, c := range r.Obstacles {
		if c != Nothing {
			return false
		}
	}
	return true
}

// Level is the immutable row sequence for one run.
type Level struct {
	Name string        `toml:"name" json:"name"`
	Rows []ObstacleRow `toml:"rows" json:"rows"`
}

// Group is a run of parent rows closed by a terminal row.
type Group struct {
	// Index is the group's position among scheduled groups.
	Index int
	// Start is the first row of the group; End is one past the last.
	Start, End int
	// Complete is false when the level ends while the chain still
	// expects another row.
	Complete bool
}

// Len returns the number of rows in the group.
func (g Group) Len() int { return g.End - g.Start }

// ScheduledRows returns the row indices that start a group: index 0 plus
// every row whose predecessor is not a parent.
func (l *Level) ScheduledRows() []int {
	var out []int
	for i := range l.Rows {
		if i == 0 || !l.Rows[i-1].IsParent {
			out = append(out, i)
		}
	}
	return out
}

// Groups splits the level into row groups in order.
func (l *Level) Groups() []Group {
	starts := l.ScheduledRows()
	groups := make([]Group, len(starts))
	for gi, start := range starts {
		end := start
		for end < len(l.Rows) && l.Rows[end].IsParent {
			end++
		}
		complete := end < len(l.Rows)
		if complete {
			end++
		}
		groups[gi] = Group{Index: gi, Start: start, End: end, Complete: complete}
	}
	return groups
}

// Generations returns the generation in effect when each row is stamped,
// following the same bookkeeping as the stamper: a parent row reached with
// an offset bumps the generation for the rows after it, and a terminal row
// resets it to zero.
func (l *Level) Generations() []int {
	gens := make([]int, len(l.Rows))
	gen := 0
	for i, row := range l.Rows {
		gens[i] = gen
		offset := i > 0 && l.Rows[i-1].OffsetChild
		if row.IsParent {
			if offset {
				gen++
			}
		} else {
			gen = 0
		}
	}
	return gens
}

// Validate checks the level against a lane count without stamping it.
// Stamping performs the same checks lazily; Validate lets callers reject a
// malformed level before any trigger is scheduled.
func (l *Level) Validate(obstaclesPerRow int) error {
	if l == nil || len(l.Rows) == 0 {
		return errors.New(errors.ErrCodeInvalidLevel, "level has no rows")
	}
	for i, row := range l.Rows {
		if len(row.Obstacles) != obstaclesPerRow {
			return errors.New(errors.ErrCodeInvalidRowShape,
				"row %d: must be %d obstacles per row, got %d", i, obstaclesPerRow, len(row.Obstacles))
		}
		for lane, c := range row.Obstacles {
			if c >= obstacleCodeCount {
				return errors.New(errors.ErrCodeInvalidObstacle, "row %d lane %d: unknown obstacle code %d", i, lane, uint8(c))
			}
		}
	}
	if l.Rows[len(l.Rows)-1].IsParent {
		return errors.New(errors.ErrCodeInvalidLevel, "level ends inside a parent chain at row %d", len(l.Rows)-1)
	}
	return nil
}

// Provider hands out the level for the current run.
type Provider interface {
	GetLevel(ctx context.Context) (*Level, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*Level, error)

// GetLevel calls f.
func (f ProviderFunc) GetLevel(ctx context.Context) (*Level, error) { return f(ctx) }

// Static returns a provider that always yields l.
func Static(l *Level) Provider {
	return ProviderFunc(func(context.Context) (*Level, error) {
		if l == nil {
			return nil, errors.New(errors.ErrCodeLevelNotFound, "no level loaded")
		}
		return l, nil
	})
}
