package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// ReadPlanJSON decodes a JSON plan from r.
//
// ReadPlanJSON returns an error if the JSON is malformed, if the plan has
// no level, or if a placement or row entry refers to a row the level does
// not have. ReadPlanJSON does not close r.
func ReadPlanJSON(r io.Reader) (*pipeline.Plan, error) {
	var p pipeline.Plan
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if p.Level == nil {
		return nil, fmt.Errorf("decode: plan has no level")
	}

	n := len(p.Level.Rows)
	for _, rp := range p.Rows {
		if rp.Row < 0 || rp.Row >= n {
			return nil, fmt.Errorf("row %d: out of range for %d rows", rp.Row, n)
		}
	}
	for i, pl := range p.Placements {
		if pl.Row < 0 || pl.Row >= n {
			return nil, fmt.Errorf("placement %d: row %d out of range for %d rows", i, pl.Row, n)
		}
	}
	return &p, nil
}

// ImportPlanJSON reads a JSON file at path and returns the decoded plan.
// The error wraps the underlying cause with the file path for context.
func ImportPlanJSON(path string) (*pipeline.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlanJSON(f)
}
