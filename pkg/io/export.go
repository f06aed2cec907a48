package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// WritePlanJSON encodes a plan as indented JSON and writes it to w.
// The output can be re-imported with [ReadPlanJSON].
func WritePlanJSON(p *pipeline.Plan, w io.Writer) error {
	if p == nil {
		return fmt.Errorf("encode: nil plan")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportPlanJSON writes a plan to a JSON file at path.
// This is a convenience wrapper around [WritePlanJSON] for file-based output.
func ExportPlanJSON(p *pipeline.Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePlanJSON(p, f)
}

// ExportLevel writes a level to path in the format implied by its
// extension.
func ExportLevel(l *level.Level, path string) error {
	data, err := level.Encode(l, level.FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
