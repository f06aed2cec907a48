// Package io provides JSON import and export for stamping plans.
//
// # Overview
//
// A plan records when every row group of a level fires and where every
// obstacle lands on the wheel. Exporting it lets external tools (level
// editors, replay viewers, test fixtures) consume a run without stamping
// the level themselves.
//
// # JSON Format
//
// The format mirrors [pipeline.Plan]:
//
//	{
//	  "level": {"name": "intro", "rows": [...]},
//	  "level_hash": "3f2a...",
//	  "geometry": {"obstacles_per_row": 5, "radius": 20, "width": 10},
//	  "speed": 45,
//	  "timing": {"initial_delay": 0, "spacing": 2},
//	  "triggers": [{"group": 0, "row": 0, "delay": 0}],
//	  "rows": [{"row": 0, "group": 0, "generation": 0, "at": 0, "placed": 2}],
//	  "placements": [
//	    {"row": 0, "lane": 0, "generation": 0, "prefab": "Box", "at": 0,
//	     "position": {"x": -4, "y": 20, "z": 0}, "rotation_degrees": 0}
//	  ],
//	  "stats": {"rows": 3, "groups": 2, "placed": 5, "skipped": 0, "duration": 2}
//	}
//
// Trigger delays are nanoseconds; every other time is in seconds.
//
// # Import
//
// Use [ImportPlanJSON] to read a plan from a file path, or [ReadPlanJSON] to
// read from any io.Reader:
//
//	p, err := io.ImportPlanJSON("intro.plan.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export
//
// Use [ExportPlanJSON] to write a plan to a file, or [WritePlanJSON] to write
// to any io.Writer. Levels themselves are written with [ExportLevel].
//
// [pipeline.Plan]: github.com/matzehuels/rowstamp/pkg/pipeline.Plan
package io
