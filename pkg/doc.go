// Package pkg provides the core libraries for rowstamp.
//
// # Overview
//
// Rowstamp turns obstacle levels into objects on a spinning wheel. A level
// is a list of rows, one obstacle code per lane. Rows are grouped into
// parent chains; each chain is scheduled as one trigger, and when the
// trigger fires every row of the chain is stamped onto the wheel rim at an
// angle set by its generation.
//
// # Architecture
//
// The typical data flow:
//
//	Level file (TOML/JSON)
//	         ↓
//	    [level] package (rows, groups, validation)
//	         ↓
//	    [stamper] package (triggers on a [timer] scheduler)
//	         ↓
//	    [wheel] + [prefab] packages (geometry, instances in a scene)
//	         ↓
//	    Plan JSON / DOT / SVG output
//
// # Quick Start
//
// Stamp a level on a virtual clock:
//
//	lvl, _, _ := level.ReadFile("levels/intro.toml")
//	sched := timer.NewVirtual()
//	s := stamper.New(stamper.Deps{
//	    Wheel:     wheel.New(wheel.DefaultSpeed),
//	    Levels:    level.Static(lvl),
//	    Prefabs:   prefab.NewDefaultRegistry(),
//	    Scene:     prefab.NewScene(),
//	    Scheduler: sched,
//	}, stamper.DefaultConfig())
//	if err := s.Init(ctx); err != nil {
//	    return err
//	}
//	sched.RunUntilIdle()
//
// Or let the pipeline do it, with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	plan, err := runner.Plan(ctx, pipeline.Options{LevelPath: "levels/intro.toml"})
//
// # Main Packages
//
// ## Domain
//
// [level] - Obstacle codes, rows, row groups and the generation walk.
// Levels decode from TOML, JSON or HCL.
//
// [stamper] - Trigger scheduling and the row placer. Trigger delays are
// corrected for changes in wheel speed.
//
// [wheel] - Wheel geometry, lane positions and the spinning wheel itself.
//
// [prefab] - The obstacle prefab registry and the scene instances are
// created in.
//
// [timer] - Schedulers: a wall-clock one for real runs and a virtual one
// for planning and tests.
//
// [geom] - Vectors, quaternions and parented transforms.
//
// ## Output
//
// [pipeline] - Load → plan → graph, with caching. Used by the CLI and the
// HTTP API.
//
// [render/levelgraph] - Graphviz diagrams of a level's row groups.
//
// [io] - Plan and level import/export.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [config] - The TOML configuration file.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for metrics and tracing.
//
// [buildinfo] - Version information set at build time.
//
// [level]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/level
// [stamper]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/stamper
// [wheel]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/wheel
// [prefab]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/prefab
// [timer]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/timer
// [geom]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/geom
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/pipeline
// [render/levelgraph]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/render/levelgraph
// [io]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/rowstamp/pkg/buildinfo
package pkg
