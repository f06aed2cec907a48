package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/timer"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// runCommand creates the run command: stamp a level in real time.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [level]",
		Short: "Stamp a level in real time",
		Long: `Stamp a level in real time, logging every trigger and row.

Row groups fire on the wall clock exactly as they would in game. Use
--verbose to see each scheduled trigger and stamped row. Ctrl-C tears down
the pending triggers and exits.`,
		Example: `  rowstamp run levels/intro.toml
  rowstamp run levels/intro.toml --speed 90 -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.levelOptions(cmd, &flags, args[0])
			return c.runRealtime(cmd.Context(), opts)
		},
	}

	flags.register(cmd)
	return cmd
}

// loadForRun loads the level and validates the run options. Strict mode
// validates the whole level up front.
func (c *CLI) loadForRun(ctx context.Context, opts *pipeline.Options) (*level.Level, error) {
	if err := opts.ValidateForPlan(); err != nil {
		return nil, err
	}
	l, _, err := pipeline.NewRunner(nil, nil, c.Logger).Load(ctx, *opts)
	if err != nil {
		return nil, err
	}
	if opts.Strict {
		if err := l.Validate(opts.Geometry.ObstaclesPerRow); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// newStamper wires a stamper for l with the run parameters in opts.
func newStamper(l *level.Level, opts pipeline.Options, w *wheel.Wheel, scene *prefab.Scene, sched timer.Scheduler, logger *log.Logger, onPlace func(stamper.Placement)) *stamper.Stamper {
	spawn := geom.NewTransform("spawn", opts.Spawn, geom.AxisAngle(wheel.Axis, opts.SpawnRotationX))
	stOpts := []stamper.Option{
		stamper.WithGeometry(opts.Geometry),
		stamper.WithSpawn(spawn),
		stamper.WithLogger(logger),
	}
	if onPlace != nil {
		stOpts = append(stOpts, stamper.WithPlacementFunc(onPlace))
	}
	return stamper.New(stamper.Deps{
		Wheel:     w,
		Levels:    level.Static(l),
		Prefabs:   prefab.NewDefaultRegistry(),
		Scene:     scene,
		Scheduler: sched,
	}, *opts.Timing, stOpts...)
}

// runRealtime stamps the level on the wall clock and waits for the run to
// finish or ctx to be cancelled.
func (c *CLI) runRealtime(ctx context.Context, opts pipeline.Options) error {
	l, err := c.loadForRun(ctx, &opts)
	if err != nil {
		return err
	}

	sched := timer.NewRealtime()
	sched.Start()
	defer sched.Stop()

	spinner := newSpinner(ctx, os.Stderr, "Waiting for the first trigger...")
	placed := 0
	onPlace := func(p stamper.Placement) {
		placed++
		spinner.SetMessage(fmt.Sprintf("Stamping %s: row %d, %d placed", l.Name, p.Row, placed))
	}

	scene := prefab.NewScene()
	w := wheel.New(opts.Speed)
	s := newStamper(l, opts, w, scene, sched, c.Logger, onPlace)

	prog := newProgress(c.Logger)
	if err := s.Init(ctx); err != nil {
		return err
	}
	triggers := s.Triggers()
	if n := len(triggers); n > 0 {
		printInfo("Stamping %s: %d triggers over %s", StyleTitle.Render(l.Name), n, triggers[n-1].Delay)
	}
	spinner.Start()

	select {
	case <-s.Done():
		spinner.Stop()
	case <-ctx.Done():
		n := s.Teardown()
		spinner.Stop()
		printWarning("Interrupted, %d triggers cancelled", n)
		return ctx.Err()
	}

	if err := s.Err(); err != nil {
		if errors.IsStructural(err) {
			printError("Run aborted at row %d", s.State().RowIndex)
		}
		return fmt.Errorf("run %s: %w", l.Name, err)
	}

	st := s.State()
	prog.done("Stamped "+l.Name, "rows", st.RowsStamped, "placed", st.Placed, "skipped", st.Skipped)
	printSuccess("Stamped %s", StyleTitle.Render(l.Name))
	printDetail("%d rows · %d obstacles on the wheel", st.RowsStamped, scene.Len())
	return nil
}
