package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/rowstamp/pkg/io"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// planCommand creates the plan command: stamp a level on a virtual clock
// and print its trigger timeline.
func (c *CLI) planCommand() *cobra.Command {
	var (
		flags      runFlags
		output     string
		noCache    bool
		refresh    bool
		placements bool
	)

	cmd := &cobra.Command{
		Use:   "plan [level]",
		Short: "Compute when every row fires and where every obstacle lands",
		Long: `Compute the full stamping plan for a level without waiting for it.

The level is stamped on a virtual clock at a constant wheel speed. The plan
lists each row's trigger, firing time and generation, and can be written as
JSON for other tools.

Results are cached locally for faster subsequent runs.`,
		Example: `  rowstamp plan levels/intro.toml
  rowstamp plan levels/intro.toml --speed 90 -o intro.plan.json
  rowstamp plan levels/intro.toml --placements`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.levelOptions(cmd, &flags, args[0])
			opts.Refresh = refresh
			return c.runPlan(cmd.Context(), opts, output, noCache, placements)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan as JSON to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().BoolVar(&placements, "placements", false, "also list every placement")

	return cmd
}

// runPlan computes the plan and prints or writes it.
func (c *CLI) runPlan(ctx context.Context, opts pipeline.Options, output string, noCache, placements bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Planning %s...", opts.LevelPath))
	spinner.Start()

	plan, cacheHit, err := runner.PlanWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Planning failed")
		return err
	}
	spinner.Stop()

	if output != "" {
		if err := pkgio.ExportPlanJSON(plan, output); err != nil {
			return err
		}
		printSuccess("Planned %s", StyleTitle.Render(plan.Level.Name))
		printPlanStats(plan.Stats, cacheHit)
		printFile(output)
		return nil
	}

	printPlan(plan, cacheHit, placements)
	printNextStep("Run it in real time", "rowstamp run "+opts.LevelPath)
	return nil
}

// printPlan prints a plan's summary and timeline.
func printPlan(plan *pipeline.Plan, cached, placements bool) {
	printSuccess("Planned %s", StyleTitle.Render(plan.Level.Name))
	printPlanStats(plan.Stats, cached)
	fmt.Println(planTable(plan))
	if placements {
		fmt.Println(placementTable(plan))
	}
	if plan.Stats.Skipped > 0 {
		printWarning("%d lanes had no prefab and were skipped", plan.Stats.Skipped)
	}
}

// showCommand creates the show command: print a plan exported with
// "plan -o".
func (c *CLI) showCommand() *cobra.Command {
	var placements bool

	cmd := &cobra.Command{
		Use:     "show [plan.json]",
		Short:   "Print a plan written by plan -o",
		Example: `  rowstamp show intro.plan.json --placements`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := pkgio.ImportPlanJSON(args[0])
			if err != nil {
				return err
			}
			printPlan(plan, true, placements)
			return nil
		},
	}
	cmd.Flags().BoolVar(&placements, "placements", false, "also list every placement")
	return cmd
}
