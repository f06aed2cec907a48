package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// graphCommand creates the graph command: draw a level's row groups.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    runFlags
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "graph [level]",
		Short: "Draw a level's row groups and parent chains",
		Long: `Draw a level as a diagram: one box per trigger, holding the rows that
fire together. Dashed edges mark rows reached through an offset child;
incomplete chains end in a red "missing row" node.

DOT output needs no Graphviz installation; SVG is rendered in-process.`,
		Example: `  rowstamp graph levels/intro.toml
  rowstamp graph levels/intro.toml -f dot -o intro.dot --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			opts := c.levelOptions(cmd, &flags, args[0])
			opts.Format = format
			opts.Detailed = detailed
			if output == "" {
				output = defaultGraphOutput(args[0], format)
			}
			return c.runGraph(cmd.Context(), opts, output, noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: level name with the format's extension)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show each row's lanes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// defaultGraphOutput replaces the level file's extension with the format.
func defaultGraphOutput(levelPath, format string) string {
	base := strings.TrimSuffix(filepath.Base(levelPath), filepath.Ext(levelPath))
	return base + "." + format
}

func (c *CLI) runGraph(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", opts.Format))
	spinner.Start()

	data, cacheHit, err := runner.GraphWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	status := iconFresh
	if cacheHit {
		status = iconCached
	}
	printSuccess("Rendered %s %s", opts.Format, StyleDim.Render("("+status+")"))
	printFile(output)
	return nil
}
