package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// watchCommand creates the watch command: a live terminal view of the
// wheel as a level is stamped.
func (c *CLI) watchCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "watch [level]",
		Short: "Watch a level being stamped onto the spinning wheel",
		Long: `Open a live terminal view of the wheel.

The level runs on a simulated clock advanced once per frame, so pausing
freezes both the wheel and the pending triggers. Changing the speed spins
the wheel faster or slower; restart to schedule the triggers at the new
speed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.levelOptions(cmd, &flags, args[0])
			return c.runWatch(cmd.Context(), opts)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options) error {
	l, err := c.loadForRun(ctx, &opts)
	if err != nil {
		return err
	}
	m, err := NewWatchModel(ctx, l, opts)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
