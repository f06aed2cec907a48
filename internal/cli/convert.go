package cli

import (
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/rowstamp/pkg/io"
	"github.com/matzehuels/rowstamp/pkg/level"
)

// convertCommand creates the convert command: rewrite a level between
// TOML, JSON and HCL.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		name   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "convert [in] [out]",
		Short: "Convert a level between TOML, JSON and HCL",
		Long: `Convert a level file. Formats follow the file extensions, so the same
command also normalizes a level in place. Files ending in .json or .hcl
are written in that format; anything else is written as TOML.`,
		Example: `  rowstamp convert levels/intro.toml intro.json
  rowstamp convert intro.json levels/intro.toml --strict
  rowstamp convert levels/intro.toml intro.hcl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			l, _, err := level.ReadFile(in)
			if err != nil {
				return err
			}
			if name != "" {
				l.Name = name
			}
			if strict {
				if err := l.Validate(c.config.Wheel.ObstaclesPerRow); err != nil {
					return err
				}
			}
			if err := pkgio.ExportLevel(l, out); err != nil {
				return err
			}

			printSuccess("Converted %s", StyleTitle.Render(l.Name))
			printDetail("%d rows, %d triggers", len(l.Rows), len(l.ScheduledRows()))
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "override the level name")
	cmd.Flags().BoolVar(&strict, "strict", false, "validate the level before writing")
	return cmd
}
