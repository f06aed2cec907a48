// Package cli implements the rowstamp command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rowstamp/pkg/buildinfo"
	"github.com/matzehuels/rowstamp/pkg/cache"
	"github.com/matzehuels/rowstamp/pkg/config"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "rowstamp"

	// redisPrefix namespaces every key the CLI writes to a shared Redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config { return c.config }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Rowstamp schedules obstacle rows onto a spinning wheel",
		Long:         `Rowstamp reads obstacle levels, schedules their row groups against the wheel's speed and stamps every obstacle onto the wheel rim. It can plan a level offline, run it in real time, watch it spin in the terminal and serve plans over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (TOML)")

	// Register all subcommands
	root.AddCommand(c.planCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads --config when set. Without it the defaults apply.
func (c *CLI) loadConfig() error {
	if c.configPath == "" {
		c.config = config.Default()
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	c.Logger.Debug("loaded config", "path", c.configPath)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)
	runner.TTL = c.config.Cache.TTL.Duration
	return runner, nil
}

// newCache picks the cache backend: Redis when configured, else a file
// cache. A missing home directory disables caching rather than failing.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := c.config.Cache.RedisAddr; addr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: addr, Prefix: redisPrefix})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the
// XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.config.Cache.Dir != "" {
		return c.config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/rowstamp/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// runFlags are the run parameters shared by plan, run, watch and graph.
// Each one overrides the config file only when set on the command line.
type runFlags struct {
	speed   float64
	spacing float64
	delay   float64
	strict  bool
	name    string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.speed, "speed", 0, "wheel speed in degrees per second (default from config)")
	cmd.Flags().Float64Var(&f.spacing, "spacing", 0, "seconds between row groups (default from config)")
	cmd.Flags().Float64Var(&f.delay, "delay", 0, "seconds before the first row group (default from config)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "validate the whole level before stamping")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "override the level name")
}

// levelOptions builds pipeline options for a level file from the config
// and the flags that were set.
func (c *CLI) levelOptions(cmd *cobra.Command, f *runFlags, path string) pipeline.Options {
	opts := pipeline.Options{
		LevelPath: path,
		LevelName: f.name,
		Strict:    f.strict,
		Logger:    c.Logger,
	}
	if cmd.Flags().Changed("speed") {
		opts.Speed = f.speed
	}
	if cmd.Flags().Changed("spacing") || cmd.Flags().Changed("delay") {
		timing := c.config.Stamper
		if cmd.Flags().Changed("spacing") {
			timing.Spacing = f.spacing
		}
		if cmd.Flags().Changed("delay") {
			timing.InitialDelay = f.delay
		}
		opts.Timing = &timing
	}
	c.config.Apply(&opts)
	return opts
}
