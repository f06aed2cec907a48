package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rowstamp/pkg/cache"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/observability"
	"github.com/matzehuels/rowstamp/pkg/render/levelgraph"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default lifetime of cached plans and graphs.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Load reads the level named by opts and returns it with its raw bytes.
// The raw bytes are what cache keys hash.
func (r *Runner) Load(ctx context.Context, opts Options) (*level.Level, []byte, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, err
	}
	r.applyLogger(&opts)

	source := opts.LevelPath
	if source == "" {
		source = "inline"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	l, raw, err := load(ctx, opts)
	rows := 0
	if l != nil {
		rows = len(l.Rows)
	}
	hooks.OnLoadComplete(ctx, source, rows, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	if opts.LevelName != "" {
		l.Name = opts.LevelName
	}
	opts.Logger.Debug("loaded level", "source", source, "name", l.Name, "rows", rows)
	return l, raw, nil
}

func load(ctx context.Context, opts Options) (*level.Level, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if opts.LevelPath != "" {
		return level.ReadFile(opts.LevelPath)
	}
	raw := []byte(opts.Level)
	l, err := level.Decode(raw, opts.LevelFormat)
	if err != nil {
		return nil, nil, err
	}
	return l, raw, nil
}

// PlanWithCacheInfo loads and plans a level with caching and returns cache hit info.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, opts Options) (*Plan, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForPlan(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	l, raw, err := r.Load(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}
	levelHash := cache.Hash(raw)
	cacheKey := r.Keyer.PlanKey(levelHash, opts.PlanKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if p, err := UnmarshalPlan(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return p, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "plan")
	}

	hooks := observability.Pipeline()
	hooks.OnPlanStart(ctx, l.Name, len(l.Rows))
	start := time.Now()
	p, err := BuildPlan(ctx, l, opts)
	placed := 0
	if p != nil {
		placed = p.Stats.Placed
	}
	hooks.OnPlanComplete(ctx, l.Name, placed, time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("plan: %w", err)
	}
	p.LevelHash = levelHash

	r.Logger.Info("planned level",
		"level", l.Name,
		"groups", p.Stats.Groups,
		"placed", p.Stats.Placed,
		"skipped", p.Stats.Skipped,
		"duration", time.Since(start))

	// Cache the result
	if data, err := MarshalPlan(p); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLPlan)); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "plan", len(data))
		}
	}

	return p, false, nil // Cache miss
}

// Plan is a convenience wrapper that calls PlanWithCacheInfo and discards the cache hit info.
func (r *Runner) Plan(ctx context.Context, opts Options) (*Plan, error) {
	p, _, err := r.PlanWithCacheInfo(ctx, opts)
	return p, err
}

// GraphWithCacheInfo renders the level's row groups with caching and returns cache hit info.
func (r *Runner) GraphWithCacheInfo(ctx context.Context, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForGraph(); err != nil {
		return nil, false, err
	}
	opts.SetPlanDefaults()
	r.applyLogger(&opts)

	l, raw, err := r.Load(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}
	cacheKey := r.Keyer.GraphKey(cache.Hash(raw), opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "graph")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	data, err := RenderGraph(ctx, l, opts)
	if err != nil {
		return nil, false, fmt.Errorf("render: %w", err)
	}

	if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLGraph)); err == nil {
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}
	return data, false, nil
}

// Graph is a convenience wrapper that calls GraphWithCacheInfo and discards the cache hit info.
func (r *Runner) Graph(ctx context.Context, opts Options) ([]byte, error) {
	data, _, err := r.GraphWithCacheInfo(ctx, opts)
	return data, err
}

// RenderGraph renders l in opts.Format without caching.
func RenderGraph(ctx context.Context, l *level.Level, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()

	dot := levelgraph.ToDOT(l, levelgraph.Options{
		Detailed: opts.Detailed,
		Delays:   TriggerDelays(l, *opts.Timing),
	})

	var data []byte
	var err error
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = levelgraph.RenderSVG(ctx, dot)
	default:
		err = fmt.Errorf("unsupported format: %s", opts.Format)
	}
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
