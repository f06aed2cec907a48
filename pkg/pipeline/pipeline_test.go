package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/rowstamp/pkg/cache"
	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

const testLevel = `
name = "tutorial"

[[rows]]
obstacles = ["Box", "Nothing", "Nothing", "Nothing", "Saw"]
parent = true
offset_child = true

[[rows]]
obstacles = ["Nothing", "Wall", "Nothing", "Wall", "Nothing"]

[[rows]]
obstacles = ["Spikes", "Nothing", "Nothing", "Nothing", "Nothing"]
`

// memCache is an in-memory cache.Cache that counts writes.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	c.ttl = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateForLoad(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantErr    bool
		wantFormat string
	}{
		{"no source", Options{}, true, ""},
		{"both sources", Options{LevelPath: "a.toml", Level: "x"}, true, ""},
		{"inline defaults to toml", Options{Level: "x"}, false, "toml"},
		{"json from path", Options{LevelPath: "levels/a.json"}, false, "json"},
		{"toml from path", Options{LevelPath: "levels/a.toml"}, false, "toml"},
		{"explicit format", Options{Level: "{}", LevelFormat: "json"}, false, "json"},
		{"bad format", Options{Level: "x", LevelFormat: "yaml"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateForLoad()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateForLoad() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && opts.LevelFormat != tt.wantFormat {
				t.Errorf("LevelFormat = %q, want %q", opts.LevelFormat, tt.wantFormat)
			}
			if err == nil && opts.Logger == nil {
				t.Error("Logger should be defaulted")
			}
		})
	}
}

func TestValidateForPlan(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"negative speed", Options{Speed: -1}, true},
		{"bad geometry", Options{Geometry: wheel.Geometry{ObstaclesPerRow: 0, Radius: 1, Width: 1}}, true},
		{"negative spacing", Options{Timing: &stamper.Config{Spacing: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateForPlan()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForPlan() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Level: testLevel}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if opts.Geometry != wheel.DefaultGeometry() {
		t.Errorf("Geometry = %+v, want default", opts.Geometry)
	}
	if opts.Speed != wheel.DefaultSpeed {
		t.Errorf("Speed = %v, want %v", opts.Speed, wheel.DefaultSpeed)
	}
	if opts.Timing == nil || *opts.Timing != stamper.DefaultConfig() {
		t.Errorf("Timing = %v, want default", opts.Timing)
	}
	if opts.Format != FormatSVG {
		t.Errorf("Format = %q, want %q", opts.Format, FormatSVG)
	}

	// Idempotent: a second call must not fail or change anything.
	before := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Format != before.Format || opts.Speed != before.Speed {
		t.Error("second call should not change options")
	}
}

func planOpts(t *testing.T, opts Options) Options {
	t.Helper()
	if err := opts.ValidateForLoad(); err != nil {
		t.Fatal(err)
	}
	if err := opts.ValidateForPlan(); err != nil {
		t.Fatal(err)
	}
	return opts
}

func TestBuildPlan(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := planOpts(t, Options{Level: testLevel})
	l, _, err := r.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	p, err := BuildPlan(context.Background(), l, opts)
	if err != nil {
		t.Fatalf("BuildPlan() error: %v", err)
	}

	want := Stats{Rows: 3, Groups: 2, Placed: 5, Skipped: 0, Duration: 2}
	if p.Stats != want {
		t.Errorf("Stats = %+v, want %+v", p.Stats, want)
	}
	if len(p.Triggers) != 2 || p.Triggers[1].Row != 2 || p.Triggers[1].Delay != 2*time.Second {
		t.Errorf("Triggers = %+v", p.Triggers)
	}

	wantRows := []RowPlan{
		{Row: 0, Group: 0, Generation: 0, Parent: true, At: 0, Placed: 2},
		{Row: 1, Group: 0, Generation: 0, Offset: true, At: 0, Placed: 2},
		{Row: 2, Group: 1, Generation: 0, At: 2, Placed: 1},
	}
	if len(p.Rows) != len(wantRows) {
		t.Fatalf("len(Rows) = %d, want %d", len(p.Rows), len(wantRows))
	}
	for i, w := range wantRows {
		if p.Rows[i] != w {
			t.Errorf("Rows[%d] = %+v, want %+v", i, p.Rows[i], w)
		}
	}

	last := p.Placements[len(p.Placements)-1]
	if last.Row != 2 || last.Prefab != "Spikes" || last.At != 2 {
		t.Errorf("last placement = %+v", last)
	}
	if got := last.Position.Y; got != opts.Geometry.Radius {
		t.Errorf("generation 0 y = %v, want %v", got, opts.Geometry.Radius)
	}
}

func TestBuildPlanStrict(t *testing.T) {
	bad := `
[[rows]]
obstacles = ["Box", "Nothing"]
`
	r := NewRunner(nil, nil, nil)
	opts := planOpts(t, Options{Level: bad, Strict: true})
	l, _, err := r.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	_, err = BuildPlan(context.Background(), l, opts)
	if !errors.Is(err, errors.ErrCodeInvalidRowShape) {
		t.Errorf("BuildPlan() error = %v, want %s", err, errors.ErrCodeInvalidRowShape)
	}
}

func TestRunnerPlanCaching(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	p1, hit, err := r.PlanWithCacheInfo(ctx, Options{Level: testLevel})
	if err != nil {
		t.Fatalf("PlanWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first call should miss")
	}
	if p1.LevelHash != cache.Hash([]byte(testLevel)) {
		t.Errorf("LevelHash = %q", p1.LevelHash)
	}

	p2, hit, err := r.PlanWithCacheInfo(ctx, Options{Level: testLevel})
	if err != nil {
		t.Fatalf("PlanWithCacheInfo() error: %v", err)
	}
	if !hit {
		t.Error("second call should hit")
	}
	if p2.Stats != p1.Stats || p2.Level.Name != "tutorial" {
		t.Errorf("cached plan = %+v, want %+v", p2.Stats, p1.Stats)
	}

	// A different speed is a different key.
	if _, hit, _ := r.PlanWithCacheInfo(ctx, Options{Level: testLevel, Speed: 90}); hit {
		t.Error("different speed should miss")
	}

	// Refresh bypasses the read.
	if _, hit, _ := r.PlanWithCacheInfo(ctx, Options{Level: testLevel, Refresh: true}); hit {
		t.Error("refresh should miss")
	}
	if c.sets != 3 {
		t.Errorf("cache sets = %d, want 3", c.sets)
	}
}

func TestRunnerPlanFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.toml")
	if err := os.WriteFile(path, []byte(testLevel), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(nil, nil, nil)
	p, err := r.Plan(context.Background(), Options{LevelPath: path, LevelName: "renamed"})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if p.Level.Name != "renamed" {
		t.Errorf("Level.Name = %q, want renamed", p.Level.Name)
	}

	_, err = r.Plan(context.Background(), Options{LevelPath: filepath.Join(t.TempDir(), "missing.toml")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Plan() error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestRunnerGraphDOT(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	data, hit, err := r.GraphWithCacheInfo(ctx, Options{Level: testLevel, Format: FormatDOT})
	if err != nil {
		t.Fatalf("GraphWithCacheInfo() error: %v", err)
	}
	if hit {
		t.Error("first call should miss")
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("output should be DOT, got %q", dot[:min(len(dot), 40)])
	}
	if !strings.Contains(dot, "trigger 1 @ 2s") {
		t.Error("DOT should label the second trigger with its delay")
	}

	if _, hit, _ := r.GraphWithCacheInfo(ctx, Options{Level: testLevel, Format: FormatDOT}); !hit {
		t.Error("second call should hit")
	}
}

func TestUnmarshalPlanRequiresLevel(t *testing.T) {
	if _, err := UnmarshalPlan([]byte(`{"speed": 45}`)); err == nil {
		t.Error("UnmarshalPlan() should reject a plan without a level")
	}
	if _, err := UnmarshalPlan([]byte(`not json`)); err == nil {
		t.Error("UnmarshalPlan() should reject invalid JSON")
	}
}

func TestRunnerTTL(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r := NewRunner(mc, nil, nil)

	if _, err := r.Plan(ctx, Options{Level: testLevel}); err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if mc.ttl != cache.TTLPlan {
		t.Errorf("default ttl = %v, want %v", mc.ttl, cache.TTLPlan)
	}

	r.TTL = time.Hour
	if _, err := r.Plan(ctx, Options{Level: testLevel, Refresh: true}); err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if mc.ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", mc.ttl)
	}
}
