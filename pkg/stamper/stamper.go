// Package stamper schedules the rows of a level onto a spinning wheel.
//
// A run has two halves. Init splits the level into row groups and
// schedules one trigger per group, spaced by the configured interval and
// corrected for any change in wheel speed. Each trigger hands control to a
// Placer, which stamps the group's rows back to back and tracks the
// generation that sets each row's angle on the wheel.
//
//	s := stamper.New(stamper.Deps{
//	    Wheel:     w,
//	    Levels:    level.Static(lvl),
//	    Prefabs:   prefab.NewDefaultRegistry(),
//	    Scene:     prefab.NewScene(),
//	    Scheduler: sched,
//	}, stamper.DefaultConfig(), stamper.WithLogger(logger))
//	if err := s.Init(ctx); err != nil {
//	    return err
//	}
//	<-s.Done()
//
// Triggers, the placer and the run state are only touched from scheduler
// callbacks, which run one at a time.
package stamper

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/geom"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/observability"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/timer"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// Default timing parameters, in seconds.
const (
	DefaultInitialDelay = 0.0
	DefaultSpacing      = 2.0
)

// Wheel is what the stamper needs from the spinning wheel.
type Wheel interface {
	// Speed is the current spin speed. It is sampled once as the starting
	// speed and again for every scheduled trigger.
	Speed() float64
	// Transform is the parent for every stamped instance.
	Transform() *geom.Transform
}

// Deps are the collaborators of a run.
type Deps struct {
	Wheel     Wheel
	Levels    level.Provider
	Prefabs   prefab.Resolver
	Scene     prefab.Instantiator
	Scheduler timer.Scheduler
}

// Config holds the per-stamper timing parameters.
type Config struct {
	// InitialDelay is the time before the first row group, in seconds.
	InitialDelay float64 `toml:"initial_delay" json:"initial_delay"`
	// Spacing is the time between row groups, in seconds.
	Spacing float64 `toml:"spacing" json:"spacing"`
}

// DefaultConfig returns the default timing.
func DefaultConfig() Config {
	return Config{InitialDelay: DefaultInitialDelay, Spacing: DefaultSpacing}
}

// Validate checks that both durations are finite and non-negative.
func (c Config) Validate() error {
	if !(c.InitialDelay >= 0) || math.IsInf(c.InitialDelay, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "initial delay must be >= 0, got %v", c.InitialDelay)
	}
	if !(c.Spacing >= 0) || math.IsInf(c.Spacing, 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "spacing must be >= 0, got %v", c.Spacing)
	}
	return nil
}

// Trigger is one scheduled row group.
type Trigger struct {
	// Group is the position among scheduled groups.
	Group int `json:"group"`
	// Row is the first row of the group.
	Row int `json:"row"`
	// Delay is measured from the Init call.
	Delay time.Duration `json:"delay"`
}

// Option configures a Stamper.
type Option func(*Stamper)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Stamper) { s.logger = l }
}

// WithGeometry overrides the default wheel geometry.
func WithGeometry(g wheel.Geometry) Option {
	return func(s *Stamper) { s.geometry = g }
}

// WithSpawn sets the pose instances are created at before being moved
// onto the wheel.
func WithSpawn(t *geom.Transform) Option {
	return func(s *Stamper) { s.spawn = t }
}

// WithPlacementFunc registers fn to receive every placement. It runs on
// the scheduler's callback goroutine and must not call back into the
// Stamper.
func WithPlacementFunc(fn func(Placement)) Option {
	return func(s *Stamper) { s.onPlace = fn }
}

// Stamper schedules row groups and drives the Placer.
type Stamper struct {
	deps     Deps
	cfg      Config
	geometry wheel.Geometry
	spawn    *geom.Transform
	logger   *log.Logger
	onPlace  func(Placement)

	mu        sync.Mutex
	level     *level.Level
	placer    *Placer
	triggers  []Trigger
	handles   []timer.Handle
	remaining int
	done      chan struct{}
	err       error
}

// New creates a stamper. Nothing is scheduled until Init.
func New(deps Deps, cfg Config, opts ...Option) *Stamper {
	s := &Stamper{
		deps:     deps,
		cfg:      cfg,
		geometry: wheel.DefaultGeometry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return s
}

// Init loads the level, resets the run state and schedules one trigger per
// row group. A trigger at group position i fires after
//
//	i * spacing * (startingSpeed / currentSpeed) + initialDelay
//
// seconds, where the starting speed is sampled once and the current speed
// is read again for every group. Any run still pending from an earlier
// Init is torn down first.
func (s *Stamper) Init(ctx context.Context) error {
	if s.deps.Wheel == nil {
		return errors.New(errors.ErrCodeNotInitialized, "wheel not available")
	}
	if s.deps.Levels == nil {
		return errors.New(errors.ErrCodeNotInitialized, "level provider not available")
	}
	if s.deps.Prefabs == nil || s.deps.Scene == nil {
		return errors.New(errors.ErrCodeNotInitialized, "prefab registry or scene not available")
	}
	if s.deps.Scheduler == nil {
		return errors.New(errors.ErrCodeNotInitialized, "scheduler not available")
	}
	if err := s.geometry.Validate(); err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	lvl, err := s.deps.Levels.GetLevel(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotInitialized, err, "level not available")
	}
	if lvl == nil || len(lvl.Rows) == 0 {
		return errors.New(errors.ErrCodeNotInitialized, "level has no rows")
	}

	startingSpeed := s.deps.Wheel.Speed()
	if !(startingSpeed > 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "wheel speed must be > 0, got %v", startingSpeed)
	}

	s.Teardown()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = lvl
	s.placer = &Placer{
		Geometry: s.geometry,
		Wheel:    s.deps.Wheel,
		Rows:     lvl.Rows,
		Prefabs:  s.deps.Prefabs,
		Scene:    s.deps.Scene,
		Spawn:    s.spawn,
		Logger:   s.logger,
		OnPlace:  s.onPlace,
	}
	s.placer.State.Reset()
	s.done = make(chan struct{})
	s.err = nil

	starts := lvl.ScheduledRows()
	s.triggers = make([]Trigger, 0, len(starts))
	s.handles = make([]timer.Handle, 0, len(starts))
	s.remaining = len(starts)

	s.logger.Info("starting run",
		"level", lvl.Name, "rows", len(lvl.Rows), "triggers", len(starts), "speed", startingSpeed)
	observability.Stamper().OnRunStart(lvl.Name, len(lvl.Rows), len(starts))

	for i, row := range starts {
		speed := s.deps.Wheel.Speed()
		if !(speed > 0) {
			err := errors.New(errors.ErrCodeInvalidConfig, "wheel speed must be > 0, got %v", speed)
			s.cancelLocked()
			s.err = err
			close(s.done)
			return err
		}
		speedModifier := startingSpeed / speed
		delay := timer.Seconds(float64(i)*s.cfg.Spacing*speedModifier + s.cfg.InitialDelay)

		done := s.done
		h := s.deps.Scheduler.AfterFunc(delay, func() { s.fire(done) })
		s.triggers = append(s.triggers, Trigger{Group: i, Row: row, Delay: delay})
		s.handles = append(s.handles, h)

		s.logger.Debug("scheduled trigger", "group", i, "row", row, "delay", delay)
		observability.Stamper().OnTriggerScheduled(i, row, delay)
	}
	return nil
}

// fire runs one trigger. done identifies the run the trigger belongs to,
// so a stale callback from a torn-down run does nothing.
func (s *Stamper) fire(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != done || isClosed(done) {
		return
	}

	p := s.placer
	p.State.Fired++
	s.remaining--

	if err := p.StampHierarchy(); err != nil {
		s.abortLocked(err)
		return
	}

	if s.remaining == 0 {
		st := p.State
		s.logger.Info("run complete",
			"level", s.level.Name, "rows", st.RowsStamped, "placed", st.Placed, "skipped", st.Skipped)
		observability.Stamper().OnRunComplete(st.RowsStamped, st.Placed, st.Skipped)
		close(s.done)
	}
}

// abortLocked stops the run on a structural error.
func (s *Stamper) abortLocked(err error) {
	row := s.placer.State.RowIndex
	n := s.cancelLocked()
	s.err = err
	s.logger.Error("run aborted", "row", row, "cancelled", n, "err", err)
	observability.Stamper().OnRunAborted(row, err)
	close(s.done)
}

// cancelLocked cancels every pending trigger of the current run.
func (s *Stamper) cancelLocked() int {
	n := 0
	for _, h := range s.handles {
		if h.Cancel() {
			n++
		}
	}
	s.handles = nil
	return n
}

// Teardown cancels every pending trigger of the current run and returns
// how many were cancelled. A run stopped early reports context.Canceled
// from Err.
func (s *Stamper) Teardown() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.cancelLocked()
	if s.done != nil && !isClosed(s.done) {
		s.err = context.Canceled
		close(s.done)
		s.logger.Debug("run torn down", "cancelled", n)
	}
	return n
}

// Done is closed when the run completes, aborts or is torn down. It is nil
// before the first Init.
func (s *Stamper) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error that ended the run, if any.
func (s *Stamper) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns a snapshot of the run state.
func (s *Stamper) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placer == nil {
		return RunState{}
	}
	return s.placer.State
}

// Triggers returns the triggers scheduled by the last Init.
func (s *Stamper) Triggers() []Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Trigger, len(s.triggers))
	copy(out, s.triggers)
	return out
}

// Level returns the level loaded by the last Init.
func (s *Stamper) Level() *level.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
