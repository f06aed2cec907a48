package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/timer"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

// Watch styles
var (
	watchLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	watchDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	watchDoneStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	watchErrStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

const (
	// watchFrame is the simulated time per frame.
	watchFrame = 50 * time.Millisecond
	// watchRows is how many stamped rows the viewer lists.
	watchRows = 10
	// speedStep scales the wheel speed per key press.
	speedStep = 1.25
)

// tickMsg advances the simulation by one frame.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(watchFrame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// stampedRow is one row on the wheel as the viewer shows it.
type stampedRow struct {
	row        int
	generation int
	instances  []*prefab.Instance
}

// =============================================================================
// WatchModel - Live wheel viewer
// =============================================================================

// WatchModel is the bubbletea model for the live wheel viewer. The stamper
// runs on a virtual clock that Update advances one frame per tick, so
// trigger callbacks run on the bubbletea goroutine.
type WatchModel struct {
	ctx   context.Context
	level *level.Level
	opts  pipeline.Options

	sched   *timer.Virtual
	wheel   *wheel.Wheel
	scene   *prefab.Scene
	stamper *stamper.Stamper

	rows   []stampedRow
	paused bool
	done   bool
	err    error
}

// NewWatchModel creates a viewer and starts the first run.
func NewWatchModel(ctx context.Context, l *level.Level, opts pipeline.Options) (*WatchModel, error) {
	m := &WatchModel{ctx: ctx, level: l, opts: opts}
	if err := m.restart(opts.Speed); err != nil {
		return nil, err
	}
	return m, nil
}

// restart builds a fresh wheel, scene and stamper and runs Init.
func (m *WatchModel) restart(speed float64) error {
	if m.stamper != nil {
		m.stamper.Teardown()
	}
	m.sched = timer.NewVirtual()
	m.wheel = wheel.New(speed)
	m.scene = prefab.NewScene()
	m.rows = nil
	m.done = false
	m.err = nil

	m.stamper = newStamper(m.level, m.opts, m.wheel, m.scene, m.sched, nil, m.record)
	return m.stamper.Init(m.ctx)
}

// record collects placements by row.
func (m *WatchModel) record(p stamper.Placement) {
	if n := len(m.rows); n == 0 || m.rows[n-1].row != p.Row {
		m.rows = append(m.rows, stampedRow{row: p.Row, generation: p.Generation})
	}
	last := &m.rows[len(m.rows)-1]
	last.instances = append(last.instances, p.Instance)
}

// step advances the simulation by d.
func (m *WatchModel) step(d time.Duration) {
	m.sched.Advance(d)
	m.wheel.Spin(d.Seconds())

	if !m.done && isDone(m.stamper.Done()) {
		m.done = true
		m.err = m.stamper.Err()
	}
}

func isDone(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return tick()
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.paused {
			m.step(watchFrame)
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stamper.Teardown()
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			m.wheel.SetSpeed(m.wheel.Speed() * speedStep)
		case "-":
			m.wheel.SetSpeed(m.wheel.Speed() / speedStep)
		case "r":
			if err := m.restart(m.wheel.Speed()); err != nil {
				m.done, m.err = true, err
			}
		}
	}
	return m, nil
}

func (m *WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("rowstamp · " + m.level.Name))
	b.WriteString("\n")
	b.WriteString(watchDimStyle.Render("space pause  +/- speed  r restart  q quit"))
	b.WriteString("\n\n")

	st := m.stamper.State()
	triggers := m.stamper.Triggers()
	b.WriteString(watchLine("time", fmt.Sprintf("%.2fs", m.sched.Now().Seconds())))
	b.WriteString(watchLine("speed", fmt.Sprintf("%.1f°/s", m.wheel.Speed())))
	b.WriteString(watchLine("wheel", fmt.Sprintf("%.1f°", math.Mod(m.wheel.Angle(), 360))))
	b.WriteString(watchLine("triggers", fmt.Sprintf("%d/%d", st.Fired, len(triggers))))
	b.WriteString(watchLine("rows", fmt.Sprintf("%d/%d", st.RowsStamped, len(m.level.Rows))))
	b.WriteString(watchLine("placed", fmt.Sprintf("%d", m.scene.Len())))
	if next, ok := nextTrigger(triggers, st.Fired); ok {
		wait := next.Delay - m.sched.Now()
		b.WriteString(watchLine("next", fmt.Sprintf("row %d in %.2fs", next.Row, wait.Seconds())))
	}
	b.WriteString("\n")

	start := 0
	if len(m.rows) > watchRows {
		start = len(m.rows) - watchRows
	}
	for _, r := range m.rows[start:] {
		angle := rowAngle(r)
		line := fmt.Sprintf("  row %-3d gen %-2d %7.1f°  %s", r.row, r.generation, angle, laneStrip(m.level.Rows[r.row]))
		b.WriteString(line)
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString("\n" + watchErrStyle.Render("aborted: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("\n" + watchDoneStyle.Render("all rows stamped") + "\n")
	case m.paused:
		b.WriteString("\n" + StyleWarning.Render("paused") + "\n")
	}
	return b.String()
}

func watchLine(label, value string) string {
	return watchLabelStyle.Render(label) + " " + StyleValue.Render(value) + "\n"
}

func nextTrigger(triggers []stamper.Trigger, fired int) (stamper.Trigger, bool) {
	if fired < len(triggers) {
		return triggers[fired], true
	}
	return stamper.Trigger{}, false
}

// rowAngle returns where a stamped row currently sits on the rim, in
// degrees about the wheel axis.
func rowAngle(r stampedRow) float64 {
	if len(r.instances) == 0 {
		return 0
	}
	deg := r.instances[0].Transform.Rotation().AngleAbout(wheel.Axis)
	return math.Mod(deg+360, 360)
}
