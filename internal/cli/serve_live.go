package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
	"github.com/matzehuels/rowstamp/pkg/prefab"
	"github.com/matzehuels/rowstamp/pkg/stamper"
	"github.com/matzehuels/rowstamp/pkg/timer"
	"github.com/matzehuels/rowstamp/pkg/wheel"
)

const (
	liveWriteWait = 10 * time.Second
	// liveBacklog is how many placements may queue up before the stamper
	// waits on a slow client.
	liveBacklog = 64
)

// Live message types, in the order a client sees them.
const (
	liveStart     = "start"
	livePlacement = "placement"
	liveDone      = "done"
	liveError     = "error"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveMessage is one frame of GET /levels/{name}/live.
type liveMessage struct {
	Type      string              `json:"type"`
	Level     string              `json:"level,omitempty"`
	Triggers  []stamper.Trigger   `json:"triggers,omitempty"`
	Placement *pipeline.Placement `json:"placement,omitempty"`
	State     *stamper.RunState   `json:"state,omitempty"`
	Error     *errorResponse      `json:"error,omitempty"`
}

// handleLive stamps a level on the wall clock and streams every placement
// over a websocket. Bad requests fail before the upgrade with the usual
// JSON error; run failures arrive as an error frame.
func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	opts, err := s.queryOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := opts.ValidateForPlan(); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Strict {
		if err := l.Validate(opts.Geometry.ObstaclesPerRow); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	logger := loggerFromContext(r.Context())
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	sched := timer.NewRealtime()
	sched.Start()
	defer sched.Stop()

	events := make(chan pipeline.Placement, liveBacklog)
	onPlace := func(p stamper.Placement) {
		ev := pipeline.Placement{
			Row:             p.Row,
			Lane:            p.Lane,
			Generation:      p.Generation,
			Offset:          p.Offset,
			Prefab:          p.Prefab,
			At:              sched.Now().Seconds(),
			Position:        p.Position,
			RotationDegrees: p.RotationDegrees,
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	st := newStamper(l, opts, wheel.New(opts.Speed), prefab.NewScene(), sched, logger, onPlace)
	if err := st.Init(ctx); err != nil {
		_ = writeLive(conn, liveMessage{Type: liveError, Error: errorBody(err)})
		return
	}
	// Done is read once: the stamper holds its lock while a placement
	// waits on a full backlog.
	done := st.Done()
	if err := writeLive(conn, liveMessage{Type: liveStart, Level: l.Name, Triggers: st.Triggers()}); err != nil {
		cancel()
		st.Teardown()
		return
	}

	send := func(p pipeline.Placement) bool {
		return writeLive(conn, liveMessage{Type: livePlacement, Placement: &p}) == nil
	}

	for {
		select {
		case p := <-events:
			if !send(p) {
				cancel()
				st.Teardown()
				return
			}
		case <-done:
			for drained := false; !drained; {
				select {
				case p := <-events:
					if !send(p) {
						return
					}
				default:
					drained = true
				}
			}
			state := st.State()
			if err := st.Err(); err != nil {
				_ = writeLive(conn, liveMessage{Type: liveError, State: &state, Error: errorBody(err)})
				return
			}
			_ = writeLive(conn, liveMessage{Type: liveDone, Level: l.Name, State: &state})
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete"))
			return
		case <-ctx.Done():
			n := st.Teardown()
			logger.Debug("live client gone", "cancelled", n)
			return
		}
	}
}

func writeLive(conn *websocket.Conn, msg liveMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(msg)
}

func errorBody(err error) *errorResponse {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &errorResponse{Code: string(code), Message: errors.UserMessage(err)}
}
