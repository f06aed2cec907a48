package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rowstamp/pkg/buildinfo"
	"github.com/matzehuels/rowstamp/pkg/cache"
	"github.com/matzehuels/rowstamp/pkg/errors"
	"github.com/matzehuels/rowstamp/pkg/level"
	"github.com/matzehuels/rowstamp/pkg/observability"
	"github.com/matzehuels/rowstamp/pkg/pipeline"
	"github.com/matzehuels/rowstamp/pkg/stamper"
)

const (
	// maxLevelBody bounds inline levels posted to /plan.
	maxLevelBody = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command: an HTTP API over a level
// directory.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		levels  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plans for a directory of levels over HTTP",
		Long: `Serve plans and diagrams for every level in a directory.

Endpoints:
  GET  /healthz                  build info
  GET  /levels                   list levels
  GET  /levels/{name}            the level document
  GET  /levels/{name}/plan       plan (query: speed, spacing, delay, strict)
  GET  /levels/{name}/graph      diagram (query: format=svg|dot, detailed)
  GET  /levels/{name}/live       websocket stream of a real-time run
  POST /plan                     plan an inline level (JSON options)

Plans are cached; point cache.redis_addr in the config file at a shared
Redis to share them between servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, levels, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&levels, "levels", "levels", "level directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, dir string, noCache bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "level directory %s", dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(dir)
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "levels:"+cache.Hash([]byte(abs))[:12]+":")
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = c.config.Cache.TTL.Duration
	defer runner.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(dir, runner, c.config.Apply, c.Logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving levels", "addr", addr, "dir", dir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.Logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// =============================================================================
// Server
// =============================================================================

type server struct {
	dir    string
	runner *pipeline.Runner
	apply  func(*pipeline.Options)
	logger *log.Logger
}

// newServer creates the API over dir. apply fills in run parameters the
// request leaves unset.
func newServer(dir string, runner *pipeline.Runner, apply func(*pipeline.Options), logger *log.Logger) *server {
	if apply == nil {
		apply = func(*pipeline.Options) {}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &server{dir: dir, runner: runner, apply: apply, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/levels", s.handleLevels)
	r.Route("/levels/{name}", func(r chi.Router) {
		r.Get("/", s.handleLevel)
		r.Get("/plan", s.handlePlan)
		r.Get("/graph", s.handleGraph)
		r.Get("/live", s.handleLive)
	})
	r.Post("/plan", s.handleInlinePlan)
	return r
}

// instrument reports every request to the HTTP hooks and attaches a
// request-scoped logger to the context.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		logger := s.logger.With("req", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", dur)
	})
}

// levelSummary is one entry of GET /levels.
type levelSummary struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Rows     int    `json:"rows"`
	Triggers int    `json:"triggers"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *server) handleLevels(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "list levels"))
		return
	}

	out := []levelSummary{}
	for _, e := range entries {
		if e.IsDir() || !isLevelFile(e.Name()) {
			continue
		}
		l, _, err := level.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			loggerFromContext(r.Context()).Warn("skipping unreadable level", "file", e.Name(), "err", err)
			continue
		}
		out = append(out, levelSummary{
			Name:     strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			File:     e.Name(),
			Rows:     len(l.Rows),
			Triggers: len(l.ScheduledRows()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleLevel(w http.ResponseWriter, r *http.Request) {
	path, err := s.levelPath(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, _, err := level.ReadFile(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *server) handlePlan(w http.ResponseWriter, r *http.Request) {
	opts, err := s.queryOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, hit, err := s.runner.PlanWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, plan)
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.queryOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts.Format = q.Get("format")
	if opts.Format == "" {
		opts.Format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(opts.Format); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "graph"))
		return
	}
	opts.Detailed = q.Get("detailed") == "true"

	data, hit, err := s.runner.GraphWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	if opts.Format == pipeline.FormatSVG {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleInlinePlan plans a level posted in the request body. Only inline
// levels are accepted; a level_path would let clients read server files.
func (s *server) handleInlinePlan(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLevelBody))
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if opts.LevelPath != "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "level_path is not accepted; send the level inline"))
		return
	}
	if opts.Level == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "level is required"))
		return
	}
	opts.Logger = loggerFromContext(r.Context())
	s.apply(&opts)

	plan, hit, err := s.runner.PlanWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, plan)
}

// queryOptions builds plan options for the level named in the URL from the
// query string.
func (s *server) queryOptions(r *http.Request) (pipeline.Options, error) {
	path, err := s.levelPath(chi.URLParam(r, "name"))
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		LevelPath: path,
		Logger:    loggerFromContext(r.Context()),
	}

	q := r.URL.Query()
	if v := q.Get("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "speed")
		}
		opts.Speed = f
	}
	spacing, delay := q.Get("spacing"), q.Get("delay")
	if spacing != "" || delay != "" {
		base := pipeline.Options{}
		s.apply(&base)
		timing := stamper.DefaultConfig()
		if base.Timing != nil {
			timing = *base.Timing
		}
		if spacing != "" {
			f, err := strconv.ParseFloat(spacing, 64)
			if err != nil {
				return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "spacing")
			}
			timing.Spacing = f
		}
		if delay != "" {
			f, err := strconv.ParseFloat(delay, 64)
			if err != nil {
				return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "delay")
			}
			timing.InitialDelay = f
		}
		opts.Timing = &timing
	}
	opts.Strict = q.Get("strict") == "true"
	s.apply(&opts)
	return opts, nil
}

// levelPath resolves a level name to a file in the level directory.
func (s *server) levelPath(name string) (string, error) {
	if err := errors.ValidateLevelName(name); err != nil {
		return "", err
	}
	for _, ext := range []string{".toml", ".json", ".hcl"} {
		p := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeLevelNotFound, "level %q not found", name)
}

func isLevelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".json", ".hcl":
		return true
	}
	return false
}

// =============================================================================
// Responses
// =============================================================================

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorBody(err)
	if status == http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		body.Message = "internal error"
	}
	writeJSON(w, status, body)
}
