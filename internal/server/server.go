// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness and build version
//	POST /v1/layout   graph document and options in, drawing out
//	POST /v1/render   drawing and render options in, artifact out
//
// Errors are JSON objects carrying the error code of pkg/errors, with the
// status taken from [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/portlayout/pkg/buildinfo"
	"github.com/matzehuels/portlayout/pkg/errors"
	"github.com/matzehuels/portlayout/pkg/graph"
	"github.com/matzehuels/portlayout/pkg/layered"
	"github.com/matzehuels/portlayout/pkg/observability"
	"github.com/matzehuels/portlayout/pkg/pipeline"
)

const (
	// DefaultMaxBody bounds request bodies.
	DefaultMaxBody = 8 << 20

	// DefaultTimeout bounds a single request, layout included.
	DefaultTimeout = 60 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	timeout time.Duration
}

// New creates a server backed by runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger, maxBody: DefaultMaxBody, timeout: DefaultTimeout}
}

// Handler returns the router with all routes and middleware registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/layout", s.layout)
		r.Post("/render", s.render)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// observe reports requests to the HTTP hooks and logs them.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Get().Version})
}

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Graph   graph.Graph      `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// LayoutResponse is the answer to POST /v1/layout.
type LayoutResponse struct {
	RunID    string        `json:"run_id"`
	CacheHit bool          `json:"cache_hit"`
	Drawing  graph.Drawing `json:"drawing"`
	Stats    LayoutStats   `json:"stats"`
}

// LayoutStats summarizes a layout run.
type LayoutStats struct {
	Vertices   int     `json:"vertices"`
	Edges      int     `json:"edges"`
	Ports      int     `json:"ports"`
	Ranks      int     `json:"ranks"`
	Crossings  int     `json:"crossings"`
	Dummies    int     `json:"dummies"`
	DurationMS float64 `json:"duration_ms"`
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	req := LayoutRequest{Options: pipeline.Options{Drawing: layered.DefaultDrawingInfo()}}
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	g, err := graph.ToPortGraph(req.Graph)
	if err != nil {
		writeError(w, err)
		return
	}

	req.Options.Logger = s.logger
	res, err := s.runner.Layout(r.Context(), g, req.Options)
	if err != nil {
		s.logger.Warn("layout failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LayoutResponse{
		RunID:    res.RunID,
		CacheHit: res.CacheHit,
		Drawing:  res.Layout,
		Stats: LayoutStats{
			Vertices:   res.Stats.Vertices,
			Edges:      res.Stats.Edges,
			Ports:      res.Stats.Ports,
			Ranks:      res.Stats.Ranks,
			Crossings:  res.Stats.Crossings,
			Dummies:    res.Stats.Dummies,
			DurationMS: float64(res.Stats.LayoutTime.Microseconds()) / 1000,
		},
	})
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Drawing graph.Drawing          `json:"drawing"`
	Options pipeline.RenderOptions `json:"options"`
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatYAML: "application/yaml",
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Options.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}
	data, hit, err := s.runner.Render(r.Context(), req.Drawing, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[req.Options.Format])
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps [ErrorBody].
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), ErrorResponse{Error: ErrorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}
