// Package web serves the browser keyboard visualizer.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/session"
	"github.com/verte-zerg/keyviz/internal/view"
)

const maxBodyBytes = 64 << 10

//go:embed static
var staticFiles embed.FS

// Recorder receives every action delivered to the session.
type Recorder interface {
	Record(a model.Action) error
}

// Options configure the server.
type Options struct {
	Recorder Recorder
	Logger   *slog.Logger
}

// Server owns the session for the browser front end. net/http serves
// requests concurrently, so every session access goes through mu.
type Server struct {
	mu       sync.Mutex
	session  *session.Session
	clock    *clock.Observed
	recorder Recorder
	logger   *slog.Logger
	router   *chi.Mux
}

// New creates a server over s. c must be the clock s was created with; it
// follows the page's event timestamps.
func New(s *session.Session, c *clock.Observed, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		session:  s,
		clock:    c,
		recorder: opts.Recorder,
		logger:   logger,
	}
	srv.router = srv.routes()
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("embedded static files: %v", err))
	}
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFileFS(w, req, static, "index.html")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))
		r.Get("/state", s.handleState)
		r.Post("/events", s.handleEvents)
		r.Post("/pause", s.handlePause)
		r.Post("/clear", s.handleClear)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	s.logger.Info("serving keyboard visualizer", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

type keyEvent struct {
	Type      string  `json:"type"`
	Key       string  `json:"key"`
	Code      string  `json:"code"`
	Repeat    bool    `json:"repeat"`
	TimeStamp float64 `json:"timeStamp"`
}

type eventsRequest struct {
	Events []keyEvent `json:"events"`
}

type pauseRequest struct {
	Paused bool    `json:"paused"`
	Now    float64 `json:"now"`
}

type clearRequest struct {
	Now float64 `json:"now"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	frags := view.BuildFragments(s.session, session.AllViews)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, frags)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var req eventsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	actions := make([]model.Action, 0, len(req.Events))
	for i, ev := range req.Events {
		a, err := ev.action()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("event %d: %w", i, err))
			return
		}
		actions = append(actions, a)
	}

	s.mu.Lock()
	var dirty session.Dirty
	for _, a := range actions {
		// Events from before the latest clear belong to the previous session.
		if a.TS < s.session.Origin() {
			s.logger.Debug("dropped event older than session origin", "kind", a.Kind, "code", a.Code, "ts", a.TS, "origin", s.session.Origin())
			continue
		}
		s.clock.Observe(a.TS)
		dirty |= s.apply(a)
	}
	frags := view.BuildFragments(s.session, dirty)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, frags)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := model.ActionResume
	if req.Paused {
		kind = model.ActionPause
	}
	s.mu.Lock()
	s.clock.Observe(req.Now)
	dirty := s.apply(model.Action{Kind: kind, TS: s.clock.Now()})
	frags := view.BuildFragments(s.session, dirty)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, frags)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	// A clear starts a new origin, so the page's time base may restart.
	s.clock.Rebase(req.Now)
	dirty := s.apply(model.Action{Kind: model.ActionClear, TS: s.clock.Now()})
	frags := view.BuildFragments(s.session, dirty)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, frags)
}

// apply must be called with mu held.
func (s *Server) apply(a model.Action) session.Dirty {
	if s.recorder != nil {
		if err := s.recorder.Record(a); err != nil {
			s.logger.Warn("failed to record action", "kind", a.Kind, "err", err)
		}
	}
	dirty := s.session.Apply(a)
	s.logger.Debug("folded action", "kind", a.Kind, "code", a.Code, "repeat", a.Repeat, "dirty", dirty.String())
	return dirty
}

func (ev keyEvent) action() (model.Action, error) {
	a := model.Action{Key: ev.Key, Code: ev.Code, TS: ev.TimeStamp}
	switch ev.Type {
	case string(model.KeyDown):
		a.Kind = model.ActionKeyDown
		a.Repeat = ev.Repeat
	case string(model.KeyUp):
		a.Kind = model.ActionKeyUp
	default:
		return model.Action{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return a, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
