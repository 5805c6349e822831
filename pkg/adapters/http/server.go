// Package http exposes a library of stories as a JSON API. Readers start
// sessions, render them and choose options; state diffs are pushed to
// subscribers over Server-Sent Events and counters are exported for
// Prometheus on /metrics.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/storytree"
	"github.com/aretw0/storytree/internal/logging"
	"github.com/aretw0/storytree/internal/presentation/graph"
	"github.com/aretw0/storytree/pkg/domain"
	"github.com/aretw0/storytree/pkg/library"
	"github.com/aretw0/storytree/pkg/runner"
	"github.com/aretw0/storytree/pkg/story"
)

// Server handles the API routes.
type Server struct {
	Library *library.Library
	Streams *StreamManager
	Metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics shares a Metrics set, typically one whose Hooks were given
// to the host that evaluated the library.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.Metrics = m
	}
}

// WithStreams shares a StreamManager, so reloads can be announced from
// outside the handler.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer creates a server for a library.
func NewServer(lib *library.Library, opts ...Option) *Server {
	s := &Server{
		Library: lib,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	if s.Metrics == nil {
		s.Metrics = NewMetrics()
	}
	return s
}

// NewHandler creates the HTTP handler for a library.
func NewHandler(lib *library.Library, opts ...Option) http.Handler {
	return NewServer(lib, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Use(s.Metrics.Instrument)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.Metrics.Handler())
	r.Get("/events", s.SubscribeEvents)

	r.Get("/stories", s.ListStories)
	r.Route("/stories/{id}", func(r chi.Router) {
		r.Get("/", s.GetStory)
		r.Get("/graph", s.GetGraph)
		r.Post("/sessions", s.StartSession)
	})

	r.Get("/sessions", s.ListSessions)
	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Post("/choose", s.Choose)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "storytree-http",
		"version": strings.TrimSpace(storytree.Version),
		"stories": len(s.Library.Stories()),
	})
}

// ListStories handles GET /stories.
func (s *Server) ListStories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Library.Stories())
}

type storyResponse struct {
	library.Summary
	Start string       `json:"start"`
	Nodes []string     `json:"node_ids"`
	Edges []story.Edge `json:"edges"`
}

func (s *Server) describe(id string) (*storyResponse, *story.Story, error) {
	st, err := s.Library.Story(id)
	if err != nil {
		return nil, nil, err
	}
	var summary library.Summary
	for _, sum := range s.Library.Stories() {
		if sum.ID == id {
			summary = sum
		}
	}
	start, _ := st.InitialNodeID()
	resp := &storyResponse{Summary: summary, Start: start, Edges: st.Edges()}
	for _, n := range st.Nodes {
		resp.Nodes = append(resp.Nodes, n.ID)
	}
	if resp.Edges == nil {
		resp.Edges = []story.Edge{}
	}
	return resp, st, nil
}

// GetStory handles GET /stories/{id}.
func (s *Server) GetStory(w http.ResponseWriter, r *http.Request) {
	resp, _, err := s.describe(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetGraph handles GET /stories/{id}/graph. With ?format=mermaid the
// flowchart is returned as text, highlighting ?session= when given.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	resp, st, err := s.describe(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") != "mermaid" {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	var overlay *graph.Overlay
	if sid := r.URL.Query().Get("session"); sid != "" {
		view, err := s.Library.Render(r.Context(), sid)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = &graph.Overlay{VisitedNodes: view.State.History, CurrentNode: view.State.CurrentNodeID}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.Mermaid(st, overlay))
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

// StartSession handles POST /stories/{id}/sessions. The body is optional.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("StartSession: Invalid request body", "err", err)
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}
	view, err := s.Library.Start(r.Context(), chi.URLParam(r, "id"), body.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Library.Sessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{sid}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Library.Render(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /sessions/{sid}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Library.Delete(r.Context(), chi.URLParam(r, "sid")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chooseRequest struct {
	Option *int    `json:"option"`
	Text   *string `json:"text"`
}

// Choose handles POST /sessions/{sid}/choose with {"option": n} or
// {"text": "..."}.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")

	var body chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("Choose: Invalid request body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var input any
	switch {
	case body.Option != nil:
		input = *body.Option
	case body.Text != nil:
		clean, err := runner.SanitizeInput(*body.Text)
		if err != nil {
			s.logger.Warn("Choose: Input rejected", "err", err, "size", len(*body.Text))
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		input = clean
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: `expected "option" or "text"`})
		return
	}

	view, diff, err := s.Library.Choose(r.Context(), sid, input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if diff != nil && !diff.IsEmpty() {
		if data, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sid, string(data))
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

type errorResponse struct {
	Error  string `json:"error"`
	Report string `json:"report,omitempty"`
}

// statusOf maps library errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrStoryNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionDone):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	resp := errorResponse{Error: err.Error()}
	var evalErr *story.EvaluationError
	if errors.As(err, &evalErr) {
		resp.Report = evalErr.Report()
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
