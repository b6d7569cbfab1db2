// Package http exposes the explorer over a JSON/text HTTP API built on chi.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/conversation"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the explorer API.
type Server struct {
	Explorer *canopy.Explorer
	Streams  *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose hooks are also registered on the sessions.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates a new HTTP handler for the explorer.
func NewHandler(exp *canopy.Explorer, opts ...Option) http.Handler {
	s := &Server{
		Explorer: exp,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/tree", func(r chi.Router) {
		r.Get("/describe", s.Describe)
		r.Get("/history", s.History)
		r.Get("/children", s.Children)
		r.Get("/parents", s.Parents)
		r.Get("/digest", s.Digest)
	})

	r.Get("/tools", s.ListTools)
	r.Post("/tools/invoke", s.InvokeTools)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/turns", s.SendTurn)
			r.Delete("/history", s.ClearHistory)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := map[string]any{"status": "ok"}
	if s.Explorer.Tree() == nil {
		status = http.StatusServiceUnavailable
		resp["status"] = "no tree"
	} else {
		resp["topics"] = s.Explorer.Tree().Len()
	}
	s.writeJSON(w, status, resp)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "canopy-http",
		"version": canopy.Version,
		"tools":   tools.Names(),
	})
}

// -- Tree --

func (s *Server) invokeOne(w http.ResponseWriter, r *http.Request, op string, args map[string]any) {
	raw, _ := json.Marshal(args)
	res := s.Explorer.Invoke(r.Context(), domain.ToolInvocation{Name: op, Arguments: string(raw)})[0]
	status := http.StatusOK
	if res.IsError {
		status = http.StatusBadRequest
	}
	writeText(w, status, res.Content)
}

func queryArgs(r *http.Request, withLimit bool) (map[string]any, error) {
	q := r.URL.Query()
	args := map[string]any{}
	if q.Has("path") {
		args["path"] = q.Get("path")
	}
	if withLimit && q.Get("limit") != "" {
		n, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return nil, fmt.Errorf("invalid limit: %w", err)
		}
		args["limit"] = n
	}
	return args, nil
}

// Describe handles GET /tree/describe?path=.
func (s *Server) Describe(w http.ResponseWriter, r *http.Request) {
	args, _ := queryArgs(r, false)
	s.invokeOne(w, r, tools.OpDescribe, args)
}

// History handles GET /tree/history?path=&limit=.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	args, err := queryArgs(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.invokeOne(w, r, tools.OpHistory, args)
}

// Children handles GET /tree/children?path=&limit=.
func (s *Server) Children(w http.ResponseWriter, r *http.Request) {
	args, err := queryArgs(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.invokeOne(w, r, tools.OpChildren, args)
}

// Parents handles GET /tree/parents?path=.
func (s *Server) Parents(w http.ResponseWriter, r *http.Request) {
	args, _ := queryArgs(r, false)
	s.invokeOne(w, r, tools.OpParents, args)
}

// Digest handles GET /tree/digest?path=.
func (s *Server) Digest(w http.ResponseWriter, r *http.Request) {
	d, err := s.Explorer.Digest(r.URL.Query().Get("path"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeText(w, http.StatusOK, d)
}

// -- Tools --

// ListTools handles GET /tools.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, tools.Definitions())
}

// InvokeTools handles POST /tools/invoke. The body is one tool call record or an
// array of them, in any of the accepted shapes.
func (s *Server) InvokeTools(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("InvokeTools: Invalid request body", "err", err)
		return
	}

	var records []map[string]any
	switch v := body.(type) {
	case map[string]any:
		records = []map[string]any{v}
	case []any:
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				http.Error(w, "Each tool call must be an object", http.StatusBadRequest)
				return
			}
			records = append(records, m)
		}
	default:
		http.Error(w, "Expected a tool call object or array", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, s.Explorer.InvokeLoose(r.Context(), records))
}

// -- Sessions --

// TurnRequest is the body of POST /sessions/{id}/turns.
type TurnRequest struct {
	Text  string `json:"text"`
	Focus string `json:"focus,omitempty"`
}

// SendTurn handles POST /sessions/{id}/turns.
func (s *Server) SendTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SendTurn: Invalid request body", "err", err)
		return
	}

	res, err := s.Explorer.Ask(r.Context(), id, body.Text, body.Focus)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.logger.Error("Turn failed", "session_id", id, "err", err)
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Explorer.Sessions().List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Explorer.Sessions().Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Explorer.Sessions().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearHistory handles DELETE /sessions/{id}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Explorer.Sessions().ClearHistory(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrEmptyInput),
		errors.Is(err, conversation.ErrInputTooLarge),
		errors.Is(err, conversation.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
