package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pelada/internal/adapters/backend"
	service "github.com/okian/pelada/internal/app"
	"github.com/okian/pelada/internal/domain/editor"
	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/persist"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Open returns the editing session of a match, opening it if needed.
	Open(ctx context.Context, id model.MatchID) (*editor.Session, error)
	// Session returns an already open session.
	Session(id model.MatchID) (*editor.Session, error)
	// Close ends a session, optionally saving first.
	Close(ctx context.Context, id model.MatchID, save bool) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchesHandler *MatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		matchesHandler: NewMatchesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	m := s.matchesHandler
	mux.HandleFunc("POST /matches/{id}/open", MetricsMiddleware(m.HandleOpen, "open"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(m.HandleGet, "state"))
	mux.HandleFunc("DELETE /matches/{id}", MetricsMiddleware(m.HandleClose, "close"))
	mux.HandleFunc("POST /matches/{id}/goals", MetricsMiddleware(m.HandleAddGoal, "goals"))
	mux.HandleFunc("DELETE /matches/{id}/goals/{goalId}", MetricsMiddleware(m.HandleRemoveGoal, "goals"))
	mux.HandleFunc("POST /matches/{id}/undo", MetricsMiddleware(m.HandleUndo, "undo"))
	mux.HandleFunc("POST /matches/{id}/reset", MetricsMiddleware(m.HandleReset, "reset"))
	mux.HandleFunc("PUT /matches/{id}/status", MetricsMiddleware(m.HandleSetStatus, "status"))
	mux.HandleFunc("DELETE /matches/{id}/status", MetricsMiddleware(m.HandleClearStatus, "status"))
	mux.HandleFunc("POST /matches/{id}/finalize", MetricsMiddleware(m.HandleFinalize, "finalize"))
	mux.HandleFunc("POST /matches/{id}/unlock", MetricsMiddleware(m.HandleUnlock, "unlock"))
	mux.HandleFunc("POST /matches/{id}/save", MetricsMiddleware(m.HandleSave, "save"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain errors to HTTP responses. Backend rejections
// carry the backend's body verbatim as the message.
func writeDomainError(w http.ResponseWriter, err error) {
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidGoal),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrUnknownTeam):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, backend.ErrNotFound),
		errors.Is(err, editor.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, lifecycle.ErrMatchLocked):
		writeError(w, http.StatusConflict, "match_locked", err)
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, editor.ErrNothingToUndo):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, lifecycle.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionRequired, "confirmation_required", err)
	case errors.As(err, &httpErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "backend_error", Message: httpErr.Body})
	case errors.Is(err, persist.ErrWriteFailed):
		writeError(w, http.StatusBadGateway, "backend_error", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
