package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/pelada/internal/domain/editor"
	"github.com/okian/pelada/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// MatchesHandler serves the editing session endpoints.
type MatchesHandler struct {
	deps Dependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

func matchID(r *http.Request) model.MatchID { return model.MatchID(r.PathValue("id")) }

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// session resolves the open session and writes the error response when absent.
func (h *MatchesHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := h.deps.Session(matchID(r))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

func writeState(w http.ResponseWriter, status int, sess *editor.Session) {
	writeJSON(w, status, stateView(sess.State()))
}

// HandleOpen handles POST /matches/{id}/open.
func (h *MatchesHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Open(r.Context(), matchID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleGet handles GET /matches/{id}.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleClose handles DELETE /matches/{id}?save=true.
func (h *MatchesHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	save := false
	if raw := r.URL.Query().Get("save"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid save flag %q", raw))
			return
		}
		save = v
	}
	if err := h.deps.Close(r.Context(), matchID(r), save); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddGoal handles POST /matches/{id}/goals.
func (h *MatchesHandler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req GoalRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	e, err := req.toEvent()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := sess.AddGoal(r.Context(), e); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusCreated, sess)
}

// HandleRemoveGoal handles DELETE /matches/{id}/goals/{goalId}.
func (h *MatchesHandler) HandleRemoveGoal(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveGoal(r.Context(), r.PathValue("goalId")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleUndo handles POST /matches/{id}/undo.
func (h *MatchesHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Undo(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleSetStatus handles PUT /matches/{id}/status.
func (h *MatchesHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	st, err := model.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := sess.SetStatus(r.Context(), st); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleClearStatus handles DELETE /matches/{id}/status.
func (h *MatchesHandler) HandleClearStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.ClearStatusOverride(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// confirmed runs a confirmed action and writes the resulting state.
func (h *MatchesHandler) confirmed(w http.ResponseWriter, r *http.Request, action func(*editor.Session, ConfirmRequest) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := action(sess, req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}

// HandleReset handles POST /matches/{id}/reset.
func (h *MatchesHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.confirmed(w, r, func(s *editor.Session, req ConfirmRequest) error {
		return s.Reset(r.Context(), req.Confirm)
	})
}

// HandleFinalize handles POST /matches/{id}/finalize.
func (h *MatchesHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	h.confirmed(w, r, func(s *editor.Session, req ConfirmRequest) error {
		return s.Finalize(r.Context(), req.Confirm)
	})
}

// HandleUnlock handles POST /matches/{id}/unlock.
func (h *MatchesHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	h.confirmed(w, r, func(s *editor.Session, req ConfirmRequest) error {
		return s.Unlock(r.Context(), req.Confirm)
	})
}

// HandleSave handles POST /matches/{id}/save.
func (h *MatchesHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Save(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeState(w, http.StatusOK, sess)
}
