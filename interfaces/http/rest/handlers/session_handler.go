package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/domain/core/session"
	"fsmviz/pkg/common"
	pkgerrors "fsmviz/pkg/errors"
)

// SessionHandler drives the interactive edit session for a graph. Gestures
// arrive as discriminated JSON payloads and map one to one onto session
// transitions.
type SessionHandler struct {
	sessions *services.SessionService
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// GestureRequest is the POST gestures payload. Gesture selects the
// transition; the remaining fields are read per gesture.
type GestureRequest struct {
	Gesture string `json:"gesture"`
	State   string `json:"state,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Cond    string `json:"cond,omitempty"`
}

// SessionView is the wire shape of a session.
type SessionView struct {
	GraphID            string `json:"graph_id"`
	Mode               string `json:"mode"`
	ReadOnly           bool   `json:"read_only"`
	SelectedState      string `json:"selected_state,omitempty"`
	SelectedTransition string `json:"selected_transition,omitempty"`
	DraftName          string `json:"draft_name,omitempty"`
	ConnectionSource   string `json:"connection_source,omitempty"`
}

func sessionView(graphID string, sess session.Session) SessionView {
	return SessionView{
		GraphID:            graphID,
		Mode:               string(sess.Mode()),
		ReadOnly:           sess.ReadOnly(),
		SelectedState:      sess.SelectedState(),
		SelectedTransition: sess.SelectedTransition(),
		DraftName:          sess.DraftName(),
		ConnectionSource:   sess.ConnectionSource(),
	}
}

// Get handles GET /graphs/{graphID}/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	sess, err := h.sessions.Session(graphID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sessionView(graphID, sess))
}

// Gesture handles POST /graphs/{graphID}/session/gestures
func (h *SessionHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	var req GestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	gesture, err := gestureFunc(req)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	graphID := chi.URLParam(r, "graphID")
	sess, gestureErr := h.sessions.Apply(r.Context(), graphID, gesture)
	if gestureErr != nil {
		code := pkgerrors.CodeOf(gestureErr)
		if code == pkgerrors.CodeGraphNotFound {
			common.RespondAppError(w, gestureErr)
			return
		}
		// The session survives a rejected gesture, so the response carries
		// both the error and the resulting session state.
		common.RespondJSON(w, pkgerrors.StatusOf(gestureErr), map[string]interface{}{
			"session": sessionView(graphID, sess),
			"error":   map[string]string{"code": code, "message": gestureErr.Error()},
		})
		return
	}

	common.RespondJSON(w, http.StatusOK, sessionView(graphID, sess))
}

// Reset handles DELETE /graphs/{graphID}/session
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	h.sessions.Reset(graphID)
	common.RespondJSON(w, http.StatusOK, map[string]string{"reset": graphID})
}

func gestureFunc(req GestureRequest) (func(session.Session) (session.Session, error), error) {
	switch req.Gesture {
	case "click_state":
		return func(s session.Session) (session.Session, error) {
			return s.ClickState(req.State)
		}, nil
	case "click_transition":
		return func(s session.Session) (session.Session, error) {
			return s.ClickTransition(req.ID)
		}, nil
	case "click_canvas":
		return func(s session.Session) (session.Session, error) {
			return s.ClickCanvas(), nil
		}, nil
	case "begin_add_state":
		return func(s session.Session) (session.Session, error) {
			return s.BeginAddState()
		}, nil
	case "update_draft":
		return func(s session.Session) (session.Session, error) {
			return s.UpdateDraft(req.Name)
		}, nil
	case "confirm_add_state":
		return func(s session.Session) (session.Session, error) {
			return s.ConfirmAddState(req.Name)
		}, nil
	case "begin_connect":
		return func(s session.Session) (session.Session, error) {
			return s.BeginConnect()
		}, nil
	case "edit_condition":
		return func(s session.Session) (session.Session, error) {
			return s.EditCondition()
		}, nil
	case "provide_condition":
		return func(s session.Session) (session.Session, error) {
			return s.ProvideCondition(req.Cond)
		}, nil
	case "cancel":
		return func(s session.Session) (session.Session, error) {
			return s.Cancel(), nil
		}, nil
	case "delete":
		return func(s session.Session) (session.Session, error) {
			return s.Delete()
		}, nil
	case "set_reset":
		return func(s session.Session) (session.Session, error) {
			return s.SetReset()
		}, nil
	default:
		return nil, pkgerrors.NewValidationError("unknown gesture: " + req.Gesture).
			WithCode(pkgerrors.CodeInvalidGesture)
	}
}
