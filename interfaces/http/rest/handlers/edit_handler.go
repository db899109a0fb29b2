package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/domain/core/graph"
	"fsmviz/pkg/common"
	"fsmviz/pkg/utils"
)

// EditHandler exposes the structural mutations on a graph. Each endpoint
// produces a new snapshot through the service; the stored graph never
// changes in place.
type EditHandler struct {
	graphs *services.GraphService
	logger *zap.Logger
}

// NewEditHandler creates a new edit handler
func NewEditHandler(graphs *services.GraphService, logger *zap.Logger) *EditHandler {
	return &EditHandler{graphs: graphs, logger: logger}
}

// AddStateRequest is the POST states payload.
type AddStateRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddTransitionRequest is the POST transitions payload.
type AddTransitionRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
	Cond string `json:"cond"`
}

// SetConditionRequest is the PUT condition payload.
type SetConditionRequest struct {
	Cond string `json:"cond"`
}

// SetResetStateRequest is the PUT reset-state payload.
type SetResetStateRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddState handles POST /graphs/{graphID}/states
func (h *EditHandler) AddState(w http.ResponseWriter, r *http.Request) {
	var req AddStateRequest
	if err := decode(r, &req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "add_state",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.AddState(req.Name)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, g)
}

// RemoveState handles DELETE /graphs/{graphID}/states/{stateName}
func (h *EditHandler) RemoveState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "stateName")

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "remove_state",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.RemoveState(name)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

// AddTransition handles POST /graphs/{graphID}/transitions
func (h *EditHandler) AddTransition(w http.ResponseWriter, r *http.Request) {
	var req AddTransitionRequest
	if err := decode(r, &req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "add_transition",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.AddTransition(req.From, req.To, req.Cond)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, g)
}

// RemoveTransition handles DELETE /graphs/{graphID}/transitions/{transitionID}
func (h *EditHandler) RemoveTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transitionID")

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "remove_transition",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.RemoveTransition(id)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

// SetCondition handles PUT /graphs/{graphID}/transitions/{transitionID}/condition
func (h *EditHandler) SetCondition(w http.ResponseWriter, r *http.Request) {
	var req SetConditionRequest
	if err := decode(r, &req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	id := chi.URLParam(r, "transitionID")

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "set_condition",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.SetCondition(id, req.Cond)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

// SetResetState handles PUT /graphs/{graphID}/reset-state
func (h *EditHandler) SetResetState(w http.ResponseWriter, r *http.Request) {
	var req SetResetStateRequest
	if err := decode(r, &req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	g, err := h.graphs.Apply(r.Context(), chi.URLParam(r, "graphID"), "set_reset_state",
		func(g *graph.Graph) (*graph.Graph, error) {
			return g.SetResetState(req.Name)
		})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return utils.ValidateStruct(dst)
}
