package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/application/views"
	"fsmviz/domain/core/graph"
	"fsmviz/domain/core/layout"
	"fsmviz/pkg/common"
	"fsmviz/pkg/observability"
	"fsmviz/pkg/utils"
)

const (
	defaultCanvasWidth  = 900.0
	defaultCanvasHeight = 650.0
)

// GraphHandler serves the working set of FSM graphs: imports from the
// parser collaborator, reads, layout and view-model queries.
type GraphHandler struct {
	graphs   *services.GraphService
	sessions *services.SessionService
	engine   *layout.Engine
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(
	graphs *services.GraphService,
	sessions *services.SessionService,
	engine *layout.Engine,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		graphs:   graphs,
		sessions: sessions,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
	}
}

// ImportGraphRequest is one parsed FSM in the parser collaborator's shape.
type ImportGraphRequest struct {
	GraphID      string        `json:"graph_id"`
	Scope        string        `json:"scope" validate:"required"`
	EnumName     string        `json:"enum_name"`
	StateVar     string        `json:"state_var" validate:"required"`
	NextStateVar string        `json:"next_state_var"`
	ResetState   string        `json:"reset_state"`
	States       []string      `json:"states" validate:"required,min=1"`
	Transitions  []graph.Input `json:"transitions"`
}

// ImportRequest is the POST /graphs payload.
type ImportRequest struct {
	Graphs []ImportGraphRequest `json:"graphs" validate:"required,min=1,dive"`
}

// Import handles POST /graphs
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	imported := make([]*graph.Graph, 0, len(req.Graphs))
	for _, g := range req.Graphs {
		built, err := graph.New(g.GraphID, g.Scope, g.EnumName, g.StateVar,
			g.NextStateVar, g.ResetState, g.States, g.Transitions)
		if err != nil {
			common.RespondAppError(w, err)
			return
		}
		imported = append(imported, built)
	}

	if err := h.graphs.Import(r.Context(), imported); err != nil {
		common.RespondAppError(w, err)
		return
	}

	h.logger.Info("graphs imported", zap.Int("count", len(imported)))
	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"graphs_count": len(imported),
		"graphs":       imported,
		"imported_at":  utils.NowRFC3339(),
	})
}

// List handles GET /graphs
func (h *GraphHandler) List(w http.ResponseWriter, r *http.Request) {
	graphs := h.graphs.List()
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"graphs": graphs,
		"count":  len(graphs),
	})
}

// Get handles GET /graphs/{graphID}
func (h *GraphHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.graphs.Get(chi.URLParam(r, "graphID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /graphs/{graphID}
func (h *GraphHandler) Delete(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if err := h.graphs.Delete(r.Context(), graphID); err != nil {
		common.RespondAppError(w, err)
		return
	}
	h.sessions.Reset(graphID)
	common.RespondJSON(w, http.StatusOK, map[string]string{"deleted": graphID})
}

// RetrySaves handles POST /graphs/retry-saves
func (h *GraphHandler) RetrySaves(w http.ResponseWriter, r *http.Request) {
	remaining := h.graphs.RetrySaves(r.Context())
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"unsaved": remaining,
	})
}

// Layout handles GET /graphs/{graphID}/layout
func (h *GraphHandler) Layout(w http.ResponseWriter, r *http.Request) {
	g, err := h.graphs.Get(chi.URLParam(r, "graphID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	width, height := canvasSize(r)
	mode := r.URL.Query().Get("mode")
	positions := h.computeLayout(g, mode, width, height)

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"graph_id":  g.ID,
		"positions": positions,
	})
}

// View handles GET /graphs/{graphID}/view, the repaint payload for the
// rendering collaborator.
func (h *GraphHandler) View(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	g, err := h.graphs.Get(graphID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	sess, err := h.sessions.Session(graphID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	width, height := canvasSize(r)
	positions := h.computeLayout(g, r.URL.Query().Get("mode"), width, height)

	common.RespondJSON(w, http.StatusOK, views.Build(g, positions, sess))
}

func (h *GraphHandler) computeLayout(g *graph.Graph, mode string, width, height float64) map[string]layout.Point {
	start := time.Now()
	var positions map[string]layout.Point
	if mode == "circle" {
		positions = h.engine.Circle(g.States, width, height)
	} else {
		mode = "force"
		positions = h.engine.ForceDirected(g.States, g.Transitions, width, height)
	}
	h.metrics.LayoutDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	return positions
}

func canvasSize(r *http.Request) (float64, float64) {
	width := queryFloat(r, "width", defaultCanvasWidth)
	height := queryFloat(r, "height", defaultCanvasHeight)
	return width, height
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
