package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/domain/core/layout"
	"fsmviz/domain/core/render"
	"fsmviz/pkg/common"
)

// ExportHandler renders stored graphs to DOT and standalone SVG.
type ExportHandler struct {
	graphs *services.GraphService
	engine *layout.Engine
	logger *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(graphs *services.GraphService, engine *layout.Engine, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{graphs: graphs, engine: engine, logger: logger}
}

// DOT handles GET /graphs/{graphID}/export/dot
func (h *ExportHandler) DOT(w http.ResponseWriter, r *http.Request) {
	g, err := h.graphs.Get(chi.URLParam(r, "graphID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.GraphToDOT(g)))
}

// SVG handles GET /graphs/{graphID}/export/svg
func (h *ExportHandler) SVG(w http.ResponseWriter, r *http.Request) {
	g, err := h.graphs.Get(chi.URLParam(r, "graphID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	width, height := canvasSize(r)
	var positions map[string]layout.Point
	if r.URL.Query().Get("mode") == "circle" {
		positions = h.engine.Circle(g.States, width, height)
	} else {
		positions = h.engine.ForceDirected(g.States, g.Transitions, width, height)
	}

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.GraphToSVG(g, positions, width, height)))
}
