// Package views builds the render-facing view-models out of a graph
// snapshot, its layout positions and the edit-session selection.
package views

import (
	"fsmviz/domain/core/graph"
	"fsmviz/domain/core/layout"
	"fsmviz/domain/core/session"
)

// NodeView is what the rendering collaborator needs to paint one state.
type NodeView struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Label      string  `json:"label"`
	IsReset    bool    `json:"is_reset"`
	IsSelected bool    `json:"is_selected"`
}

// EdgeView is what the rendering collaborator needs to paint one transition.
// Label is empty for unconditional transitions.
type EdgeView struct {
	ID         string `json:"id"`
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id"`
	Label      string `json:"label"`
	IsSelected bool   `json:"is_selected"`
}

// GraphView bundles the complete repaint payload.
type GraphView struct {
	GraphID string     `json:"graph_id"`
	Nodes   []NodeView `json:"nodes"`
	Edges   []EdgeView `json:"edges"`
}

// Build assembles view-models for one graph. Node order follows the state
// list and edge order follows the transition list, so repaints are stable.
func Build(g *graph.Graph, positions map[string]layout.Point, sess session.Session) GraphView {
	view := GraphView{
		GraphID: g.ID,
		Nodes:   make([]NodeView, 0, len(g.States)),
		Edges:   make([]EdgeView, 0, len(g.Transitions)),
	}

	selectedState := sess.SelectedState()
	selectedTransition := sess.SelectedTransition()

	for _, s := range g.States {
		p := positions[s]
		view.Nodes = append(view.Nodes, NodeView{
			ID:         s,
			X:          p.X,
			Y:          p.Y,
			Label:      s,
			IsReset:    g.ResetState != "" && s == g.ResetState,
			IsSelected: s == selectedState,
		})
	}

	for _, t := range g.Transitions {
		label := t.Cond
		if graph.IsUnconditional(label) {
			label = ""
		}
		view.Edges = append(view.Edges, EdgeView{
			ID:         t.ID,
			SourceID:   t.From,
			TargetID:   t.To,
			Label:      label,
			IsSelected: t.ID == selectedTransition,
		})
	}

	return view
}
