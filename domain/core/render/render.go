// Package render exports a laid-out FSM graph as DOT or standalone SVG for
// the read-only visualization surfaces.
package render

import (
	"fmt"
	"math"
	"strings"

	"fsmviz/domain/core/graph"
	"fsmviz/domain/core/layout"
)

const nodeRadius = 28.0

// GraphToDOT renders the graph in GraphViz digraph form. The reset state is
// drawn as a double circle and only guarded transitions carry edge labels.
func GraphToDOT(g *graph.Graph) string {
	name := strings.ReplaceAll(strings.TrimSpace(g.Scope+"_"+g.StateVar), " ", "_")

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", name)

	for _, s := range g.States {
		if g.ResetState != "" && s == g.ResetState {
			fmt.Fprintf(&b, "  %s [shape=doublecircle];\n", s)
		} else {
			fmt.Fprintf(&b, "  %s [shape=circle];\n", s)
		}
	}

	for _, t := range g.Transitions {
		if graph.IsUnconditional(t.Cond) {
			fmt.Fprintf(&b, "  %s -> %s;\n", t.From, t.To)
		} else {
			fmt.Fprintf(&b, "  %s -> %s [label=%q];\n", t.From, t.To, t.Cond)
		}
	}

	b.WriteString("}")
	return b.String()
}

// GraphToSVG renders the graph as a standalone SVG document using the given
// node positions. States are circles with centered labels, transitions are
// arrowed lines with the guard text offset along the edge normal, and the
// reset state gets a double ring.
func GraphToSVG(g *graph.Graph, positions map[string]layout.Point, width, height float64) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		`<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">`+"\n",
		width, height, width, height)

	b.WriteString("<defs>\n")
	b.WriteString(`<marker id="arrow" markerWidth="10" markerHeight="7" refX="10" refY="3.5" orient="auto">` +
		`<polygon points="0 0, 10 3.5, 0 7" fill="#333" /></marker>` + "\n")
	b.WriteString("</defs>\n")

	fmt.Fprintf(&b, `<rect x="0" y="0" width="%.0f" height="%.0f" fill="#ffffff" stroke="none" />`+"\n",
		width, height)

	for _, t := range g.Transitions {
		from, okFrom := positions[t.From]
		to, okTo := positions[t.To]
		if !okFrom || !okTo {
			continue
		}

		dx := to.X - from.X
		dy := to.Y - from.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dist = 1
		}
		ux, uy := dx/dist, dy/dist

		startX := from.X + ux*nodeRadius
		startY := from.Y + uy*nodeRadius
		endX := to.X - ux*nodeRadius
		endY := to.Y - uy*nodeRadius

		fmt.Fprintf(&b,
			`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2" marker-end="url(#arrow)" />`+"\n",
			startX, startY, endX, endY)

		if !graph.IsUnconditional(t.Cond) {
			midX := (startX + endX) / 2
			midY := (startY + endY) / 2

			// Offset the label off the line along the normal.
			const off = 14.0
			labelX := midX - uy*off
			labelY := midY + ux*off

			fmt.Fprintf(&b,
				`<text x="%.1f" y="%.1f" font-size="12" text-anchor="middle" fill="#000000" font-family="Helvetica, Arial, sans-serif">%s</text>`+"\n",
				labelX, labelY, escape(t.Cond))
		}
	}

	for _, s := range g.States {
		p, ok := positions[s]
		if !ok {
			continue
		}

		if g.ResetState != "" && s == g.ResetState {
			fmt.Fprintf(&b,
				`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#e8ffe8" stroke="#006600" stroke-width="2.5" />`+"\n",
				p.X, p.Y, nodeRadius+4)
			fmt.Fprintf(&b,
				`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#006600" stroke-width="1.8" />`+"\n",
				p.X, p.Y, nodeRadius-2)
		} else {
			fmt.Fprintf(&b,
				`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#eef2ff" stroke="#333366" stroke-width="2" />`+"\n",
				p.X, p.Y, nodeRadius)
		}

		fmt.Fprintf(&b,
			`<text x="%.1f" y="%.1f" font-size="12" text-anchor="middle" fill="#000000" font-family="Helvetica, Arial, sans-serif">%s</text>`+"\n",
			p.X, p.Y+4, escape(s))
	}

	b.WriteString("</svg>")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
