// Package layout computes 2D node positions for an FSM graph. The primary
// mode is a deterministic force-directed simulation; a plain circular
// placement is available when positional stability under small topology
// edits matters more than minimizing edge crossings.
package layout

import (
	"math"

	"fsmviz/domain/core/graph"
)

const (
	// DefaultIterations bounds the simulation; termination is guaranteed.
	DefaultIterations = 100

	// DefaultMargin keeps nodes away from the canvas border.
	DefaultMargin = 40.0

	// minDistance avoids division by zero between coincident nodes.
	minDistance = 0.01
)

// Point is a node position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Engine computes node positions. The zero value is not usable; call New.
type Engine struct {
	Iterations int
	Margin     float64
}

// New returns an engine with the default iteration budget and margin.
func New() *Engine {
	return &Engine{
		Iterations: DefaultIterations,
		Margin:     DefaultMargin,
	}
}

// Circle places the states evenly on a circle in list order, starting at the
// top. Identical inputs always produce identical output.
func (e *Engine) Circle(states []string, width, height float64) map[string]Point {
	positions := make(map[string]Point, len(states))
	if len(states) == 0 {
		return positions
	}

	cx := width / 2
	cy := height / 2
	radius := math.Min(width, height) * 0.35

	n := float64(len(states))
	for i, s := range states {
		angle := 2*math.Pi*float64(i)/n - math.Pi/2
		positions[s] = Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return positions
}

// ForceDirected runs a bounded Fruchterman-Reingold style simulation seeded
// from the circular placement, so the result is fully determined by the
// states, transitions and canvas dimensions. Every intermediate position is
// clamped inside the canvas margins.
func (e *Engine) ForceDirected(states []string, transitions []graph.Transition, width, height float64) map[string]Point {
	positions := e.seed(states, width, height)
	if len(positions) < 2 {
		return positions
	}

	k := math.Sqrt(width * height / float64(len(states)))
	maxStep := math.Min(width, height) / 10

	iterations := e.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	for iter := 0; iter < iterations; iter++ {
		temperature := 1 - float64(iter)/float64(iterations)
		forces := make(map[string]Point, len(states))

		// Repulsion between every unordered pair of nodes.
		for i := 0; i < len(states); i++ {
			for j := i + 1; j < len(states); j++ {
				a, b := states[i], states[j]
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Max(math.Hypot(dx, dy), minDistance)

				repulsion := k * k / dist
				fx := dx / dist * repulsion
				fy := dy / dist * repulsion

				fa := forces[a]
				fa.X += fx
				fa.Y += fy
				forces[a] = fa

				fb := forces[b]
				fb.X -= fx
				fb.Y -= fy
				forces[b] = fb
			}
		}

		// Attraction along every transition.
		for _, t := range transitions {
			if t.From == t.To {
				continue
			}
			pa, okA := positions[t.From]
			pb, okB := positions[t.To]
			if !okA || !okB {
				continue
			}

			dx := pa.X - pb.X
			dy := pa.Y - pb.Y
			dist := math.Max(math.Hypot(dx, dy), minDistance)

			attraction := dist * dist / k
			fx := dx / dist * attraction
			fy := dy / dist * attraction

			fa := forces[t.From]
			fa.X -= fx
			fa.Y -= fy
			forces[t.From] = fa

			fb := forces[t.To]
			fb.X += fx
			fb.Y += fy
			forces[t.To] = fb
		}

		// Displace each node, clamped by the cooling step limit and the
		// canvas margins.
		for _, s := range states {
			f := forces[s]
			mag := math.Hypot(f.X, f.Y)
			if mag < minDistance {
				continue
			}

			step := math.Min(mag, maxStep*temperature)
			p := positions[s]
			p.X += f.X / mag * step
			p.Y += f.Y / mag * step
			positions[s] = e.clamp(p, width, height)
		}
	}

	return positions
}

func (e *Engine) seed(states []string, width, height float64) map[string]Point {
	positions := make(map[string]Point, len(states))
	if len(states) == 0 {
		return positions
	}

	cx := width / 2
	cy := height / 2

	// Radius grows with the state count so small graphs stay compact and
	// large ones spread toward the margins.
	maxRadius := math.Min(width, height)/2 - e.Margin
	radius := math.Min(maxRadius, math.Max(60, float64(len(states))*14))
	if radius < 0 {
		radius = 0
	}

	n := float64(len(states))
	for i, s := range states {
		angle := 2*math.Pi*float64(i)/n - math.Pi/2
		positions[s] = e.clamp(Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}, width, height)
	}
	return positions
}

func (e *Engine) clamp(p Point, width, height float64) Point {
	minX, maxX := e.Margin, width-e.Margin
	minY, maxY := e.Margin, height-e.Margin

	// Degenerate canvases collapse to the center line.
	if minX > maxX {
		minX, maxX = width/2, width/2
	}
	if minY > maxY {
		minY, maxY = height/2, height/2
	}

	return Point{
		X: math.Min(math.Max(p.X, minX), maxX),
		Y: math.Min(math.Max(p.Y, minY), maxY),
	}
}
