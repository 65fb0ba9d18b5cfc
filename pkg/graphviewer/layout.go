package graphviewer

import "math"

// Tick advances the layout by one explicit Euler step and returns the new
// positions; nodes is not modified. Every force is computed from the
// positions before the step, so the result does not depend on node order.
//
// Repulsion is pairwise, O(n²) per tick. That is fine for the tens to low
// hundreds of nodes a catalog view shows and is the scaling limit of this
// layout.
func Tick(nodes []Node, edges []Edge, s LayoutSettings) []Node {
	return tick(nodes, edges, indexNodes(nodes), s.withDefaults())
}

func tick(nodes []Node, edges []Edge, idx map[NodeID]int, s LayoutSettings) []Node {
	n := len(nodes)
	fx := make([]float64, n)
	fy := make([]float64, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Vector from j to i.
			dx := nodes[i].X - nodes[j].X
			dy := nodes[i].Y - nodes[j].Y
			d := math.Hypot(dx, dy)
			if d == 0 {
				// Coincident nodes separate along x, lower index to the left.
				dx, dy, d = -1, 0, 1
			}
			eff := math.Max(d, s.MinDistance)
			f := s.Repulsion / (eff * eff)
			ux, uy := dx/d, dy/d
			fx[i] += f * ux
			fy[i] += f * uy
			fx[j] -= f * ux
			fy[j] -= f * uy
		}
	}

	for _, e := range edges {
		si, okS := idx[e.Source]
		ti, okT := idx[e.Target]
		if !okS || !okT || si == ti {
			continue
		}
		dx := nodes[ti].X - nodes[si].X
		dy := nodes[ti].Y - nodes[si].Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		f := s.Attraction * e.Weight
		ux, uy := dx/d, dy/d
		fx[si] += f * ux
		fy[si] += f * uy
		fx[ti] -= f * ux
		fy[ti] -= f * uy
	}

	out := make([]Node, n)
	copy(out, nodes)
	for i := range out {
		x := out[i].X + fx[i]*s.DT
		y := out[i].Y + fy[i]*s.DT
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		if r := math.Hypot(x, y); r > s.MaxDistance {
			x *= s.MaxDistance / r
			y *= s.MaxDistance / r
		}
		out[i].X, out[i].Y = x, y
	}
	return out
}

// displacement sums how far each node moved between two position sets.
func displacement(before, after []Node) float64 {
	total := 0.0
	for i := range before {
		total += math.Hypot(after[i].X-before[i].X, after[i].Y-before[i].Y)
	}
	return total
}

// Simulation owns the positions of one scene for its lifetime. It is not
// safe for concurrent use; Viewer serializes access.
type Simulation struct {
	nodes    []Node
	edges    []Edge
	index    map[NodeID]int
	settings LayoutSettings
	moved    float64
	atRest   bool
	steps    uint64
}

// NewSimulation starts a simulation from the scene's initial positions.
func NewSimulation(scene Scene, s LayoutSettings) *Simulation {
	nodes := make([]Node, len(scene.Nodes))
	copy(nodes, scene.Nodes)
	return &Simulation{
		nodes:    nodes,
		edges:    scene.Edges,
		index:    indexNodes(nodes),
		settings: s.withDefaults(),
	}
}

// Step runs one tick and returns the total displacement. Once at rest (see
// LayoutSettings.Epsilon) it returns 0 without recomputing.
func (sim *Simulation) Step() float64 {
	if sim.atRest {
		return 0
	}
	next := tick(sim.nodes, sim.edges, sim.index, sim.settings)
	sim.moved = displacement(sim.nodes, next)
	sim.nodes = next
	sim.steps++
	if sim.settings.Epsilon > 0 && sim.moved < sim.settings.Epsilon {
		sim.atRest = true
	}
	return sim.moved
}

// Nodes returns the committed positions. The slice is replaced, never
// written, by later steps, so callers may keep it.
func (sim *Simulation) Nodes() []Node { return sim.nodes }

// Edges returns the scene edges.
func (sim *Simulation) Edges() []Edge { return sim.edges }

// Settings returns the physics constants in effect.
func (sim *Simulation) Settings() LayoutSettings { return sim.settings }

// SetSettings swaps the physics constants and wakes a resting simulation.
func (sim *Simulation) SetSettings(s LayoutSettings) {
	sim.settings = s.withDefaults()
	sim.atRest = false
}

// AtRest reports whether the at-rest shortcut is active.
func (sim *Simulation) AtRest() bool { return sim.atRest }

// Steps returns how many ticks have been computed.
func (sim *Simulation) Steps() uint64 { return sim.steps }
