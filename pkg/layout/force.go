package layout

import "math"

// Force relaxes node positions with a simple physics simulation: inverse-
// square repulsion between every node pair, linear spring attraction along
// each edge, and a weak pull toward cfg.Center that prevents unbounded
// drift. Positions are seeded from each node's Position field; velocities
// start at zero.
//
// The simulation runs exactly cfg.Iterations steps - there is no convergence
// criterion, so pathological inputs can oscillate rather than settle. With
// the default damping of 0.9 velocities decay exponentially and connected
// graphs with distinct seed positions reach near-zero velocity well within
// 100 iterations.
//
// Distances are clamped to a minimum of 1 before the repulsion division, so
// coincident nodes cannot produce infinite or NaN forces. Nodes seeded at
// the exact same point exert no directional repulsion on each other (the
// displacement vector is zero); callers wanting a spread should seed from
// [Grid]. Edges with either endpoint outside the node set are skipped, and
// a self-edge contributes zero displacement.
//
// The springs have no rest length: attraction grows linearly with distance,
// so connected nodes settle where spring pull balances repulsion rather
// than at a fixed separation.
func Force(nodes []Node, edges []Edge, cfg ForceConfig) PositionMap {
	n := len(nodes)
	pm := make(PositionMap, n)
	if n == 0 {
		return pm
	}

	// Working state is indexed, not keyed, so iteration order is fixed by
	// the input slice and results are deterministic.
	ids := make([]string, n)
	px := make([]float64, n)
	py := make([]float64, n)
	vx := make([]float64, n)
	vy := make([]float64, n)
	index := make(map[string]int, n)
	for i, node := range nodes {
		ids[i] = node.ID
		px[i] = node.Position.X
		py[i] = node.Position.Y
		index[node.ID] = i
	}

	type spring struct{ src, dst int }
	springs := make([]spring, 0, len(edges))
	for _, e := range edges {
		si, okS := index[e.Source]
		ti, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		springs = append(springs, spring{src: si, dst: ti})
	}

	for iter := 0; iter < cfg.Iterations; iter++ {
		// Repulsion: every ordered pair, applied symmetrically.
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dx := px[j] - px[i]
				dy := py[j] - py[i]
				dist := math.Max(math.Hypot(dx, dy), 1)
				force := cfg.Repulsion / (dist * dist)
				vx[i] -= dx / dist * force
				vy[i] -= dy / dist * force
			}
		}

		// Attraction: linear spring along each edge. A self-edge has a zero
		// displacement vector and therefore no effect.
		for _, s := range springs {
			dx := px[s.dst] - px[s.src]
			dy := py[s.dst] - py[s.src]
			vx[s.src] += dx * cfg.Attraction
			vy[s.src] += dy * cfg.Attraction
			vx[s.dst] -= dx * cfg.Attraction
			vy[s.dst] -= dy * cfg.Attraction
		}

		// Center gravity and integration.
		for i := 0; i < n; i++ {
			vx[i] += (cfg.Center.X - px[i]) * cfg.CenterGravity
			vy[i] += (cfg.Center.Y - py[i]) * cfg.CenterGravity
			px[i] += vx[i]
			py[i] += vy[i]
			vx[i] *= cfg.Damping
			vy[i] *= cfg.Damping
		}
	}

	for i := 0; i < n; i++ {
		pm[ids[i]] = Point{X: px[i], Y: py[i]}
	}
	return pm
}
