package layout

import (
	"math"
	"reflect"
	"testing"
)

func TestForce_Empty(t *testing.T) {
	pm := Force(nil, nil, DefaultForceConfig())
	if len(pm) != 0 {
		t.Errorf("Force(nil) returned %d entries, want 0", len(pm))
	}
}

func TestForce_Completeness(t *testing.T) {
	nodes := []Node{
		{ID: "a", Position: Point{X: 100, Y: 100}},
		{ID: "b", Position: Point{X: 500, Y: 100}},
		{ID: "c", Position: Point{X: 300, Y: 400}},
	}
	edges := []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}
	pm := Force(nodes, edges, DefaultForceConfig())
	checkCompleteness(t, nodes, pm)
}

func TestForce_Symmetry(t *testing.T) {
	// Two nodes seeded symmetrically around the center with one edge:
	// every force is symmetric, so the pair must stay mirrored about the
	// center for any iteration count.
	cfg := DefaultForceConfig()
	for _, iterations := range []int{1, 10, 100} {
		cfg.Iterations = iterations
		nodes := []Node{
			{ID: "a", Position: Point{X: 300, Y: 300}},
			{ID: "b", Position: Point{X: 500, Y: 300}},
		}
		pm := Force(nodes, []Edge{{Source: "a", Target: "b"}}, cfg)

		mid := (pm["a"].X + pm["b"].X) / 2
		if math.Abs(mid-cfg.Center.X) > 1e-9 {
			t.Errorf("iterations=%d: midpoint X = %v, want %v", iterations, mid, cfg.Center.X)
		}
		if math.Abs(pm["a"].Y-300) > 1e-9 || math.Abs(pm["b"].Y-300) > 1e-9 {
			t.Errorf("iterations=%d: Y drifted to %v and %v, want 300", iterations, pm["a"].Y, pm["b"].Y)
		}
	}
}

func TestForce_Settles(t *testing.T) {
	// After the full default run the system should be near equilibrium:
	// one more iteration barely moves anything.
	nodes := []Node{
		{ID: "a", Position: Point{X: 200, Y: 200}},
		{ID: "b", Position: Point{X: 600, Y: 200}},
		{ID: "c", Position: Point{X: 400, Y: 500}},
	}
	edges := []Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "a"},
	}

	cfg := DefaultForceConfig()
	settled := Force(nodes, edges, cfg)
	cfg.Iterations++
	next := Force(nodes, edges, cfg)

	for id := range settled {
		dx := next[id].X - settled[id].X
		dy := next[id].Y - settled[id].Y
		if step := math.Hypot(dx, dy); step > 0.5 {
			t.Errorf("node %q still moving %.4f per iteration after settling", id, step)
		}
	}
}

func TestForce_Deterministic(t *testing.T) {
	nodes := []Node{
		{ID: "a", Position: Point{X: 10, Y: 20}},
		{ID: "b", Position: Point{X: 30, Y: 40}},
	}
	edges := []Edge{{Source: "a", Target: "b"}}
	first := Force(nodes, edges, DefaultForceConfig())
	second := Force(nodes, edges, DefaultForceConfig())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Force() not deterministic: %+v vs %+v", first, second)
	}
}

func TestForce_SelfEdge(t *testing.T) {
	// A self-edge must not crash and must not displace the node. A single
	// node at the center experiences no force at all.
	cfg := DefaultForceConfig()
	nodes := []Node{{ID: "solo", Position: cfg.Center}}
	pm := Force(nodes, []Edge{{Source: "solo", Target: "solo"}}, cfg)

	if pm["solo"] != cfg.Center {
		t.Errorf("self-edge moved node to %+v, want %+v", pm["solo"], cfg.Center)
	}
}

func TestForce_DanglingEdgesSkipped(t *testing.T) {
	nodes := []Node{{ID: "a", Position: Point{X: 100, Y: 100}}}
	withDangling := Force(nodes, []Edge{{Source: "a", Target: "ghost"}}, DefaultForceConfig())
	withoutEdges := Force(nodes, nil, DefaultForceConfig())

	if !reflect.DeepEqual(withDangling, withoutEdges) {
		t.Errorf("dangling edge changed result: %+v vs %+v", withDangling, withoutEdges)
	}
	if _, ok := withDangling["ghost"]; ok {
		t.Error("output contains ghost endpoint not in the input set")
	}
}

func TestForce_CoincidentSeedsFinite(t *testing.T) {
	// All nodes at the same point: the clamped distance guards the division,
	// so forces stay finite even from the degenerate start.
	nodes := []Node{
		{ID: "a", Position: Point{X: 400, Y: 300}},
		{ID: "b", Position: Point{X: 400, Y: 300}},
		{ID: "c", Position: Point{X: 400, Y: 300}},
	}
	pm := Force(nodes, []Edge{{Source: "a", Target: "b"}}, DefaultForceConfig())
	checkCompleteness(t, nodes, pm)

	for id, p := range pm {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Errorf("node %q has non-finite position %+v", id, p)
		}
	}
}

func TestSeed(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b", Position: Point{X: 7, Y: 7}}}
	pm := PositionMap{"a": {X: 1, Y: 2}}
	seeded := Seed(nodes, pm)

	if seeded[0].Position != (Point{X: 1, Y: 2}) {
		t.Errorf("seeded a = %+v, want {1 2}", seeded[0].Position)
	}
	if seeded[1].Position != (Point{X: 7, Y: 7}) {
		t.Errorf("seeded b = %+v, want unchanged {7 7}", seeded[1].Position)
	}
	if nodes[0].Position != (Point{}) {
		t.Error("Seed mutated its input")
	}
}
