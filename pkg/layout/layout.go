package layout

// =============================================================================
// Core Types
// =============================================================================

// Point is a 2D position in layout space. Layout space is abstract: the
// rendering surface decides how it maps onto screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a graph vertex reduced to what layout needs: an identifier and an
// optional seed position. IDs must be unique within one call; duplicate IDs
// collapse into a single map key.
type Node struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
}

// Edge is a directed relationship between two node IDs. Multiple edges
// between the same pair are permitted and each contributes independently to
// attraction and leveling. Endpoints need not exist in the node set; such
// edges are ignored.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// PositionMap maps every input node ID to its computed position. It is the
// output of all layout functions and carries no other state.
type PositionMap map[string]Point

// Seed returns a copy of nodes with positions replaced from pm where present.
// Nodes absent from pm keep their current position. This is the bridge for
// feeding one layout's output into [Force] as seed positions.
func Seed(nodes []Node, pm PositionMap) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		if p, ok := pm[out[i].ID]; ok {
			out[i].Position = p
		}
	}
	return out
}

// =============================================================================
// Configuration
// =============================================================================

// GridConfig controls [Grid] placement.
type GridConfig struct {
	Columns    int     // nodes per row
	NodeWidth  float64 // horizontal cell size
	NodeHeight float64 // vertical cell size
	GapX       float64 // horizontal gap between cells
	GapY       float64 // vertical gap between cells
}

// DefaultGridConfig returns the standard grid parameters:
// 4 columns, 200×100 cells, 50px gaps.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Columns:    4,
		NodeWidth:  200,
		NodeHeight: 100,
		GapX:       50,
		GapY:       50,
	}
}

// HierarchicalConfig controls [Hierarchical] placement.
type HierarchicalConfig struct {
	LevelHeight float64 // vertical distance between levels
	NodeSpacing float64 // horizontal distance between siblings in a level
}

// DefaultHierarchicalConfig returns the standard hierarchical parameters:
// 150px between levels, 200px between siblings.
func DefaultHierarchicalConfig() HierarchicalConfig {
	return HierarchicalConfig{
		LevelHeight: 150,
		NodeSpacing: 200,
	}
}

// ForceConfig controls the [Force] simulation. All coefficients are explicit
// so callers can tune the physics rather than relying on buried constants.
type ForceConfig struct {
	Iterations    int     // simulation steps; fixed count, no convergence test
	Repulsion     float64 // inverse-square push between every node pair
	Attraction    float64 // linear spring pull along each edge
	Damping       float64 // per-iteration velocity decay factor
	CenterGravity float64 // pull toward Center, prevents unbounded drift
	Center        Point   // gravity anchor
}

// DefaultForceConfig returns the standard simulation parameters:
// 100 iterations, repulsion 5000, attraction 0.05, damping 0.9,
// gravity 0.01 toward (400, 300).
func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		Iterations:    100,
		Repulsion:     5000,
		Attraction:    0.05,
		Damping:       0.9,
		CenterGravity: 0.01,
		Center:        Point{X: 400, Y: 300},
	}
}

// =============================================================================
// Algorithm Names
// =============================================================================

// Algorithm identifiers used by the layout API endpoint and CLI.
const (
	AlgorithmGrid         = "grid"
	AlgorithmHierarchical = "hierarchical"
	AlgorithmForce        = "force"
)

// ValidAlgorithms is the set of recognized algorithm names.
var ValidAlgorithms = map[string]bool{
	AlgorithmGrid:         true,
	AlgorithmHierarchical: true,
	AlgorithmForce:        true,
}
