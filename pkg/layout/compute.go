package layout

import "github.com/valhq/flowscope/pkg/errors"

// Params bundles per-algorithm configuration for [Compute].
type Params struct {
	Grid         GridConfig
	Hierarchical HierarchicalConfig
	Force        ForceConfig
}

// DefaultParams returns the standard configuration for every algorithm.
func DefaultParams() Params {
	return Params{
		Grid:         DefaultGridConfig(),
		Hierarchical: DefaultHierarchicalConfig(),
		Force:        DefaultForceConfig(),
	}
}

// Compute dispatches to the named algorithm. Unknown names produce an
// invalid-algorithm error; edges are ignored by grid layout.
func Compute(algorithm string, nodes []Node, edges []Edge, p Params) (PositionMap, error) {
	switch algorithm {
	case AlgorithmGrid:
		return Grid(nodes, p.Grid), nil
	case AlgorithmHierarchical:
		return Hierarchical(nodes, edges, p.Hierarchical), nil
	case AlgorithmForce:
		return Force(nodes, edges, p.Force), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidAlgorithm, "unknown layout algorithm %q", algorithm)
}
