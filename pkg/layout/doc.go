// Package layout computes 2D positions for topology graphs.
//
// The package provides three placement policies, all pure functions from
// (nodes, edges, config) to a [PositionMap]:
//
//   - [Grid]: row-major grid in input order, ignores edges
//   - [Hierarchical]: BFS leveling from root nodes, levels become rows
//   - [Force]: force-directed relaxation (repulsion, spring attraction,
//     center gravity) over a fixed number of iterations
//
// # Contract
//
// Every function returns a map whose keys are exactly the input node IDs -
// no extras, no omissions - for any input including the empty graph. Edges
// referencing IDs outside the node set are tolerated and ignored. No function
// mutates its arguments or keeps state across calls, so results are
// deterministic for deterministic inputs.
//
// # Usage
//
//	nodes := []layout.Node{{ID: "api"}, {ID: "db"}}
//	edges := []layout.Edge{{Source: "api", Target: "db"}}
//
//	positions := layout.Hierarchical(nodes, edges, layout.DefaultHierarchicalConfig())
//	// positions["api"].Y < positions["db"].Y
//
// Force layout reads each node's Position as its seed; a common pattern is
// seeding from a prior [Grid] result:
//
//	seeded := layout.Seed(nodes, layout.Grid(nodes, layout.DefaultGridConfig()))
//	positions = layout.Force(seeded, edges, layout.DefaultForceConfig())
//
// # Cost
//
// Grid and Hierarchical are O(N+E). Force is O(iterations × N²) for the
// all-pairs repulsion plus O(iterations × E) for attraction; callers with
// large graphs should cap node or iteration counts to bound latency.
package layout
