package layout

// Horizontal centerline and top margin for hierarchical placement. Levels
// are centered around x=400 and stacked downward from y=50.
const (
	hierCenterX = 400.0
	hierMarginY = 50.0
)

// Hierarchical assigns each node a level by breadth-first traversal and
// stacks the levels vertically, centering each level horizontally.
//
// Roots are the nodes with no incoming edge, seeded at level 0 in input
// order. Every other node gets the level of the first traversal path that
// reaches it: first-visit wins, and because BFS explores level by level that
// is the shortest distance from any root. Ties between roots that reach the
// same descendant are broken by queue order, which follows input order -
// this is a documented contract, not incidental behavior. Visited nodes are
// never re-leveled.
//
// Nodes the traversal never reaches - disconnected nodes, or every node when
// the graph is a pure cycle with no roots - are backfilled at level 0 in
// input order, after any BFS-visited level-0 nodes. Edges with either
// endpoint missing from the node set are ignored.
//
// Within a level, horizontal order is visit order (BFS dequeue order, then
// backfill order), not input order and not sorted.
func Hierarchical(nodes []Node, edges []Edge, cfg HierarchicalConfig) PositionMap {
	inSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inSet[n.ID] = true
	}

	adjacency := make(map[string][]string, len(nodes))
	hasIncoming := make(map[string]bool)
	for _, e := range edges {
		if !inSet[e.Source] || !inSet[e.Target] {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		hasIncoming[e.Target] = true
	}

	// BFS from all roots at once. A node's level is fixed on first visit.
	levels := make(map[string]int, len(nodes))
	var order []string // visit order, drives within-level placement
	var queue []string
	for _, n := range nodes {
		if !hasIncoming[n.ID] {
			levels[n.ID] = 0
			order = append(order, n.ID)
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[curr] {
			if _, seen := levels[next]; seen {
				continue
			}
			levels[next] = levels[curr] + 1
			order = append(order, next)
			queue = append(queue, next)
		}
	}

	// Backfill anything the traversal missed at level 0. This covers both
	// isolated nodes and members of root-less cycles.
	for _, n := range nodes {
		if _, seen := levels[n.ID]; !seen {
			levels[n.ID] = 0
			order = append(order, n.ID)
		}
	}

	grouped := make(map[int][]string)
	for _, id := range order {
		lvl := levels[id]
		grouped[lvl] = append(grouped[lvl], id)
	}

	pm := make(PositionMap, len(nodes))
	for lvl, ids := range grouped {
		offset := -float64(len(ids)-1) * cfg.NodeSpacing / 2
		for i, id := range ids {
			pm[id] = Point{
				X: offset + float64(i)*cfg.NodeSpacing + hierCenterX,
				Y: float64(lvl)*cfg.LevelHeight + hierMarginY,
			}
		}
	}
	return pm
}
