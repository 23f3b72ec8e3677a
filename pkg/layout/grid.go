package layout

// gridMargin offsets the grid from the layout-space origin so the first
// cell does not hug the frame edge.
const gridMargin = 50.0

// Grid places nodes in input order into a row-major grid. The node at index
// i lands in column i % cfg.Columns and row i / cfg.Columns; edges are not
// consulted. The assignment tracks input order one-to-one, so permuting the
// input permutes the slots identically.
//
// A Columns value below 1 is treated as 1. An empty node list yields an
// empty map.
func Grid(nodes []Node, cfg GridConfig) PositionMap {
	cols := cfg.Columns
	if cols < 1 {
		cols = 1
	}

	pm := make(PositionMap, len(nodes))
	for i, n := range nodes {
		col := i % cols
		row := i / cols
		pm[n.ID] = Point{
			X: float64(col)*(cfg.NodeWidth+cfg.GapX) + gridMargin,
			Y: float64(row)*(cfg.NodeHeight+cfg.GapY) + gridMargin,
		}
	}
	return pm
}
