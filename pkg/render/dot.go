package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/valhq/flowscope/pkg/layout"
	"github.com/valhq/flowscope/pkg/topology"
)

// Options configures flowchart rendering.
type Options struct {
	// Detailed includes image and resource figures in node labels.
	// When false, only the service name is shown.
	Detailed bool

	// Positions pins nodes to precomputed coordinates. When set, the DOT
	// output targets the neato engine with fixed positions instead of
	// letting Graphviz lay the graph out.
	Positions layout.PositionMap
}

// statusFill maps a container status to its node fill color.
var statusFill = map[topology.Status]string{
	topology.StatusHealthy:    "#c8e6c9",
	topology.StatusRunning:    "#bbdefb",
	topology.StatusUnhealthy:  "#ffcdd2",
	topology.StatusRestarting: "#ffe0b2",
	topology.StatusPaused:     "#e1bee7",
}

// edgeStyle maps a connection type to its DOT edge attributes.
var edgeStyle = map[topology.ConnectionType]string{
	topology.ConnectionPrimary:   `color="#1565c0", penwidth=2`,
	topology.ConnectionSecondary: `color="#6a1b9a"`,
	topology.ConnectionData:      `color="#2e7d32", style=dashed`,
	topology.ConnectionControl:   `color="#e65100", style=dashed`,
	topology.ConnectionNetwork:   `color="#616161", style=dotted`,
	topology.ConnectionVolume:    `color="#4e342e", style=dotted`,
	topology.ConnectionDepends:   `color="#9e9e9e"`,
}

// ToDOT converts a flowchart to Graphviz DOT. The result feeds
// [RenderSVG] and [RenderPNG], or any external Graphviz install.
func ToDOT(fc *topology.Flowchart, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flowscope {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", fc.Name)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	if opts.Positions == nil {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("\n")

	for _, n := range fc.Nodes {
		attrs := nodeAttrs(n, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range fc.Connections {
		attrs := connAttrs(c)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", c.Source, c.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", c.Source, c.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n topology.FlowchartNode, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}

	if fill, ok := statusFill[n.Status]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	} else {
		attrs = append(attrs, `fillcolor="#eeeeee"`)
	}
	if n.NodeType == topology.NodeGroup {
		attrs = append(attrs, "shape=box3d", "fontsize=16")
	}
	if pos, ok := opts.Positions[n.ID]; ok {
		// graphviz y grows upward; dashboard coordinates grow downward
		attrs = append(attrs, fmt.Sprintf(`pos="%.0f,%.0f!"`, pos.X, -pos.Y))
	}
	return attrs
}

func nodeLabel(n topology.FlowchartNode, detailed bool) string {
	if !detailed {
		return n.Name
	}

	parts := []string{n.Name}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	if n.Port != 0 {
		parts = append(parts, fmt.Sprintf("port %d", n.Port))
	}
	if n.Stats != nil {
		parts = append(parts, fmt.Sprintf("cpu %.1f%%  mem %.0fMB", n.Stats.CPUPercent, n.Stats.MemoryUsageMB))
	}
	return strings.Join(parts, "\n")
}

func connAttrs(c topology.Connection) []string {
	var attrs []string
	if c.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", c.Label))
	}
	if style, ok := edgeStyle[c.ConnectionType]; ok {
		attrs = append(attrs, style)
	}
	return attrs
}
