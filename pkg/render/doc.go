// Package render exports flowcharts as Graphviz artifacts.
//
// # Overview
//
// The package turns a [topology.Flowchart] into DOT, then optionally
// rasterizes it with the embedded Graphviz engine:
//
//	dot := render.ToDOT(fc, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot, false)
//	png, err := render.RenderPNG(ctx, dot, false)
//
// Node fill colors encode container status and edge styles encode the
// connection type, so an exported diagram reads the same as the live
// dashboard. Passing saved positions in [Options] pins nodes to user
// coordinates; render such graphs with pinned set so the neato engine
// honors the pins instead of letting Graphviz choose the layout.
package render
