package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// Format is an export format accepted by the render endpoint.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name, reporting whether it is known.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatDOT, FormatSVG, FormatPNG:
		return Format(s), true
	}
	return "", false
}

// RenderSVG renders a DOT graph to SVG using Graphviz. Graphs carrying
// pinned positions render with the neato engine, since the default dot
// engine ignores pos attributes.
func RenderSVG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG, pinned)
}

// RenderPNG renders a DOT graph to PNG using Graphviz. Pinned positions
// select the neato engine, as with [RenderSVG].
func RenderPNG(ctx context.Context, dot string, pinned bool) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG, pinned)
}

func render(ctx context.Context, dot string, format graphviz.Format, pinned bool) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg element so the graph renders at its
// natural pixel size with a zero-origin viewBox, which embeds cleanly in
// the dashboard.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
