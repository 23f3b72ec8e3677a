// Package pkg provides the core libraries for FlowScope container topology
// visualization.
//
// # Overview
//
// FlowScope discovers containers from the Docker daemon, classifies them
// into service categories, and renders the result as drill-down flowcharts
// with automatically computed layouts. The pkg directory is organized into
// the following areas:
//
//  1. [discovery] - Docker daemon access (containers, stats, logs, actions)
//  2. [topology] - Domain model and flowchart construction
//  3. [layout] - Positioning algorithms (grid, hierarchical, force-directed)
//  4. [render] - DOT/SVG/PNG export via Graphviz
//  5. [cache], [store] - Response caching and saved-layout persistence
//
// # Architecture
//
// The typical data flow through FlowScope:
//
//	Docker Engine API
//	         ↓
//	    [discovery] package (list, inspect, stats)
//	         ↓
//	    [topology] package (categorize + build flowcharts)
//	         ↓
//	    [layout] package (position nodes)
//	         ↓
//	    JSON API / websocket feed / SVG export
//
// # Quick Start
//
// Discover containers and lay out a flowchart:
//
//	import (
//	    "context"
//	    "github.com/valhq/flowscope/pkg/discovery"
//	    "github.com/valhq/flowscope/pkg/layout"
//	    "github.com/valhq/flowscope/pkg/topology"
//	)
//
//	// 1. Connect and discover
//	api, _ := discovery.NewDockerAPI(context.Background(), "")
//	source := discovery.NewClient(api)
//	containers, _ := source.ListContainers(context.Background())
//
//	// 2. Build a flowchart
//	fc, _ := topology.BuildFlowchart(topology.SystemOverviewID, containers)
//
//	// 3. Position the nodes
//	nodes := make([]layout.Node, len(fc.Nodes))
//	for i, n := range fc.Nodes {
//	    nodes[i] = layout.Node{ID: n.ID}
//	}
//	positions, _ := layout.Compute(layout.AlgorithmHierarchical, nodes, nil, layout.DefaultParams())
//
// # Main Packages
//
// [discovery] - Docker Engine client. Lists and inspects containers, reads
// one-shot resource stats, demuxes logs, and performs start/stop/restart
// actions. The [discovery.DockerAPI] interface keeps the SDK substitutable
// in tests.
//
// [topology] - The domain model: containers, categories, networks, and the
// three-level flowchart hierarchy (system overview → category → container).
//
// [layout] - Deterministic positioning algorithms. Grid for uniform tiles,
// hierarchical for layered dependency views, force-directed for organic
// network layouts.
//
// [render] - Converts flowcharts to Graphviz DOT and rasterizes SVG/PNG,
// honoring saved positions when present.
//
// [cache] - Byte-level response cache with file, Redis, and null backends.
//
// [store] - Saved layout persistence with memory and MongoDB backends.
//
// [config] - TOML configuration with validation and defaults.
//
// [errors] - Coded errors shared across packages, mapped to HTTP statuses
// by the server.
//
// [observability] - Prometheus metrics for HTTP, Docker, layout, cache,
// and websocket activity.
//
// [httputil] - Retry with exponential backoff for transient daemon and
// backend failures.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//
// [discovery]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/discovery
// [topology]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/topology
// [layout]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/layout
// [render]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/render
// [cache]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/cache
// [store]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/store
// [config]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/config
// [errors]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/valhq/flowscope/pkg/httputil
package pkg
