package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/valhq/flowscope/pkg/buildinfo"
	"github.com/valhq/flowscope/pkg/cache"
	"github.com/valhq/flowscope/pkg/discovery"
	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/layout"
	"github.com/valhq/flowscope/pkg/render"
	"github.com/valhq/flowscope/pkg/store"
	"github.com/valhq/flowscope/pkg/topology"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Discovery
// =============================================================================

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.source.ListContainers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.observeContainers(containers)
	s.writeJSON(w, http.StatusOK, containers)
}

func (s *Server) handleContainer(w http.ResponseWriter, r *http.Request) {
	c, err := s.source.GetContainer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContainerDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.source.ContainerDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleContainerLogs(w http.ResponseWriter, r *http.Request) {
	tail := 0
	if raw := r.URL.Query().Get("tail"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "tail must be a non-negative integer"))
			return
		}
		tail = parsed
	}

	logs, err := s.source.ContainerLogs(r.Context(), chi.URLParam(r, "id"), tail)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, logs)
}

// handleAllStats returns the container list with live stats attached to
// every running container.
func (s *Server) handleAllStats(w http.ResponseWriter, r *http.Request) {
	containers, err := s.source.ListContainersWithStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, containers)
}

func (s *Server) handleContainerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.source.ContainerStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var (
			result topology.ActionResult
			err    error
		)
		switch action {
		case discovery.ActionStart:
			result, err = s.source.StartContainer(r.Context(), id)
		case discovery.ActionStop:
			result, err = s.source.StopContainer(r.Context(), id)
		case discovery.ActionRestart:
			result, err = s.source.RestartContainer(r.Context(), id)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("container action", "action", action, "container", result.ContainerName, "success", result.Success)
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := s.source.ListNetworks(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, networks)
}

func (s *Server) handleImageSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := s.source.ImageSizes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sizes)
}

// =============================================================================
// Topology and Flowcharts
// =============================================================================

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "topology", s.keys.TopologyKey(), func(ctx context.Context) (any, error) {
		containers, err := s.source.ListContainers(ctx)
		if err != nil {
			return nil, err
		}
		s.observeContainers(containers)
		return topology.BuildTopology(containers), nil
	})
}

func (s *Server) handleFlowcharts(w http.ResponseWriter, r *http.Request) {
	containers, err := s.source.ListContainers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, topology.BuildSummaries(containers))
}

func (s *Server) handleFlowchart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.serveCached(w, r, "flowchart", s.keys.FlowchartKey(id), func(ctx context.Context) (any, error) {
		return s.buildFlowchart(ctx, id)
	})
}

func (s *Server) buildFlowchart(ctx context.Context, id string) (*topology.Flowchart, error) {
	containers, err := s.source.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	fc, ok := topology.BuildFlowchart(id, containers)
	if !ok {
		return nil, errors.New(errors.ErrCodeFlowchartNotFound, "flowchart %q not found", id)
	}
	return fc, nil
}

// =============================================================================
// Export
// =============================================================================

var exportContentTypes = map[render.Format]string{
	render.FormatDOT: "text/vnd.graphviz",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := render.ParseFormat(r.URL.Query().Get("format"))
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInvalidFormat, "format must be dot, svg or png"))
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"

	fc, err := s.buildFlowchart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := render.Options{Detailed: detailed}
	if saved, ok, err := s.layouts.Get(r.Context(), fc.ID); err == nil && ok {
		opts.Positions = saved.Positions
	}
	dot := render.ToDOT(fc, opts)

	if format == render.FormatDOT {
		s.writeBytes(w, exportContentTypes[format], []byte(dot))
		return
	}

	key := s.keys.ExportKey(cache.Hash([]byte(dot)), string(format))
	if data, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
		s.metrics.CacheHitsTotal.WithLabelValues("export").Inc()
		s.writeBytes(w, exportContentTypes[format], data)
		return
	}
	s.metrics.CacheMissesTotal.WithLabelValues("export").Inc()

	pinned := len(opts.Positions) > 0
	var data []byte
	switch format {
	case render.FormatSVG:
		data, err = render.RenderSVG(r.Context(), dot, pinned)
	case render.FormatPNG:
		data, err = render.RenderPNG(r.Context(), dot, pinned)
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render %s export", format))
		return
	}
	_ = s.cache.Set(r.Context(), key, data, s.cfg.Cache.TTL.Duration())
	s.writeBytes(w, exportContentTypes[format], data)
}

func (s *Server) writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write export", "err", err)
	}
}

// =============================================================================
// Saved Positions
// =============================================================================

type positionsRequest struct {
	Algorithm string             `json:"algorithm"`
	Positions layout.PositionMap `json:"positions"`
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	saved, ok, err := s.layouts.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeLayoutNotFound, "no saved layout for %q", id))
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handlePutPositions(w http.ResponseWriter, r *http.Request) {
	var req positionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode positions"))
		return
	}
	if len(req.Positions) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "positions must not be empty"))
		return
	}

	saved := store.SavedLayout{
		FlowchartID: chi.URLParam(r, "id"),
		Algorithm:   req.Algorithm,
		Positions:   req.Positions,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.layouts.Put(r.Context(), saved); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePositions(w http.ResponseWriter, r *http.Request) {
	if err := s.layouts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout
// =============================================================================

type layoutNode struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type layoutRequest struct {
	Algorithm    string                     `json:"algorithm"`
	Nodes        []layoutNode               `json:"nodes"`
	Edges        []layout.Edge              `json:"edges"`
	Grid         *layout.GridConfig         `json:"grid,omitempty"`
	Hierarchical *layout.HierarchicalConfig `json:"hierarchical,omitempty"`
	Force        *layout.ForceConfig        `json:"force,omitempty"`
}

type layoutResponse struct {
	Algorithm string             `json:"algorithm"`
	Positions layout.PositionMap `json:"positions"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode layout request"))
		return
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = s.cfg.Layout.DefaultAlgorithm
	}
	if !layout.ValidAlgorithms[algorithm] {
		s.writeError(w, errors.New(errors.ErrCodeInvalidAlgorithm, "unknown layout algorithm %q", algorithm))
		return
	}

	nodes := make([]layout.Node, len(req.Nodes))
	for i, n := range req.Nodes {
		nodes[i] = layout.Node{ID: n.ID, Position: layout.Point{X: n.X, Y: n.Y}}
	}

	params := s.cfg.Layout.Params()
	if req.Grid != nil {
		params.Grid = *req.Grid
	}
	if req.Hierarchical != nil {
		params.Hierarchical = *req.Hierarchical
	}
	if req.Force != nil {
		params.Force = *req.Force
	}

	graph, err := json.Marshal(struct {
		Nodes []layout.Node `json:"nodes"`
		Edges []layout.Edge `json:"edges"`
	}{nodes, req.Edges})
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "hash layout graph"))
		return
	}
	key := s.keys.LayoutKey(cache.Hash(graph), algorithm, params)

	if data, ok, err := s.cache.Get(r.Context(), key); err == nil && ok {
		s.metrics.CacheHitsTotal.WithLabelValues("layout").Inc()
		s.writeRawJSON(w, http.StatusOK, data)
		return
	}
	s.metrics.CacheMissesTotal.WithLabelValues("layout").Inc()

	start := time.Now()
	positions, err := layout.Compute(algorithm, nodes, req.Edges, params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveLayout(algorithm, time.Since(start))

	resp := layoutResponse{Algorithm: algorithm, Positions: positions}
	data, err := json.Marshal(resp)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode layout response"))
		return
	}
	_ = s.cache.Set(r.Context(), key, data, s.cfg.Cache.TTL.Duration())
	s.writeRawJSON(w, http.StatusOK, data)
}

// =============================================================================
// Helpers
// =============================================================================

// serveCached serves key from the cache when possible, otherwise computes
// the value, stores its JSON encoding, and serves that.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, kind, key string, fetch func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		s.metrics.CacheHitsTotal.WithLabelValues(kind).Inc()
		s.writeRawJSON(w, http.StatusOK, data)
		return
	}
	s.metrics.CacheMissesTotal.WithLabelValues(kind).Inc()

	v, err := fetch(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", kind))
		return
	}
	_ = s.cache.Set(ctx, key, data, s.cfg.Cache.TTL.Duration())
	s.writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) observeContainers(containers []topology.Container) {
	byStatus := make(map[string]int)
	for _, c := range containers {
		byStatus[string(c.Status)]++
	}
	s.metrics.ObserveSnapshot(byStatus)
}
