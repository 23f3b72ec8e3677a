package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/valhq/flowscope/pkg/cache"
	"github.com/valhq/flowscope/pkg/config"
	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/layout"
	"github.com/valhq/flowscope/pkg/observability"
	"github.com/valhq/flowscope/pkg/store"
	"github.com/valhq/flowscope/pkg/topology"
)

// fakeSource serves fixtures and counts list calls for cache assertions.
type fakeSource struct {
	containers []topology.Container
	listCalls  int
	listErr    error
}

func (f *fakeSource) ListContainers(ctx context.Context) ([]topology.Container, error) {
	f.listCalls++
	return f.containers, f.listErr
}

func (f *fakeSource) ListContainersWithStats(ctx context.Context) ([]topology.Container, error) {
	containers, err := f.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]topology.Container, len(containers))
	copy(out, containers)
	for i := range out {
		out[i].Stats = &topology.Stats{CPUPercent: 1.5}
	}
	return out, nil
}

func (f *fakeSource) GetContainer(ctx context.Context, idOrName string) (topology.Container, error) {
	for _, c := range f.containers {
		if c.ID == idOrName || c.Name == idOrName {
			return c, nil
		}
	}
	return topology.Container{}, errors.New(errors.ErrCodeContainerNotFound, "container %q not found", idOrName)
}

func (f *fakeSource) ContainerDetail(ctx context.Context, idOrName string) (topology.ContainerDetail, error) {
	c, err := f.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.ContainerDetail{}, err
	}
	return topology.ContainerDetail{Container: c, Environment: []string{"MODE=test"}}, nil
}

func (f *fakeSource) ContainerLogs(ctx context.Context, idOrName string, tail int) (topology.Logs, error) {
	c, err := f.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.Logs{}, err
	}
	return topology.Logs{ContainerID: c.ID, ContainerName: c.Name, Lines: []string{"started"}, Tail: tail}, nil
}

func (f *fakeSource) ContainerStats(ctx context.Context, idOrName string) (*topology.Stats, error) {
	if _, err := f.GetContainer(ctx, idOrName); err != nil {
		return nil, err
	}
	return &topology.Stats{CPUPercent: 1.5}, nil
}

func (f *fakeSource) StartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return f.action(ctx, idOrName, "start")
}

func (f *fakeSource) StopContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return f.action(ctx, idOrName, "stop")
}

func (f *fakeSource) RestartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return f.action(ctx, idOrName, "restart")
}

func (f *fakeSource) action(ctx context.Context, idOrName, action string) (topology.ActionResult, error) {
	c, err := f.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.ActionResult{}, err
	}
	return topology.ActionResult{
		Success: true, ContainerID: c.ID, ContainerName: c.Name, Action: action,
	}, nil
}

func (f *fakeSource) ListNetworks(ctx context.Context) ([]topology.Network, error) {
	return []topology.Network{{ID: "net1", Name: "app-net", Driver: "bridge"}}, nil
}

func (f *fakeSource) ImageSizes(ctx context.Context) ([]topology.ImageSize, error) {
	return []topology.ImageSize{{Image: "postgres:16", SizeMB: 400}}, nil
}

func fixtureContainers() []topology.Container {
	return []topology.Container{
		{ID: "aaa111aaa111", Name: "application-gateway", Image: "gateway:latest",
			Status: topology.StatusHealthy, Category: topology.CategoryApplication,
			Networks: []string{"bridge", "app-net"}},
		{ID: "bbb222bbb222", Name: "infrastructure-postgres", Image: "postgres:16",
			Status: topology.StatusRunning, Category: topology.CategoryInfrastructure,
			Networks: []string{"bridge", "app-net"}},
	}
}

func newTestServer(t *testing.T, src Source, c cache.Cache) *Server {
	t.Helper()
	if c == nil {
		c = cache.NewNullCache()
	}
	logger := log.New(io.Discard)
	return New(config.Default(), src, c, store.NewMemoryStore(), observability.NewRegistry(), logger)
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)
	// Served bare for probes and under /api for the dashboard.
	for _, path := range []string{"/health", "/api/health"} {
		rec := doRequest(t, s, "GET", path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Errorf("GET %s body = %s, want status ok", path, rec.Body.String())
		}
	}
}

func TestContainersEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var containers []topology.Container
	if err := json.Unmarshal(rec.Body.Bytes(), &containers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(containers) != 2 {
		t.Errorf("len(containers) = %d, want 2", len(containers))
	}
}

func TestContainerByName(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers/application-gateway", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var c topology.Container
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID != "aaa111aaa111" {
		t.Errorf("ID = %q, want aaa111aaa111", c.ID)
	}
}

func TestContainerDetail(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers/application-gateway/detail", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var detail topology.ContainerDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(detail.Environment) != 1 {
		t.Errorf("Environment = %v, want one entry", detail.Environment)
	}
}

func TestAllStats(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var containers []topology.Container
	if err := json.Unmarshal(rec.Body.Bytes(), &containers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, c := range containers {
		if c.Stats == nil {
			t.Errorf("container %s has no stats", c.Name)
		} else if c.Stats.CPUPercent != 1.5 {
			t.Errorf("CPUPercent = %v, want 1.5", c.Stats.CPUPercent)
		}
	}
}

func TestContainerDetailNotFound(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code"`) {
		t.Errorf("body = %s, want structured error", rec.Body.String())
	}
}

func TestContainerLogsRejectsBadTail(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/containers/application-gateway/logs?tail=-5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestContainerAction(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "POST", "/api/containers/application-gateway/restart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result topology.ActionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || result.Action != "restart" {
		t.Errorf("result = %+v, want successful restart", result)
	}
}

func TestTopologyEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/topology", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var topo topology.SystemTopology
	if err := json.Unmarshal(rec.Body.Bytes(), &topo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if topo.TotalContainers != 2 || topo.RunningContainers != 2 {
		t.Errorf("topology = %+v, want 2 total / 2 running", topo)
	}
}

func TestTopologyUsesCache(t *testing.T) {
	src := &fakeSource{containers: fixtureContainers()}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, src, fc)

	doRequest(t, s, "GET", "/api/topology", nil)
	doRequest(t, s, "GET", "/api/topology", nil)
	if src.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (second request served from cache)", src.listCalls)
	}
}

func TestFlowchartEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)

	rec := doRequest(t, s, "GET", "/api/flowcharts/system-overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var fc topology.Flowchart
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2 category groups", len(fc.Nodes))
	}

	rec = doRequest(t, s, "GET", "/api/flowcharts/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown flowchart", rec.Code)
	}
}

func TestFlowchartsList(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/flowcharts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var summaries []topology.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 3 || summaries[0].ID != "system-overview" {
		t.Errorf("summaries = %+v, want overview plus two categories", summaries)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)
	body := []byte(`{
		"algorithm": "grid",
		"nodes": [{"id":"a"},{"id":"b"},{"id":"c"},{"id":"d"},{"id":"e"}],
		"edges": []
	}`)

	rec := doRequest(t, s, "POST", "/api/layout", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Algorithm string             `json:"algorithm"`
		Positions layout.PositionMap `json:"positions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Algorithm != "grid" {
		t.Errorf("algorithm = %q, want grid", resp.Algorithm)
	}
	if len(resp.Positions) != 5 {
		t.Fatalf("len(positions) = %d, want 5", len(resp.Positions))
	}
	// fifth node wraps to the second row
	if got := resp.Positions["e"]; got.X != 50 || got.Y != 200 {
		t.Errorf("positions[e] = %v, want {50 200}", got)
	}
}

func TestLayoutDefaultsAlgorithm(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)
	body := []byte(`{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"}]}`)

	rec := doRequest(t, s, "POST", "/api/layout", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"algorithm":"hierarchical"`) {
		t.Errorf("body = %s, want configured default algorithm", rec.Body.String())
	}
}

func TestLayoutRejectsUnknownAlgorithm(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)
	body := []byte(`{"algorithm":"circular","nodes":[{"id":"a"}]}`)
	rec := doRequest(t, s, "POST", "/api/layout", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)

	put := []byte(`{"algorithm":"force","positions":{"aaa111aaa111":{"x":120,"y":80}}}`)
	rec := doRequest(t, s, "PUT", "/api/flowcharts/application-overview/positions", put)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, "GET", "/api/flowcharts/application-overview/positions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var saved store.SavedLayout
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.Positions["aaa111aaa111"].X != 120 {
		t.Errorf("saved = %+v, want stored position", saved)
	}

	rec = doRequest(t, s, "DELETE", "/api/flowcharts/application-overview/positions", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}
	rec = doRequest(t, s, "GET", "/api/flowcharts/application-overview/positions", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestPositionsRejectsEmpty(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)
	rec := doRequest(t, s, "PUT", "/api/flowcharts/fc/positions", []byte(`{"positions":{}}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExportDOT(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/flowcharts/system-overview/export?format=dot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q, want text/vnd.graphviz", ct)
	}
	if !strings.Contains(rec.Body.String(), "digraph flowscope") {
		t.Errorf("body = %s, want DOT output", rec.Body.String())
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	rec := doRequest(t, s, "GET", "/api/flowcharts/system-overview/export?format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDockerOutageMapsTo503(t *testing.T) {
	src := &fakeSource{listErr: errors.New(errors.ErrCodeDockerUnavailable, "daemon down")}
	s := newTestServer(t, src, nil)
	rec := doRequest(t, s, "GET", "/api/containers", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestNetworksAndImages(t *testing.T) {
	s := newTestServer(t, &fakeSource{}, nil)

	rec := doRequest(t, s, "GET", "/api/networks", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app-net") {
		t.Errorf("networks: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, s, "GET", "/api/images/sizes", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "postgres:16") {
		t.Errorf("images: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsExposed(t *testing.T) {
	s := newTestServer(t, &fakeSource{containers: fixtureContainers()}, nil)
	doRequest(t, s, "GET", "/api/containers", nil)

	rec := doRequest(t, s, "GET", "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "flowscope_http_requests_total") {
		t.Error("metrics exposition missing request counter")
	}
}
