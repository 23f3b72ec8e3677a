// Package discovery reads the live container landscape from the Docker
// daemon and maps it onto the topology domain model. All listing output
// is sorted by container name so downstream consumers see stable order.
package discovery

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/topology"
)

// shortIDLen is the truncated container id length used everywhere in the
// API surface, matching what docker ps prints.
const shortIDLen = 12

// DefaultLogTail bounds log requests that do not specify a tail.
const DefaultLogTail = 100

// Client discovers containers, networks and images through a DockerAPI.
type Client struct {
	api DockerAPI
}

// NewClient wraps an established Docker API connection.
func NewClient(api DockerAPI) *Client {
	return &Client{api: api}
}

// Close releases the underlying Docker connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// ListContainers returns every container (running or not), sorted by name.
func (c *Client) ListContainers(ctx context.Context) ([]topology.Container, error) {
	raw, err := c.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "list containers")
	}

	containers := make([]topology.Container, 0, len(raw))
	for _, rc := range raw {
		containers = append(containers, fromSummary(rc))
	}
	sort.Slice(containers, func(i, j int) bool {
		return containers[i].Name < containers[j].Name
	})
	return containers, nil
}

// GetContainer resolves a container by short id or name.
func (c *Client) GetContainer(ctx context.Context, idOrName string) (topology.Container, error) {
	containers, err := c.ListContainers(ctx)
	if err != nil {
		return topology.Container{}, err
	}
	for _, tc := range containers {
		if tc.ID == idOrName || tc.Name == idOrName {
			return tc, nil
		}
	}
	return topology.Container{}, errors.New(errors.ErrCodeContainerNotFound, "container %q not found", idOrName)
}

// ContainerDetail inspects a container and returns the extended view:
// environment, command line, mounts and health check configuration.
func (c *Client) ContainerDetail(ctx context.Context, idOrName string) (topology.ContainerDetail, error) {
	base, err := c.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.ContainerDetail{}, err
	}

	info, err := c.api.ContainerInspect(ctx, base.ID)
	if err != nil {
		return topology.ContainerDetail{}, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "inspect container %s", base.ID)
	}

	detail := topology.ContainerDetail{Container: base}
	if info.Config != nil {
		detail.Environment = info.Config.Env
		detail.Command = strings.Join(info.Config.Cmd, " ")
		detail.Entrypoint = info.Config.Entrypoint
		detail.WorkingDir = info.Config.WorkingDir
		if hc := info.Config.Healthcheck; hc != nil {
			detail.HealthCheck = &topology.HealthCheckConfig{
				Test:               hc.Test,
				IntervalSeconds:    int64(hc.Interval / time.Second),
				TimeoutSeconds:     int64(hc.Timeout / time.Second),
				Retries:            hc.Retries,
				StartPeriodSeconds: int64(hc.StartPeriod / time.Second),
			}
		}
	}
	for _, m := range info.Mounts {
		detail.Volumes = append(detail.Volumes, topology.VolumeMount{
			Source:      m.Source,
			Destination: m.Destination,
			Mode:        m.Mode,
		})
	}
	return detail, nil
}

// ContainerLogs tails a container's log output. A tail of zero or less
// falls back to DefaultLogTail.
func (c *Client) ContainerLogs(ctx context.Context, idOrName string, tail int) (topology.Logs, error) {
	if tail <= 0 {
		tail = DefaultLogTail
	}
	tc, err := c.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.Logs{}, err
	}

	rc, err := c.api.ContainerLogs(ctx, tc.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return topology.Logs{}, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "fetch logs for %s", tc.Name)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return topology.Logs{}, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "read logs for %s", tc.Name)
	}

	return topology.Logs{
		ContainerID:   tc.ID,
		ContainerName: tc.Name,
		Lines:         splitLogLines(demux(raw)),
		Tail:          tail,
	}, nil
}

// ListNetworks returns every Docker network with its attached containers.
func (c *Client) ListNetworks(ctx context.Context) ([]topology.Network, error) {
	raw, err := c.api.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "list networks")
	}

	networks := make([]topology.Network, 0, len(raw))
	for _, n := range raw {
		tn := topology.Network{
			ID:     shortID(n.ID),
			Name:   n.Name,
			Driver: n.Driver,
		}
		for _, ep := range n.Containers {
			tn.Containers = append(tn.Containers, ep.Name)
		}
		sort.Strings(tn.Containers)
		networks = append(networks, tn)
	}
	sort.Slice(networks, func(i, j int) bool {
		return networks[i].Name < networks[j].Name
	})
	return networks, nil
}

// ImageSizes reports the size of every tagged image, sorted largest first.
func (c *Client) ImageSizes(ctx context.Context) ([]topology.ImageSize, error) {
	raw, err := c.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "list images")
	}

	sizes := make([]topology.ImageSize, 0, len(raw))
	for _, img := range raw {
		if len(img.RepoTags) == 0 || img.RepoTags[0] == "<none>:<none>" {
			continue
		}
		sizes = append(sizes, topology.ImageSize{
			Image:  img.RepoTags[0],
			SizeMB: bytesToMB(float64(img.Size)),
		})
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].SizeMB != sizes[j].SizeMB {
			return sizes[i].SizeMB > sizes[j].SizeMB
		}
		return sizes[i].Image < sizes[j].Image
	})
	return sizes, nil
}

// Topology takes a full discovery snapshot and summarizes it.
func (c *Client) Topology(ctx context.Context) (topology.SystemTopology, error) {
	containers, err := c.ListContainers(ctx)
	if err != nil {
		return topology.SystemTopology{}, err
	}
	return topology.BuildTopology(containers), nil
}

// Flowchart builds the flowchart identified by id from a fresh snapshot.
func (c *Client) Flowchart(ctx context.Context, id string) (*topology.Flowchart, error) {
	containers, err := c.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	fc, ok := topology.BuildFlowchart(id, containers)
	if !ok {
		return nil, errors.New(errors.ErrCodeFlowchartNotFound, "flowchart %q not found", id)
	}
	return fc, nil
}

// fromSummary maps one Docker list entry onto the domain model.
func fromSummary(rc types.Container) topology.Container {
	tc := topology.Container{
		ID:      shortID(rc.ID),
		Image:   rc.Image,
		Status:  statusOf(rc.State, rc.Status),
		Created: time.Unix(rc.Created, 0).UTC(),
		Labels:  rc.Labels,
	}
	if len(rc.Names) > 0 {
		tc.Name = strings.TrimPrefix(rc.Names[0], "/")
	}
	tc.Category = topology.CategoryFromName(tc.Name)

	if h := healthOf(rc.Status); h != "" {
		tc.Health = h
	}
	for _, p := range rc.Ports {
		tc.Ports = append(tc.Ports, topology.PortMapping{
			HostPort:      p.PublicPort,
			ContainerPort: p.PrivatePort,
			Protocol:      p.Type,
		})
	}
	sort.Slice(tc.Ports, func(i, j int) bool {
		return tc.Ports[i].ContainerPort < tc.Ports[j].ContainerPort
	})
	if rc.NetworkSettings != nil {
		for name := range rc.NetworkSettings.Networks {
			tc.Networks = append(tc.Networks, name)
		}
		sort.Strings(tc.Networks)
	}
	return tc
}

// statusOf folds the docker state and the human status line ("Up 2 hours
// (healthy)") into one Status. Health annotations only apply to running
// containers.
func statusOf(state, statusLine string) topology.Status {
	if state != string(topology.StatusRunning) {
		return topology.ParseStatus(state)
	}
	switch healthOf(statusLine) {
	case "healthy":
		return topology.StatusHealthy
	case "unhealthy":
		return topology.StatusUnhealthy
	}
	return topology.StatusRunning
}

func healthOf(statusLine string) string {
	switch {
	case strings.Contains(statusLine, "(healthy)"):
		return "healthy"
	case strings.Contains(statusLine, "(unhealthy)"):
		return "unhealthy"
	case strings.Contains(statusLine, "(health: starting)"):
		return "starting"
	}
	return ""
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func bytesToMB(b float64) float64 {
	return b / (1024 * 1024)
}

// demux strips the stdcopy stream framing from log output. Containers
// started with a TTY emit unframed output, which stdcopy rejects; in that
// case the raw bytes are returned as-is.
func demux(raw []byte) []byte {
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, bytes.NewReader(raw)); err != nil {
		return raw
	}
	return out.Bytes()
}

func splitLogLines(data []byte) []string {
	trimmed := strings.TrimRight(string(data), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
