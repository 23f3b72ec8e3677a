package discovery

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
)

// Observer is called once per Docker Engine API call with the operation
// name, how long the call took, and its error (nil on success).
type Observer func(operation string, duration time.Duration, err error)

// Instrument routes every Docker Engine API call through fn. Calling it
// with nil removes a previously installed observer.
func (c *Client) Instrument(fn Observer) {
	if ia, ok := c.api.(*instrumentedAPI); ok {
		c.api = ia.next
	}
	if fn != nil {
		c.api = &instrumentedAPI{next: c.api, observe: fn}
	}
}

// instrumentedAPI wraps a DockerAPI and times each call.
type instrumentedAPI struct {
	next    DockerAPI
	observe Observer
}

func (a *instrumentedAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error) {
	start := time.Now()
	out, err := a.next.ContainerList(ctx, options)
	a.observe("container_list", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error) {
	start := time.Now()
	out, err := a.next.ContainerInspect(ctx, containerID)
	a.observe("container_inspect", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error) {
	start := time.Now()
	out, err := a.next.ContainerLogs(ctx, containerID, options)
	a.observe("container_logs", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error) {
	start := time.Now()
	out, err := a.next.ContainerStats(ctx, containerID, stream)
	a.observe("container_stats", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	start := time.Now()
	err := a.next.ContainerStart(ctx, containerID, options)
	a.observe("container_start", time.Since(start), err)
	return err
}

func (a *instrumentedAPI) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	start := time.Now()
	err := a.next.ContainerStop(ctx, containerID, options)
	a.observe("container_stop", time.Since(start), err)
	return err
}

func (a *instrumentedAPI) ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error {
	start := time.Now()
	err := a.next.ContainerRestart(ctx, containerID, options)
	a.observe("container_restart", time.Since(start), err)
	return err
}

func (a *instrumentedAPI) NetworkList(ctx context.Context, options network.ListOptions) ([]network.Summary, error) {
	start := time.Now()
	out, err := a.next.NetworkList(ctx, options)
	a.observe("network_list", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error) {
	start := time.Now()
	out, err := a.next.ImageList(ctx, options)
	a.observe("image_list", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) Ping(ctx context.Context) (types.Ping, error) {
	start := time.Now()
	out, err := a.next.Ping(ctx)
	a.observe("ping", time.Since(start), err)
	return out, err
}

func (a *instrumentedAPI) Close() error {
	return a.next.Close()
}
