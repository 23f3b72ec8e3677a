package discovery

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"

	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/httputil"
)

// DockerAPI is the slice of the Docker Engine API the discovery layer
// needs. The real client satisfies it; tests substitute a fake.
type DockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	NetworkList(ctx context.Context, options network.ListOptions) ([]network.Summary, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// NewDockerAPI connects to the Docker daemon using the standard
// environment (DOCKER_HOST etc.), negotiating the API version with the
// daemon. An explicit host overrides the environment.
func NewDockerAPI(ctx context.Context, host string) (DockerAPI, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "create docker client")
	}
	// The daemon is often still starting when we are (compose brings both
	// up together), so give the first ping a few tries.
	err = httputil.RetryWithBackoff(ctx, func() error {
		if _, err := api.Ping(ctx); err != nil {
			return httputil.Retryable(err)
		}
		return nil
	})
	if err != nil {
		api.Close()
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "ping docker daemon")
	}
	return api, nil
}
