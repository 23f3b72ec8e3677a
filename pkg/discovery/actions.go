package discovery

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"

	"github.com/valhq/flowscope/pkg/topology"
)

// Lifecycle action names as they appear in ActionResult and the API paths.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// StartContainer starts a stopped container.
func (c *Client) StartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return c.lifecycle(ctx, idOrName, ActionStart, func(id string) error {
		return c.api.ContainerStart(ctx, id, container.StartOptions{})
	})
}

// StopContainer stops a running container with the daemon's default grace
// period.
func (c *Client) StopContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return c.lifecycle(ctx, idOrName, ActionStop, func(id string) error {
		return c.api.ContainerStop(ctx, id, container.StopOptions{})
	})
}

// RestartContainer restarts a container.
func (c *Client) RestartContainer(ctx context.Context, idOrName string) (topology.ActionResult, error) {
	return c.lifecycle(ctx, idOrName, ActionRestart, func(id string) error {
		return c.api.ContainerRestart(ctx, id, container.StopOptions{})
	})
}

// lifecycle resolves the target container, applies the action, and wraps
// the outcome. Daemon failures surface inside the result rather than as an
// error so the API can report them with container context attached.
func (c *Client) lifecycle(ctx context.Context, idOrName, action string, apply func(id string) error) (topology.ActionResult, error) {
	tc, err := c.GetContainer(ctx, idOrName)
	if err != nil {
		return topology.ActionResult{}, err
	}

	result := topology.ActionResult{
		ContainerID:   tc.ID,
		ContainerName: tc.Name,
		Action:        action,
	}
	if err := apply(tc.ID); err != nil {
		result.Message = fmt.Sprintf("failed to %s %s: %v", action, tc.Name, err)
		return result, nil
	}
	result.Success = true
	result.Message = fmt.Sprintf("container %s: %s succeeded", tc.Name, action)
	return result, nil
}
