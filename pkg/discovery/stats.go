package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/docker/docker/api/types/container"

	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/topology"
)

// ListContainersWithStats lists containers and attaches a live stats
// sample to every running one. Stats reads fan out since each costs a
// round trip to the daemon; containers whose stats read fails keep a nil
// Stats rather than failing the whole listing.
func (c *Client) ListContainersWithStats(ctx context.Context) ([]topology.Container, error) {
	containers, err := c.ListContainers(ctx)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	for i := range containers {
		if !containers[i].Status.IsUp() {
			continue
		}
		wg.Add(1)
		go func(tc *topology.Container) {
			defer wg.Done()
			if stats, err := c.ContainerStats(ctx, tc.ID); err == nil {
				tc.Stats = stats
			}
		}(&containers[i])
	}
	wg.Wait()
	return containers, nil
}

// ContainerStats takes a single resource usage sample. The daemon includes
// the previous CPU reading in a one-shot sample, so no local polling state
// is needed.
func (c *Client) ContainerStats(ctx context.Context, idOrName string) (*topology.Stats, error) {
	tc, err := c.GetContainer(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.ContainerStats(ctx, tc.ID, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "fetch stats for %s", tc.Name)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDockerUnavailable, err, "decode stats for %s", tc.Name)
	}
	return computeStats(&raw), nil
}

// computeStats reduces a raw daemon sample to the dashboard metrics.
func computeStats(raw *container.StatsResponse) *topology.Stats {
	stats := &topology.Stats{
		PIDs: raw.PidsStats.Current,
	}

	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage) - float64(raw.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(raw.CPUStats.SystemUsage) - float64(raw.PreCPUStats.SystemUsage)
	if cpuDelta > 0 && sysDelta > 0 {
		cpus := float64(raw.CPUStats.OnlineCPUs)
		if cpus == 0 {
			cpus = float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
		}
		stats.CPUPercent = cpuDelta / sysDelta * cpus * 100
	}

	// cgroup v1 reports page cache inside usage; subtract it so the number
	// matches what docker stats shows
	usage := raw.MemoryStats.Usage
	if cache, ok := raw.MemoryStats.Stats["cache"]; ok && cache < usage {
		usage -= cache
	}
	stats.MemoryUsageMB = bytesToMB(float64(usage))
	stats.MemoryLimitMB = bytesToMB(float64(raw.MemoryStats.Limit))
	if raw.MemoryStats.Limit > 0 {
		stats.MemoryPercent = float64(usage) / float64(raw.MemoryStats.Limit) * 100
	}

	for _, nw := range raw.Networks {
		stats.NetworkRxMB += bytesToMB(float64(nw.RxBytes))
		stats.NetworkTxMB += bytesToMB(float64(nw.TxBytes))
	}

	for _, entry := range raw.BlkioStats.IoServiceBytesRecursive {
		switch strings.ToLower(entry.Op) {
		case "read":
			stats.BlockReadMB += bytesToMB(float64(entry.Value))
		case "write":
			stats.BlockWriteMB += bytesToMB(float64(entry.Value))
		}
	}
	return stats
}
