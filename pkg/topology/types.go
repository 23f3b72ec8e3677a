// Package topology defines the wire-format model for container topology:
// containers, networks, and the flowcharts the dashboard renders.
//
// This package is the serialization boundary: JSON field names are camelCase
// to match the frontend types, and bson tags allow saved documents to round-
// trip through the layout store unchanged. Flowchart construction lives in
// flowchart.go and is pure - it consumes container snapshots produced by
// pkg/discovery and performs no I/O of its own.
package topology

import (
	"strings"
	"time"
)

// =============================================================================
// Container Status
// =============================================================================

// Status mirrors Docker container states, extended with the health states
// Docker reports inside the status string ("Up 3 hours (healthy)").
type Status string

const (
	StatusRunning    Status = "running"
	StatusHealthy    Status = "healthy"
	StatusUnhealthy  Status = "unhealthy"
	StatusExited     Status = "exited"
	StatusCreated    Status = "created"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusDead       Status = "dead"
)

// ParseStatus maps a Docker state string to a Status.
// Unknown states collapse to exited, matching the dashboard's treatment of
// anything it cannot classify as "not up".
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusRunning, StatusHealthy, StatusUnhealthy, StatusExited,
		StatusCreated, StatusPaused, StatusRestarting, StatusDead:
		return Status(s)
	}
	return StatusExited
}

// IsUp reports whether the status counts as a live container
// (running or healthy).
func (s Status) IsUp() bool {
	return s == StatusRunning || s == StatusHealthy
}

// =============================================================================
// Service Category
// =============================================================================

// Category groups containers by the service tier encoded in their name
// prefix. The dashboard uses categories for drill-down flowcharts.
type Category string

const (
	CategoryAiml           Category = "aiml"
	CategoryApplication    Category = "application"
	CategoryInfrastructure Category = "infrastructure"
	CategoryFrontend       Category = "frontend"
	CategoryMonitoring     Category = "monitoring"
	CategoryGame           Category = "game"
	CategoryVal            Category = "val"
	CategoryBlockchain     Category = "blockchain"
	CategoryOther          Category = "other"
)

// Categories lists all known categories in display order.
var Categories = []Category{
	CategoryAiml,
	CategoryApplication,
	CategoryInfrastructure,
	CategoryFrontend,
	CategoryMonitoring,
	CategoryGame,
	CategoryVal,
	CategoryBlockchain,
	CategoryOther,
}

// CategoryFromName derives a category from a container name by its prefix.
// Names that match no convention land in CategoryOther.
func CategoryFromName(name string) Category {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "aiml-"):
		return CategoryAiml
	case strings.HasPrefix(lower, "application-"):
		return CategoryApplication
	case strings.HasPrefix(lower, "infrastructure-"):
		return CategoryInfrastructure
	case strings.HasPrefix(lower, "frontend-"):
		return CategoryFrontend
	case strings.HasPrefix(lower, "monitoring-"):
		return CategoryMonitoring
	case strings.HasPrefix(lower, "game-"):
		return CategoryGame
	case strings.HasPrefix(lower, "val-"):
		return CategoryVal
	case strings.HasPrefix(lower, "valina-validator"), strings.Contains(lower, "chain"):
		return CategoryBlockchain
	}
	return CategoryOther
}

// DisplayName returns the human-facing name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryAiml:
		return "AI/ML"
	case CategoryApplication:
		return "Application"
	case CategoryInfrastructure:
		return "Infrastructure"
	case CategoryFrontend:
		return "Frontend"
	case CategoryMonitoring:
		return "Monitoring"
	case CategoryGame:
		return "Game"
	case CategoryVal:
		return "Autonomy"
	case CategoryBlockchain:
		return "Blockchain"
	default:
		return "Other"
	}
}

// ParseCategory maps a category name to a Category, reporting whether the
// name is known.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// =============================================================================
// Containers
// =============================================================================

// PortMapping is one published port of a container.
type PortMapping struct {
	HostPort      uint16 `json:"hostPort,omitempty" bson:"host_port,omitempty"`
	ContainerPort uint16 `json:"containerPort" bson:"container_port"`
	Protocol      string `json:"protocol" bson:"protocol"`
}

// Stats holds one sample of container resource usage.
type Stats struct {
	CPUPercent    float64 `json:"cpuPercent" bson:"cpu_percent"`
	MemoryUsageMB float64 `json:"memoryUsageMb" bson:"memory_usage_mb"`
	MemoryLimitMB float64 `json:"memoryLimitMb" bson:"memory_limit_mb"`
	MemoryPercent float64 `json:"memoryPercent" bson:"memory_percent"`
	NetworkRxMB   float64 `json:"networkRxMb" bson:"network_rx_mb"`
	NetworkTxMB   float64 `json:"networkTxMb" bson:"network_tx_mb"`
	BlockReadMB   float64 `json:"blockReadMb" bson:"block_read_mb"`
	BlockWriteMB  float64 `json:"blockWriteMb" bson:"block_write_mb"`
	PIDs          uint64  `json:"pids" bson:"pids"`
}

// Container is the discovery snapshot of one container.
type Container struct {
	ID          string            `json:"id" bson:"id"` // short 12-char id
	Name        string            `json:"name" bson:"name"`
	Image       string            `json:"image" bson:"image"`
	Status      Status            `json:"status" bson:"status"`
	Health      string            `json:"health,omitempty" bson:"health,omitempty"`
	Category    Category          `json:"category" bson:"category"`
	Ports       []PortMapping     `json:"ports" bson:"ports"`
	Networks    []string          `json:"networks" bson:"networks"`
	Created     time.Time         `json:"created" bson:"created"`
	Labels      map[string]string `json:"labels" bson:"labels"`
	Stats       *Stats            `json:"stats,omitempty" bson:"stats,omitempty"`
	ImageSizeMB float64           `json:"imageSizeMb,omitempty" bson:"image_size_mb,omitempty"`
}

// VolumeMount is one mount of a container.
type VolumeMount struct {
	Source      string `json:"source" bson:"source"`
	Destination string `json:"destination" bson:"destination"`
	Mode        string `json:"mode" bson:"mode"`
}

// HealthCheckConfig describes a container's configured health check.
type HealthCheckConfig struct {
	Test               []string `json:"test" bson:"test"`
	IntervalSeconds    int64    `json:"intervalSeconds" bson:"interval_seconds"`
	TimeoutSeconds     int64    `json:"timeoutSeconds" bson:"timeout_seconds"`
	Retries            int      `json:"retries" bson:"retries"`
	StartPeriodSeconds int64    `json:"startPeriodSeconds" bson:"start_period_seconds"`
}

// ContainerDetail extends Container with inspection data: environment,
// command line, mounts, and health check configuration.
type ContainerDetail struct {
	Container
	Environment []string           `json:"environment"`
	Command     string             `json:"command,omitempty"`
	Entrypoint  []string           `json:"entrypoint,omitempty"`
	WorkingDir  string             `json:"workingDir,omitempty"`
	Volumes     []VolumeMount      `json:"volumes"`
	HealthCheck *HealthCheckConfig `json:"healthCheck,omitempty"`
}

// Logs is a tail of one container's log output.
type Logs struct {
	ContainerID   string   `json:"containerId"`
	ContainerName string   `json:"containerName"`
	Lines         []string `json:"logs"`
	Tail          int      `json:"tail"`
}

// ActionResult reports the outcome of a lifecycle action
// (start, stop, restart).
type ActionResult struct {
	Success       bool   `json:"success"`
	ContainerID   string `json:"containerId"`
	ContainerName string `json:"containerName"`
	Action        string `json:"action"`
	Message       string `json:"message"`
}

// Network is one Docker network and the containers attached to it.
type Network struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Driver     string   `json:"driver"`
	Containers []string `json:"containers"`
}

// ImageSize reports the size of one image, keyed by its first repo tag.
type ImageSize struct {
	Image  string  `json:"image"`
	SizeMB float64 `json:"sizeMb"`
}

// =============================================================================
// Flowcharts
// =============================================================================

// NodeType classifies a flowchart node.
type NodeType string

const (
	NodeService  NodeType = "service"
	NodeProcess  NodeType = "process"
	NodeDecision NodeType = "decision"
	NodeGroup    NodeType = "group"
)

// ConnectionType classifies a flowchart connection.
type ConnectionType string

const (
	ConnectionPrimary   ConnectionType = "primary"
	ConnectionSecondary ConnectionType = "secondary"
	ConnectionData      ConnectionType = "data"
	ConnectionControl   ConnectionType = "control"
	ConnectionNetwork   ConnectionType = "network"
	ConnectionVolume    ConnectionType = "volume"
	ConnectionDepends   ConnectionType = "depends"
)

// NodeMetrics carries the per-node metric summary shown in node popups.
type NodeMetrics struct {
	CPUPercent  *float64 `json:"cpuPercent,omitempty" bson:"cpu_percent,omitempty"`
	MemoryMB    *uint64  `json:"memoryMb,omitempty" bson:"memory_mb,omitempty"`
	UptimeHours *float64 `json:"uptimeHours,omitempty" bson:"uptime_hours,omitempty"`
	ImageSizeMB *float64 `json:"imageSizeMb,omitempty" bson:"image_size_mb,omitempty"`
}

// FlowchartNode is one node of a flowchart. ChildFlowchart, when set, is
// the id of the flowchart the dashboard drills into on double-click.
type FlowchartNode struct {
	ID             string       `json:"id" bson:"id"`
	Name           string       `json:"name" bson:"name"`
	Description    string       `json:"description" bson:"description"`
	Status         Status       `json:"status" bson:"status"`
	NodeType       NodeType     `json:"nodeType" bson:"node_type"`
	Category       Category     `json:"category" bson:"category"`
	Port           uint16       `json:"port,omitempty" bson:"port,omitempty"`
	ChildFlowchart string       `json:"childFlowchart,omitempty" bson:"child_flowchart,omitempty"`
	Metrics        *NodeMetrics `json:"metrics,omitempty" bson:"metrics,omitempty"`
	Stats          *Stats       `json:"stats,omitempty" bson:"stats,omitempty"`
}

// Connection is one directed edge of a flowchart.
type Connection struct {
	ID             string         `json:"id" bson:"id"`
	Source         string         `json:"source" bson:"source"`
	Target         string         `json:"target" bson:"target"`
	Label          string         `json:"label,omitempty" bson:"label,omitempty"`
	ConnectionType ConnectionType `json:"connectionType" bson:"connection_type"`
}

// Flowchart is a complete drill-down view: nodes plus connections, with an
// optional parent for breadcrumb navigation.
type Flowchart struct {
	ID          string          `json:"id" bson:"id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description" bson:"description"`
	Nodes       []FlowchartNode `json:"nodes" bson:"nodes"`
	Connections []Connection    `json:"connections" bson:"connections"`
	ParentID    string          `json:"parentId,omitempty" bson:"parent_id,omitempty"`
}

// Summary is the overview entry for one flowchart.
type Summary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	NodeCount int      `json:"nodeCount"`
	Category  Category `json:"category"`
}

// SystemTopology is the top-level overview returned by /api/topology.
type SystemTopology struct {
	TotalContainers     int            `json:"totalContainers"`
	RunningContainers   int            `json:"runningContainers"`
	HealthyContainers   int            `json:"healthyContainers"`
	UnhealthyContainers int            `json:"unhealthyContainers"`
	Categories          map[string]int `json:"categories"`
	Flowcharts          []Summary      `json:"flowcharts"`
	GeneratedAt         time.Time      `json:"generatedAt"`
}
