package topology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SystemOverviewID is the id of the top-level flowchart.
const SystemOverviewID = "system-overview"

// overviewSuffix marks category drill-down flowchart ids
// (e.g. "aiml-overview").
const overviewSuffix = "-overview"

// categoryInfo drives the system overview group nodes.
var categoryInfo = []struct {
	category    Category
	name        string
	description string
}{
	{CategoryAiml, "AI/ML Services", "Consciousness, Learning, Memory systems"},
	{CategoryApplication, "Application Services", "Backend APIs, Automation, Gateway"},
	{CategoryInfrastructure, "Infrastructure", "Databases, Cache, Message Queue"},
	{CategoryFrontend, "Frontend", "Web dashboards and UIs"},
	{CategoryMonitoring, "Monitoring", "Prometheus, Grafana, Logging"},
	{CategoryVal, "Autonomy", "Goal Manager, Code Editor, Git Service"},
	{CategoryBlockchain, "Blockchain", "Validators, Chain, Faucet"},
	{CategoryGame, "Game Services", "RPG Engine, Game Backend"},
}

// categoryConnections are the fixed relationships drawn between category
// groups on the system overview. Only pairs where both categories have
// containers are emitted.
var categoryConnections = []struct {
	source, target Category
	label          string
}{
	{CategoryFrontend, CategoryApplication, "API calls"},
	{CategoryApplication, CategoryInfrastructure, "Data"},
	{CategoryApplication, CategoryAiml, "AI requests"},
	{CategoryAiml, CategoryInfrastructure, "Data"},
	{CategoryVal, CategoryAiml, "Intelligence"},
	{CategoryVal, CategoryApplication, "Automation"},
	{CategoryMonitoring, CategoryApplication, "Metrics"},
	{CategoryMonitoring, CategoryAiml, "Metrics"},
	{CategoryGame, CategoryApplication, "Backend"},
	{CategoryBlockchain, CategoryInfrastructure, "State"},
}

// =============================================================================
// Topology Overview
// =============================================================================

// BuildTopology summarizes a container snapshot into the overview returned
// by the topology endpoint.
func BuildTopology(containers []Container) SystemTopology {
	topo := SystemTopology{
		TotalContainers: len(containers),
		Categories:      make(map[string]int),
		Flowcharts:      BuildSummaries(containers),
		GeneratedAt:     time.Now().UTC(),
	}
	for _, c := range containers {
		if c.Status.IsUp() {
			topo.RunningContainers++
		}
		if c.Status == StatusHealthy {
			topo.HealthyContainers++
		}
		if c.Status == StatusUnhealthy {
			topo.UnhealthyContainers++
		}
		topo.Categories[string(c.Category)]++
	}
	return topo
}

// BuildSummaries produces one summary per populated category, preceded by
// the system overview. Category order follows [Categories], so output is
// deterministic.
func BuildSummaries(containers []Container) []Summary {
	summaries := []Summary{{
		ID:        SystemOverviewID,
		Name:      "System Overview",
		NodeCount: len(containers),
		Category:  CategoryOther,
	}}

	for _, cat := range Categories {
		count := 0
		for _, c := range containers {
			if c.Category == cat {
				count++
			}
		}
		if count == 0 {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        string(cat) + overviewSuffix,
			Name:      cat.DisplayName() + " Services",
			NodeCount: count,
			Category:  cat,
		})
	}
	return summaries
}

// =============================================================================
// Flowchart Construction
// =============================================================================

// BuildFlowchart resolves a flowchart id against a container snapshot.
// Recognized ids, in order: "system-overview", "<category>-overview", and
// any container id or name (the per-container detail view). Returns false
// when the id matches nothing.
func BuildFlowchart(id string, containers []Container) (*Flowchart, bool) {
	if id == SystemOverviewID {
		return BuildSystemOverview(containers), true
	}

	if cat, ok := ParseCategory(strings.TrimSuffix(id, overviewSuffix)); ok && strings.HasSuffix(id, overviewSuffix) {
		var filtered []Container
		for _, c := range containers {
			if c.Category == cat {
				filtered = append(filtered, c)
			}
		}
		return BuildCategoryFlowchart(cat, filtered), true
	}

	for _, c := range containers {
		if c.ID == id || c.Name == id {
			return BuildContainerFlowchart(c, containers), true
		}
	}
	return nil, false
}

// BuildSystemOverview builds the top-level flowchart: one group node per
// populated category with a health rollup, connected by the fixed category
// relationships.
func BuildSystemOverview(containers []Container) *Flowchart {
	fc := &Flowchart{
		ID:   SystemOverviewID,
		Name: "System Overview",
	}

	for _, info := range categoryInfo {
		count, up := 0, 0
		for _, c := range containers {
			if c.Category != info.category {
				continue
			}
			count++
			if c.Status.IsUp() {
				up++
			}
		}
		if count == 0 {
			continue
		}

		status := StatusUnhealthy
		switch {
		case up == count:
			status = StatusHealthy
		case up > 0:
			status = StatusRunning
		}

		fc.Nodes = append(fc.Nodes, FlowchartNode{
			ID:             string(info.category),
			Name:           fmt.Sprintf("%s (%d)", info.name, count),
			Description:    info.description,
			Status:         status,
			NodeType:       NodeGroup,
			Category:       info.category,
			ChildFlowchart: string(info.category) + overviewSuffix,
		})
	}

	present := make(map[string]bool, len(fc.Nodes))
	for _, n := range fc.Nodes {
		present[n.ID] = true
	}
	for _, cc := range categoryConnections {
		if !present[string(cc.source)] || !present[string(cc.target)] {
			continue
		}
		fc.Connections = append(fc.Connections, Connection{
			ID:             fmt.Sprintf("%s-to-%s", cc.source, cc.target),
			Source:         string(cc.source),
			Target:         string(cc.target),
			Label:          cc.label,
			ConnectionType: ConnectionPrimary,
		})
	}

	fc.Description = fmt.Sprintf(
		"Complete system topology: %d containers across %d categories",
		len(containers), len(fc.Nodes))
	return fc
}

// BuildCategoryFlowchart builds the drill-down view for one category.
// Containers are ordered by the numeric suffix of their name (validator-1,
// validator-2, ...) and chained in a ring, which reads naturally for
// homogeneous replica sets.
func BuildCategoryFlowchart(cat Category, containers []Container) *Flowchart {
	sorted := make([]Container, len(containers))
	copy(sorted, containers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return nameSuffixNumber(sorted[i].Name) < nameSuffixNumber(sorted[j].Name)
	})

	fc := &Flowchart{
		ID:          string(cat) + overviewSuffix,
		Name:        cat.DisplayName() + " Services",
		Description: fmt.Sprintf("%d services in the %s category", len(containers), cat.DisplayName()),
		ParentID:    SystemOverviewID,
	}

	for _, c := range sorted {
		fc.Nodes = append(fc.Nodes, FlowchartNode{
			ID:             c.ID,
			Name:           c.Name,
			Description:    "Image: " + c.Image,
			Status:         c.Status,
			NodeType:       NodeService,
			Category:       c.Category,
			Port:           firstHostPort(c),
			ChildFlowchart: c.Name,
			Stats:          c.Stats,
		})
	}

	if len(sorted) > 1 {
		for i := range sorted {
			source := sorted[i]
			target := sorted[(i+1)%len(sorted)]
			fc.Connections = append(fc.Connections, Connection{
				ID:             fmt.Sprintf("%s-to-%s", source.ID, target.ID),
				Source:         source.ID,
				Target:         target.ID,
				ConnectionType: ConnectionNetwork,
			})
		}
	}
	return fc
}

// BuildContainerFlowchart builds the detail view for one container: the
// container itself plus every neighbor sharing a non-bridge network.
func BuildContainerFlowchart(c Container, all []Container) *Flowchart {
	fc := &Flowchart{
		ID:       c.Name,
		Name:     c.Name + " Detail",
		ParentID: string(c.Category) + overviewSuffix,
	}

	fc.Nodes = append(fc.Nodes, FlowchartNode{
		ID:          c.ID,
		Name:        c.Name,
		Description: "Image: " + c.Image,
		Status:      c.Status,
		NodeType:    NodeService,
		Category:    c.Category,
		Port:        firstHostPort(c),
		Stats:       c.Stats,
	})

	for _, other := range all {
		if other.ID == c.ID || !sharesNetwork(c, other) {
			continue
		}
		fc.Nodes = append(fc.Nodes, FlowchartNode{
			ID:             other.ID,
			Name:           other.Name,
			Description:    "Image: " + other.Image,
			Status:         other.Status,
			NodeType:       NodeService,
			Category:       other.Category,
			Port:           firstHostPort(other),
			ChildFlowchart: other.Name,
			Stats:          other.Stats,
		})

		ctype := ConnectionNetwork
		if inferred, ok := InferConnectionType(c.Name, other.Name); ok {
			ctype = inferred
		}
		fc.Connections = append(fc.Connections, Connection{
			ID:             fmt.Sprintf("%s-to-%s", c.ID, other.ID),
			Source:         c.ID,
			Target:         other.ID,
			ConnectionType: ctype,
		})
	}

	fc.Description = fmt.Sprintf(
		"Container %s and its %d connected services", c.Name, len(fc.Nodes)-1)
	return fc
}

// InferConnectionType guesses a connection type from service naming
// conventions. Returns false when no convention matches.
func InferConnectionType(source, target string) (ConnectionType, bool) {
	src := strings.ToLower(source)
	dst := strings.ToLower(target)

	if strings.Contains(src, "gateway") || strings.Contains(src, "router") {
		return ConnectionPrimary, true
	}
	if strings.Contains(dst, "postgres") || strings.Contains(dst, "redis") || strings.Contains(dst, "db") {
		return ConnectionData, true
	}
	if strings.Contains(dst, "rabbitmq") || strings.Contains(dst, "queue") {
		return ConnectionSecondary, true
	}

	srcPrefix, _, _ := strings.Cut(src, "-")
	dstPrefix, _, _ := strings.Cut(dst, "-")
	if srcPrefix != "" && srcPrefix == dstPrefix {
		return ConnectionControl, true
	}
	return "", false
}

// =============================================================================
// Helpers
// =============================================================================

// sharesNetwork reports whether a and b are attached to a common network
// other than the default bridge. Every container sits on bridge, so it
// carries no relationship signal.
func sharesNetwork(a, b Container) bool {
	for _, n := range a.Networks {
		if n == "bridge" {
			continue
		}
		for _, m := range b.Networks {
			if n == m {
				return true
			}
		}
	}
	return false
}

// firstHostPort returns the first published host port, or 0 when none.
func firstHostPort(c Container) uint16 {
	for _, p := range c.Ports {
		if p.HostPort != 0 {
			return p.HostPort
		}
	}
	return 0
}

// nameSuffixNumber extracts a trailing numeric suffix ("validator-3" → 3)
// for natural ordering of replica sets. Names without one sort as 0.
func nameSuffixNumber(name string) int {
	idx := strings.LastIndex(name, "-")
	if idx < 0 || idx == len(name)-1 {
		return 0
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
