package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/valhq/flowscope/pkg/discovery"
	"github.com/valhq/flowscope/pkg/topology"
)

// newTopologyCmd creates the topology command, which prints a one-shot
// snapshot of the container landscape.
func newTopologyCmd() *cobra.Command {
	var (
		host     string
		asJSON   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Print a snapshot of the container topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			spinner := newSpinner(ctx, "Discovering containers")
			spinner.Start()
			api, err := discovery.NewDockerAPI(ctx, host)
			if err != nil {
				spinner.Stop()
				return err
			}
			source := discovery.NewClient(api)
			defer source.Close()

			containers, err := source.ListContainers(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			if category != "" {
				cat, ok := topology.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				filtered := containers[:0]
				for _, c := range containers {
					if c.Category == cat {
						filtered = append(filtered, c)
					}
				}
				containers = filtered
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(topology.BuildTopology(containers))
			}

			printTopology(containers)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "docker daemon address (defaults to environment)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the topology as JSON")
	cmd.Flags().StringVar(&category, "category", "", "only show one category")
	return cmd
}

func printTopology(containers []topology.Container) {
	topo := topology.BuildTopology(containers)

	fmt.Println(StyleTitle.Render("FlowScope Topology"))
	fmt.Println()
	printKeyValue("containers", fmt.Sprintf("%d total, %d running", topo.TotalContainers, topo.RunningContainers))
	printKeyValue("health", fmt.Sprintf("%d healthy, %d unhealthy", topo.HealthyContainers, topo.UnhealthyContainers))
	fmt.Println()

	byCategory := make(map[topology.Category][]topology.Container)
	for _, c := range containers {
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	cats := make([]topology.Category, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	for _, cat := range cats {
		fmt.Println(StyleNumber.Render(cat.DisplayName()) + StyleDim.Render(fmt.Sprintf(" (%d)", len(byCategory[cat]))))
		for _, c := range byCategory[cat] {
			status := statusStyle(c.Status).Render(string(c.Status))
			fmt.Printf("  %s %-40s %s\n", StyleDim.Render(iconArrow), StyleValue.Render(c.Name), status)
		}
		fmt.Println()
	}
}
