package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	fserrors "github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/layout"
)

// layoutGraph is the JSON document the layout command consumes.
type layoutGraph struct {
	Nodes []layout.Node `json:"nodes"`
	Edges []layout.Edge `json:"edges"`
}

// newLayoutCmd creates the layout command, which positions a graph read
// from a file (or stdin) without needing a running daemon.
func newLayoutCmd() *cobra.Command {
	var (
		algorithm string
		spacingX  float64
		spacingY  float64
		columns   int
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a graph",
		Long: `Compute node positions for a graph described as JSON:

  {"nodes": [{"id": "a"}, {"id": "b"}], "edges": [{"source": "a", "target": "b"}]}

Reads from stdin when no file is given. Positions are written to stdout
as a JSON object keyed by node id.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			var graph layoutGraph
			if err := json.Unmarshal(data, &graph); err != nil {
				return fserrors.Wrap(fserrors.ErrCodeInvalidInput, err, "parsing graph")
			}

			params := layout.DefaultParams()
			if columns > 0 {
				params.Grid.Columns = columns
			}
			if spacingX > 0 {
				params.Grid.GapX = spacingX
				params.Hierarchical.NodeSpacing = spacingX
			}
			if spacingY > 0 {
				params.Grid.GapY = spacingY
				params.Hierarchical.LevelHeight = spacingY
			}

			positions, err := layout.Compute(algorithm, graph.Nodes, graph.Edges, params)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(positions)
		},
	}

	algorithms := make([]string, 0, len(layout.ValidAlgorithms))
	for a := range layout.ValidAlgorithms {
		algorithms = append(algorithms, a)
	}
	sort.Strings(algorithms)

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", layout.AlgorithmHierarchical,
		fmt.Sprintf("layout algorithm (%s)", strings.Join(algorithms, ", ")))
	cmd.Flags().IntVar(&columns, "columns", 0, "grid columns (grid algorithm)")
	cmd.Flags().Float64Var(&spacingX, "spacing-x", 0, "horizontal spacing override")
	cmd.Flags().Float64Var(&spacingY, "spacing-y", 0, "vertical spacing override")
	return cmd
}
