package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/valhq/flowscope/pkg/discovery"
	"github.com/valhq/flowscope/pkg/topology"
)

// topRefreshInterval is how often the dashboard polls the daemon.
const topRefreshInterval = 2 * time.Second

// List styles
var (
	topHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	topDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// newTopCmd creates the top command, a live container dashboard.
func newTopCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live dashboard of containers and resource usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			api, err := discovery.NewDockerAPI(ctx, host)
			if err != nil {
				return err
			}
			source := discovery.NewClient(api)
			defer source.Close()

			model := newTopModel(ctx, source)
			p := tea.NewProgram(model, tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "docker daemon address (defaults to environment)")
	return cmd
}

// =============================================================================
// TopModel - Live container dashboard
// =============================================================================

// topRow is one rendered dashboard line.
type topRow struct {
	Container topology.Container
	Stats     *topology.Stats
}

type topTickMsg time.Time

type topSnapshotMsg struct {
	Rows []topRow
	Err  error
}

// TopModel is the bubbletea model for the live dashboard.
type TopModel struct {
	ctx    context.Context
	source *discovery.Client

	Rows    []topRow
	Err     error
	Loading bool
	Height  int
}

func newTopModel(ctx context.Context, source *discovery.Client) TopModel {
	return TopModel{
		ctx:     ctx,
		source:  source,
		Loading: true,
		Height:  20,
	}
}

func (m TopModel) Init() tea.Cmd {
	return m.refresh()
}

func (m TopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	case topSnapshotMsg:
		m.Loading = false
		m.Rows = msg.Rows
		m.Err = msg.Err
		return m, tea.Tick(topRefreshInterval, func(t time.Time) tea.Msg {
			return topTickMsg(t)
		})
	case topTickMsg:
		return m, m.refresh()
	}
	return m, nil
}

// refresh polls the daemon for the container list with stats attached.
func (m TopModel) refresh() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		containers, err := source.ListContainersWithStats(ctx)
		if err != nil {
			return topSnapshotMsg{Err: err}
		}

		rows := make([]topRow, len(containers))
		for i, c := range containers {
			rows[i] = topRow{Container: c, Stats: c.Stats}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			iUp, jUp := rows[i].Container.Status.IsUp(), rows[j].Container.Status.IsUp()
			if iUp != jUp {
				return iUp
			}
			return rows[i].Container.Name < rows[j].Container.Name
		})
		return topSnapshotMsg{Rows: rows}
	}
}

func (m TopModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("FlowScope Top"))
	b.WriteString("\n")
	b.WriteString(topDimStyle.Render("r refresh  q quit"))
	b.WriteString("\n\n")

	if m.Loading {
		b.WriteString(topDimStyle.Render("Loading containers..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.Err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(colorRed).Render(fmt.Sprintf("%s %v", iconError, m.Err)))
		b.WriteString("\n")
		return b.String()
	}

	end := len(m.Rows)
	if end > m.Height {
		end = m.Height
	}

	rows := [][]string{}
	for _, r := range m.Rows[:end] {
		c := r.Container
		cpu, mem, pids := "-", "-", "-"
		if r.Stats != nil {
			cpu = fmt.Sprintf("%.1f%%", r.Stats.CPUPercent)
			mem = fmt.Sprintf("%.0f/%.0f MB", r.Stats.MemoryUsageMB, r.Stats.MemoryLimitMB)
			pids = fmt.Sprintf("%d", r.Stats.PIDs)
		}
		rows = append(rows, []string{
			c.Name,
			statusStyle(c.Status).Render(string(c.Status)),
			c.Category.DisplayName(),
			cpu,
			mem,
			pids,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("NAME", "STATUS", "CATEGORY", "CPU", "MEMORY", "PIDS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return topHeaderStyle
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(m.Rows) > end {
		b.WriteString(topDimStyle.Render(fmt.Sprintf("... %d more", len(m.Rows)-end)))
		b.WriteString("\n")
	}
	return b.String()
}
