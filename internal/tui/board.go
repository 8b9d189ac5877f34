package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/lattice-tasks/internal/graph"
	"github.com/kingrea/lattice-tasks/internal/logging"
	"github.com/kingrea/lattice-tasks/internal/task"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Padding(0, 1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444"))
)

// Loader produces the current task set. The board calls it on start and on
// every reload.
type Loader func(ctx context.Context) (*task.Set, error)

type boardTab int

const (
	tabReady boardTab = iota
	tabBatches
	tabAll
	tabCount
)

var tabTitles = [tabCount]string{"Ready", "Batches", "All Tasks"}

type boardLoadedMsg struct {
	set      *task.Set
	analysis graph.Analysis
	err      error
}

// Board is a read-only bubbletea view over one task set.
type Board struct {
	ctx      context.Context
	load     Loader
	logger   *logging.Logger
	set      *task.Set
	analysis graph.Analysis
	err      error
	tab      boardTab
	table    table.Model
	status   string
	width    int
	height   int
}

// NewBoard returns a board that loads tasks through load.
func NewBoard(ctx context.Context, load Loader, logger *logging.Logger) *Board {
	t := table.New(table.WithFocused(true), table.WithHeight(12))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A4A6B"))
	t.SetStyles(styles)
	return &Board{
		ctx:    ctx,
		load:   load,
		logger: logger,
		table:  t,
		status: "Loading tasks...",
	}
}

func (b *Board) Init() tea.Cmd {
	return b.reload()
}

func (b *Board) reload() tea.Cmd {
	return func() tea.Msg {
		set, err := b.load(b.ctx)
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		analysis, err := graph.Analyze(set)
		return boardLoadedMsg{set: set, analysis: analysis, err: err}
	}
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = m.Width, m.Height
		b.table.SetHeight(max(5, m.Height-8))
		return b, nil
	case boardLoadedMsg:
		b.applyLoad(m)
		return b, nil
	case tea.KeyMsg:
		switch m.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "tab":
			b.tab = (b.tab + 1) % tabCount
			b.refreshTable()
			return b, nil
		case "shift+tab":
			b.tab = (b.tab + tabCount - 1) % tabCount
			b.refreshTable()
			return b, nil
		case "r":
			b.status = "Reloading..."
			return b, b.reload()
		}
	}
	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

func (b *Board) applyLoad(m boardLoadedMsg) {
	b.err = m.err
	var cycle *graph.CycleError
	switch {
	case m.err == nil:
		b.set, b.analysis = m.set, m.analysis
		b.status = fmt.Sprintf("%d tasks · %d done · %d ready", m.analysis.Total, m.analysis.Done, len(m.analysis.Ready))
		b.logger.Debug("board loaded", "total", m.analysis.Total, "ready", len(m.analysis.Ready))
	case errors.As(m.err, &cycle):
		// The analysis is still usable: batches stop at the cycle.
		b.set, b.analysis = m.set, m.analysis
		b.status = ""
		b.logger.Warn("board loaded with cycle", "remainder", strings.Join(cycle.Remainder, ","))
	default:
		b.set, b.analysis = nil, graph.Analysis{}
		b.status = ""
		b.logger.Error("board load failed", "err", m.err)
	}
	b.refreshTable()
}

func (b *Board) refreshTable() {
	columns, rows := b.tableData()
	b.table.SetRows(nil)
	b.table.SetColumns(columns)
	b.table.SetRows(rows)
	b.table.SetCursor(0)
}

func (b *Board) tableData() ([]table.Column, []table.Row) {
	switch b.tab {
	case tabReady:
		columns := []table.Column{{Title: "ID", Width: 10}, {Title: "Summary", Width: 40}, {Title: "Depends On", Width: 20}, {Title: "Branch", Width: 24}}
		var rows []table.Row
		for _, id := range b.analysis.Ready {
			t, _ := b.set.Get(id)
			rows = append(rows, table.Row{id, dash(t.Summary), joinOrDash(t.UniqueDependencies()), dash(t.Branch)})
		}
		return columns, rows
	case tabBatches:
		columns := []table.Column{{Title: "Batch", Width: 8}, {Title: "ID", Width: 10}, {Title: "Status", Width: 12}, {Title: "Summary", Width: 40}}
		var rows []table.Row
		for i, batch := range b.analysis.Batches {
			for _, id := range batch {
				t, _ := b.set.Get(id)
				rows = append(rows, table.Row{fmt.Sprintf("B%d", i+1), id, string(t.Status), dash(t.Summary)})
			}
		}
		for _, id := range b.analysis.Remainder {
			t, _ := b.set.Get(id)
			rows = append(rows, table.Row{"cycle", id, string(t.Status), dash(t.Summary)})
		}
		return columns, rows
	default:
		columns := []table.Column{{Title: "ID", Width: 10}, {Title: "Status", Width: 12}, {Title: "Summary", Width: 36}, {Title: "Depends On", Width: 18}, {Title: "Blocked By", Width: 18}}
		var rows []table.Row
		for _, t := range b.set.Tasks() {
			rows = append(rows, table.Row{t.ID, string(t.Status), dash(t.Summary), joinOrDash(t.UniqueDependencies()), joinOrDash(graph.Blockers(b.set, t.ID))})
		}
		return columns, rows
	}
}

func (b *Board) View() string {
	tabs := make([]string, 0, tabCount)
	for i, title := range tabTitles {
		if boardTab(i) == b.tab {
			tabs = append(tabs, activeTabStyle.Render("["+title+"]"))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("lattice-tasks"), "  ", lipgloss.JoinHorizontal(lipgloss.Top, tabs...))

	var body string
	if len(b.table.Rows()) == 0 {
		body = statusStyle.Render("nothing to show")
	} else {
		body = b.table.View()
	}

	status := statusStyle.Render(b.status)
	if b.err != nil {
		status = errorStyle.Render("[error] " + b.err.Error())
	}
	help := helpStyle.Render("tab/shift+tab switch · ↑/↓ move · r reload · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, boxStyle.Render(body), status, help)
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
