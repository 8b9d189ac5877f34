package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/lattice-tasks/internal/graph"
	"github.com/kingrea/lattice-tasks/internal/task"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	batchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// RenderReadySummary lists the ready tasks for the terminal.
func RenderReadySummary(set *task.Set, analysis graph.Analysis) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Ready now (%d)", len(analysis.Ready)))}
	if len(analysis.Ready) == 0 {
		lines = append(lines, mutedStyle.Render("  none"))
	}
	for _, id := range analysis.Ready {
		t, _ := set.Get(id)
		line := "  " + readyStyle.Render(id)
		if t.Summary != "" {
			line += " " + detailStyle.Render(t.Summary)
		}
		lines = append(lines, line)
	}
	lines = append(lines, snapshotLine(analysis))
	return strings.Join(lines, "\n")
}

// RenderBatchSummary lists the parallel batches for the terminal. Tasks left
// over by a cycle are listed last.
func RenderBatchSummary(analysis graph.Analysis) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Parallel batches (%d)", len(analysis.Batches)))}
	if len(analysis.Batches) == 0 {
		lines = append(lines, mutedStyle.Render("  none"))
	}
	for i, batch := range analysis.Batches {
		lines = append(lines, fmt.Sprintf("  %s %s", batchStyle.Render(fmt.Sprintf("B%d", i+1)), strings.Join(batch, ", ")))
	}
	if len(analysis.Remainder) > 0 {
		lines = append(lines, fmt.Sprintf("  %s %s", blockedStyle.Render("cycle"), strings.Join(analysis.Remainder, ", ")))
	}
	lines = append(lines, snapshotLine(analysis))
	return strings.Join(lines, "\n")
}

func snapshotLine(analysis graph.Analysis) string {
	return mutedStyle.Render(fmt.Sprintf("total %d · done %d · active %d",
		analysis.Total, analysis.Done, len(analysis.Active)))
}
