// Package report renders task sets as markdown documents (task-index.md,
// dag.md, ready-now.md) and as styled terminal summaries.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/lattice-tasks/internal/graph"
	"github.com/kingrea/lattice-tasks/internal/task"
)

const (
	placeholder = "-"
	readyNote   = "status=todo and all dependencies are done"
)

// RenderIndex renders task-index.md: the ready tasks followed by every task
// in id order.
func RenderIndex(set *task.Set, ready []string) string {
	lines := []string{
		"# Task Index",
		"",
		"## Ready Tasks",
		"",
		readyNote,
		"",
	}
	lines = append(lines, readyTable(set, ready)...)

	lines = append(lines, "", "## All Tasks", "")
	lines = append(lines, "| Task ID | Summary | Status | Depends On | Branch |", "|---|---|---|---|---|")
	for _, t := range set.Tasks() {
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s |",
			t.ID, orPlaceholder(t.Summary), t.Status, dependsOn(t), orPlaceholder(t.Branch)))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// RenderReady renders ready-now.md, the ready section on its own.
func RenderReady(set *task.Set, ready []string) string {
	lines := []string{"# Ready Now Tasks", "", readyNote, ""}
	lines = append(lines, readyTable(set, ready)...)
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// RenderDAG renders dag.md: a snapshot, a mermaid graph of the active tasks,
// the parallel batches and the flattened integration order.
func RenderDAG(set *task.Set, analysis graph.Analysis) string {
	lines := []string{"# Dependency DAG", "", "## Snapshot", ""}
	lines = append(lines,
		fmt.Sprintf("- Total: %d", analysis.Total),
		fmt.Sprintf("- Done: %d", analysis.Done),
		fmt.Sprintf("- Active: %d", len(analysis.Active)),
	)
	lines = append(lines, "", "## Mermaid (Active Tasks Only)", "", "```mermaid", "graph TD")
	lines = append(lines, mermaidEdges(set, analysis.Active)...)

	lines = append(lines, "```", "", "## Parallel Batches (Active Tasks)", "")
	if len(analysis.Batches) == 0 {
		lines = append(lines, "- none")
	} else {
		for i, batch := range analysis.Batches {
			lines = append(lines, fmt.Sprintf("- B%d: %s", i+1, strings.Join(batch, ", ")))
		}
	}

	lines = append(lines, "", "## Integration Order (Active Tasks)", "")
	if len(analysis.Batches) == 0 {
		lines = append(lines, "none")
	} else {
		lines = append(lines, strings.Join(analysis.IntegrationOrder(), ", "))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

func readyTable(set *task.Set, ready []string) []string {
	lines := []string{"| Task ID | Summary | Depends On |", "|---|---|---|"}
	if len(ready) == 0 {
		return append(lines, "| - | none | - |")
	}
	for _, id := range ready {
		t, _ := set.Get(id)
		lines = append(lines, fmt.Sprintf("| %s | %s | %s |", id, orPlaceholder(t.Summary), dependsOn(t)))
	}
	return lines
}

func mermaidEdges(set *task.Set, active []string) []string {
	if len(active) == 0 {
		return []string{"  DONE[All tasks are done]"}
	}
	activeSet := make(map[string]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
	}
	var lines []string
	for _, id := range active {
		t, _ := set.Get(id)
		var deps []string
		for _, dep := range t.UniqueDependencies() {
			if _, ok := activeSet[dep]; ok {
				deps = append(deps, dep)
			}
		}
		if len(deps) == 0 {
			lines = append(lines, "  "+id)
			continue
		}
		for _, dep := range deps {
			lines = append(lines, fmt.Sprintf("  %s --> %s", dep, id))
		}
	}
	return lines
}

// dependsOn renders the dependencies as declared in task.md. The mermaid
// edges are de-duplicated, this column is not.
func dependsOn(t task.Task) string {
	if len(t.Dependencies) == 0 {
		return placeholder
	}
	return strings.Join(t.Dependencies, ", ")
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
