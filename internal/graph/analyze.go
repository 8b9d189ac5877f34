package graph

import "github.com/kingrea/lattice-tasks/internal/task"

// Analysis bundles everything a report needs about one task set.
type Analysis struct {
	Total     int
	Done      int
	Active    []string
	Ready     []string
	Batches   [][]string
	Remainder []string
	Graph     *ActiveGraph
}

// IntegrationOrder flattens the batches into one sequence.
func (a Analysis) IntegrationOrder() []string {
	return BatchResult{Batches: a.Batches}.IntegrationOrder()
}

// Analyze runs the graph builder, the batcher and the ready selector over set.
// When the active graph has a cycle the returned Analysis is still populated
// (including the partial batches and the remainder) and the error is a
// *CycleError.
func Analyze(set *task.Set) (Analysis, error) {
	g := BuildActiveGraph(set)
	result := ComputeBatches(g)
	analysis := Analysis{
		Total:     set.Len(),
		Done:      set.CountByStatus()[task.StatusDone],
		Active:    append([]string(nil), g.Active...),
		Ready:     ComputeReadyNow(set),
		Batches:   result.Batches,
		Remainder: result.Remainder,
		Graph:     g,
	}
	if !result.Acyclic() {
		return analysis, &CycleError{Remainder: append([]string(nil), result.Remainder...)}
	}
	return analysis, nil
}
