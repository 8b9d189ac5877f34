package graph

import "sort"

// BatchResult is the outcome of batching an active graph.
type BatchResult struct {
	// Batches holds the waves in order; ids inside a batch are sorted.
	Batches [][]string
	// Remainder lists the active ids that could not be batched because of a
	// cycle, sorted. It is empty for an acyclic graph.
	Remainder []string
}

// Acyclic reports whether every active id was placed in a batch.
func (r BatchResult) Acyclic() bool {
	return len(r.Remainder) == 0
}

// IntegrationOrder flattens the batches into one sequence.
func (r BatchResult) IntegrationOrder() []string {
	var out []string
	for _, batch := range r.Batches {
		out = append(out, batch...)
	}
	return out
}

// BatchIndex maps each batched id to its 0-based batch index.
func (r BatchResult) BatchIndex() map[string]int {
	index := make(map[string]int)
	for i, batch := range r.Batches {
		for _, id := range batch {
			index[id] = i
		}
	}
	return index
}

// ComputeBatches partitions the active graph into dependency-respecting waves
// with a batched Kahn's algorithm. Every wave is sorted lexicographically, so
// the output is a pure function of the graph.
//
// The graph itself is not modified; in-degrees are tracked on a private copy.
func ComputeBatches(g *ActiveGraph) BatchResult {
	if g.Len() == 0 {
		return BatchResult{}
	}
	indeg := make(map[string]int, len(g.Incoming))
	for id, n := range g.Incoming {
		indeg[id] = n
	}

	var frontier []string
	for _, id := range g.Active {
		if indeg[id] == 0 {
			frontier = append(frontier, id)
		}
	}

	processed := make(map[string]struct{}, len(g.Active))
	var batches [][]string
	for len(frontier) > 0 {
		sort.Strings(frontier)
		batch := frontier
		batches = append(batches, batch)

		var next []string
		for _, id := range batch {
			processed[id] = struct{}{}
			for _, target := range g.Outgoing[id] {
				indeg[target]--
				if indeg[target] == 0 {
					next = append(next, target)
				}
			}
		}
		frontier = next
	}

	if len(processed) == len(g.Active) {
		return BatchResult{Batches: batches}
	}
	remainder := make([]string, 0, len(g.Active)-len(processed))
	for _, id := range g.Active {
		if _, ok := processed[id]; !ok {
			remainder = append(remainder, id)
		}
	}
	return BatchResult{Batches: batches, Remainder: remainder}
}
