package graph

import (
	"sort"

	"github.com/kingrea/lattice-tasks/internal/task"
)

// ActiveGraph is the dependency graph restricted to tasks that are not done.
// Edges point from a dependency to its dependent.
type ActiveGraph struct {
	// Outgoing maps a task id to the active tasks that depend on it, sorted.
	Outgoing map[string][]string
	// Incoming counts retained incoming edges per active id.
	Incoming map[string]int
	// Active lists every active id in lexicographic order.
	Active []string
}

// BuildActiveGraph constructs the active graph for a validated set.
func BuildActiveGraph(set *task.Set) *ActiveGraph {
	g := &ActiveGraph{
		Outgoing: map[string][]string{},
		Incoming: map[string]int{},
	}
	tasks := set.Tasks()
	activeSet := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if !t.Active() {
			continue
		}
		g.Active = append(g.Active, t.ID)
		activeSet[t.ID] = struct{}{}
		g.Incoming[t.ID] = 0
	}
	sort.Strings(g.Active)

	for _, t := range tasks {
		if !t.Active() {
			continue
		}
		for _, dep := range t.UniqueDependencies() {
			if completedDependencySatisfied(activeSet, dep) {
				continue
			}
			g.Outgoing[dep] = append(g.Outgoing[dep], t.ID)
			g.Incoming[t.ID]++
		}
	}
	for id, targets := range g.Outgoing {
		if len(targets) > 1 {
			sort.Strings(targets)
		}
		g.Outgoing[id] = targets
	}
	return g
}

// completedDependencySatisfied applies the rule that a dependency on a task
// outside the active set (a done task) is already satisfied. Such edges are
// dropped: done tasks are sinks removed from the graph, and their own
// dependency history is never re-checked.
func completedDependencySatisfied(active map[string]struct{}, dep string) bool {
	_, ok := active[dep]
	return !ok
}

// Len returns the number of active tasks.
func (g *ActiveGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Active)
}

// Edges returns every retained edge as (dependency, dependent) pairs ordered
// by dependency then dependent.
func (g *ActiveGraph) Edges() [][2]string {
	if g == nil {
		return nil
	}
	var edges [][2]string
	for _, from := range g.Active {
		for _, to := range g.Outgoing[from] {
			edges = append(edges, [2]string{from, to})
		}
	}
	return edges
}
