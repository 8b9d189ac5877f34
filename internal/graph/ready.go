package graph

import "github.com/kingrea/lattice-tasks/internal/task"

// ComputeReadyNow returns the ids of tasks that can start right now: status
// todo and every dependency done. It looks at the full set, not the active
// graph, because readiness is about the start transition of one task.
//
// The result is sorted and never nil.
func ComputeReadyNow(set *task.Set) []string {
	ready := []string{}
	for _, t := range set.Tasks() {
		if t.Status != task.StatusTodo {
			continue
		}
		if len(Blockers(set, t.ID)) == 0 {
			ready = append(ready, t.ID)
		}
	}
	return ready
}

// Blockers returns the dependencies of id that are not done yet, in declared
// order without duplicates. Unknown ids have no blockers.
func Blockers(set *task.Set, id string) []string {
	t, ok := set.Get(id)
	if !ok {
		return nil
	}
	var blockers []string
	for _, dep := range t.UniqueDependencies() {
		if !set.StatusOf(dep).Completed() {
			blockers = append(blockers, dep)
		}
	}
	return blockers
}
