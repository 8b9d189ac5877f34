// Package task defines the validated, in-memory task records consumed by the
// dependency graph. Records arrive from a loader already decoded; this package
// only enforces the shape (ids, statuses, dependency references).
package task

import (
	"fmt"
	"sort"
	"strings"
)

// Status captures where a task sits in its lifecycle.
type Status string

const (
	// StatusTodo marks a task that has not been started.
	StatusTodo Status = "todo"
	// StatusInProgress marks a task somebody is working on.
	StatusInProgress Status = "in_progress"
	// StatusReview marks a task waiting on review.
	StatusReview Status = "review"
	// StatusDone marks a completed task. Done tasks always satisfy dependents.
	StatusDone Status = "done"
	// StatusBlocked marks a task that cannot move until something external changes.
	StatusBlocked Status = "blocked"
)

var allowedStatuses = map[Status]struct{}{
	StatusTodo:       {},
	StatusInProgress: {},
	StatusReview:     {},
	StatusDone:       {},
	StatusBlocked:    {},
}

// ParseStatus normalizes a raw status value. Matching is case-insensitive and
// ignores surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedStatuses[status]; !ok {
		return "", fmt.Errorf("invalid status %q (allowed: %s)", raw, strings.Join(AllowedStatuses(), ", "))
	}
	return status, nil
}

// AllowedStatuses returns the accepted status spellings in sorted order.
func AllowedStatuses() []string {
	out := make([]string, 0, len(allowedStatuses))
	for status := range allowedStatuses {
		out = append(out, string(status))
	}
	sort.Strings(out)
	return out
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := allowedStatuses[s]
	return ok
}

// Completed reports whether the status counts as satisfied for dependents.
func (s Status) Completed() bool {
	return s == StatusDone
}

// Record is the raw, loader-produced shape of one task before validation.
type Record struct {
	Source       string
	ID           string
	Status       string
	Dependencies []string
	Summary      string
	Branch       string
}

// Task is a validated task record.
type Task struct {
	ID           string
	Status       Status
	Dependencies []string
	Summary      string
	Branch       string
	Source       string
}

// Active reports whether the task still participates in the dependency graph.
func (t Task) Active() bool {
	return !t.Status.Completed()
}

// UniqueDependencies returns the dependency ids with duplicates removed,
// keeping first-seen order.
func (t Task) UniqueDependencies() []string {
	if len(t.Dependencies) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(t.Dependencies))
	out := make([]string, 0, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	clone := t
	if len(t.Dependencies) > 0 {
		clone.Dependencies = append([]string(nil), t.Dependencies...)
	}
	return clone
}
