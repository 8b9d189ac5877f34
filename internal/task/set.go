package task

import (
	"sort"
	"strings"
)

// Set is an immutable, validated collection of tasks keyed by id.
//
// It is safe for concurrent read access.
type Set struct {
	byID map[string]Task
	ids  []string
}

// ValidateAndIndex validates raw records and indexes them by id.
//
// Schema problems and duplicate ids abort on the first offending record.
// Unresolved dependency references are collected across the whole set and
// reported together.
func ValidateAndIndex(records []Record) (*Set, error) {
	byID := make(map[string]Task, len(records))
	for _, rec := range records {
		t, err := validateRecord(rec)
		if err != nil {
			return nil, err
		}
		if existing, ok := byID[t.ID]; ok {
			return nil, &DuplicateIDError{ID: t.ID, Sources: nonEmpty(existing.Source, t.Source)}
		}
		byID[t.ID] = t
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var unresolved []UnresolvedRef
	for _, id := range ids {
		for _, dep := range byID[id].Dependencies {
			if _, ok := byID[dep]; !ok {
				unresolved = append(unresolved, UnresolvedRef{TaskID: id, DependencyID: dep})
			}
		}
	}
	if len(unresolved) > 0 {
		return nil, &UnresolvedDependencyError{Refs: unresolved}
	}
	return &Set{byID: byID, ids: ids}, nil
}

func validateRecord(rec Record) (Task, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Task{}, schemaErrorf(rec.Source, "id", "is required")
	}
	if strings.TrimSpace(rec.Status) == "" {
		return Task{}, schemaErrorf(rec.Source, "status", "is required for %s", id)
	}
	status, err := ParseStatus(rec.Status)
	if err != nil {
		return Task{}, schemaErrorf(rec.Source, "status", "%v for %s", err, id)
	}
	var deps []string
	for i, dep := range rec.Dependencies {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			return Task{}, schemaErrorf(rec.Source, "deps", "entry %d of %s is empty", i, id)
		}
		deps = append(deps, dep)
	}
	return Task{
		ID:           id,
		Status:       status,
		Dependencies: deps,
		Summary:      strings.TrimSpace(rec.Summary),
		Branch:       strings.TrimSpace(rec.Branch),
		Source:       rec.Source,
	}, nil
}

// Len returns the number of tasks in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns every task id in lexicographic order.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

// Get returns a copy of the task with the given id.
func (s *Set) Get(id string) (Task, bool) {
	if s == nil {
		return Task{}, false
	}
	t, ok := s.byID[id]
	if !ok {
		return Task{}, false
	}
	return t.Clone(), true
}

// Has reports whether the id exists in the set.
func (s *Set) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byID[id]
	return ok
}

// Tasks returns copies of every task in id order.
func (s *Set) Tasks() []Task {
	if s == nil {
		return nil
	}
	out := make([]Task, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// StatusOf returns the status for id, or "" when the id is unknown.
func (s *Set) StatusOf(id string) Status {
	if s == nil {
		return ""
	}
	return s.byID[id].Status
}

// CountByStatus tallies tasks per status.
func (s *Set) CountByStatus() map[Status]int {
	counts := make(map[Status]int, len(allowedStatuses))
	if s == nil {
		return counts
	}
	for _, t := range s.byID {
		counts[t.Status]++
	}
	return counts
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
