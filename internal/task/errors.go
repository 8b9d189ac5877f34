package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is wrapped by SchemaError.
	ErrSchema = errors.New("invalid task record")
	// ErrDuplicateID is wrapped by DuplicateIDError.
	ErrDuplicateID = errors.New("duplicate task id")
	// ErrUnresolvedDependency is wrapped by UnresolvedDependencyError.
	ErrUnresolvedDependency = errors.New("invalid dependencies")
)

// SchemaError reports a record that fails structural validation. Err, when
// set, is the underlying decode failure and is reachable through errors.Is.
type SchemaError struct {
	Source string
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field '%s' ", e.Field)
	}
	switch {
	case e.Reason != "":
		b.WriteString(e.Reason)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(ErrSchema.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchema}
	}
	return []error{ErrSchema, e.Err}
}

// DuplicateIDError reports two or more records sharing an id.
type DuplicateIDError struct {
	ID      string
	Sources []string
}

func (e *DuplicateIDError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Sources) == 0 {
		return fmt.Sprintf("duplicate task id: %s", e.ID)
	}
	return fmt.Sprintf("duplicate task id: %s (%s)", e.ID, strings.Join(e.Sources, ", "))
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// UnresolvedRef is one dependency pointing at an id that does not exist.
type UnresolvedRef struct {
	TaskID       string
	DependencyID string
}

func (r UnresolvedRef) String() string {
	return fmt.Sprintf("%s depends on unknown task %s", r.TaskID, r.DependencyID)
}

// UnresolvedDependencyError lists every unresolved dependency found in a set.
type UnresolvedDependencyError struct {
	Refs []UnresolvedRef
}

func (e *UnresolvedDependencyError) Error() string {
	if e == nil {
		return ""
	}
	lines := make([]string, 0, len(e.Refs)+1)
	lines = append(lines, "invalid dependencies:")
	for _, ref := range e.Refs {
		lines = append(lines, ref.String())
	}
	return strings.Join(lines, "\n")
}

func (e *UnresolvedDependencyError) Unwrap() error { return ErrUnresolvedDependency }

func schemaErrorf(source, field, format string, args ...any) *SchemaError {
	return &SchemaError{Source: source, Field: field, Reason: fmt.Sprintf(format, args...)}
}
