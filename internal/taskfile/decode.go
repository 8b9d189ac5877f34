package taskfile

import (
	"fmt"
	"strings"

	"github.com/kingrea/lattice-tasks/internal/task"
)

// Frontmatter keys understood in task.md.
const (
	KeyID      = "id"
	KeySummary = "summary"
	KeyStatus  = "status"
	KeyDeps    = "deps"
	KeyBranch  = "branch"
)

// ParseTask parses one task.md document into a record plus its markdown body.
func ParseTask(source string, content []byte) (task.Record, []byte, error) {
	fields, body, err := ParseFrontMatter(content)
	if err != nil {
		return task.Record{}, nil, &task.SchemaError{Source: source, Err: err}
	}
	rec, err := DecodeRecord(source, fields)
	if err != nil {
		return task.Record{}, nil, err
	}
	return rec, body, nil
}

// DecodeRecord validates decoded frontmatter and converts it to a record.
// Strings are trimmed, the status is lower-cased and deps accept either a
// YAML list or a comma-separated string ("-" meaning none).
func DecodeRecord(source string, fields map[string]any) (task.Record, error) {
	if err := ValidateFields(source, fields); err != nil {
		return task.Record{}, err
	}
	id, err := requiredString(source, fields, KeyID)
	if err != nil {
		return task.Record{}, err
	}
	status, err := requiredString(source, fields, KeyStatus)
	if err != nil {
		return task.Record{}, err
	}
	deps, err := normalizeDeps(source, id, fields[KeyDeps])
	if err != nil {
		return task.Record{}, err
	}
	return task.Record{
		Source:       source,
		ID:           id,
		Status:       strings.ToLower(status),
		Dependencies: deps,
		Summary:      optionalString(fields, KeySummary),
		Branch:       optionalString(fields, KeyBranch),
	}, nil
}

// ParseDependencyList splits a comma-separated dependency string. Empty items
// are dropped and a lone "-" means no dependencies.
func ParseDependencyList(raw string) []string {
	value := strings.TrimSpace(raw)
	if value == "" || value == "-" {
		return nil
	}
	var deps []string
	for _, item := range strings.Split(value, ",") {
		dep := strings.TrimSpace(item)
		if dep == "" {
			continue
		}
		deps = append(deps, dep)
	}
	return deps
}

func normalizeDeps(source, id string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseDependencyList(v), nil
	case []any:
		var deps []string
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &task.SchemaError{
					Source: source,
					Field:  fmt.Sprintf("%s[%d]", KeyDeps, i),
					Reason: fmt.Sprintf("invalid deps for %s; deps items must be strings", id),
				}
			}
			dep := strings.TrimSpace(s)
			if dep != "" && dep != "-" {
				deps = append(deps, dep)
			}
		}
		return deps, nil
	default:
		return nil, &task.SchemaError{
			Source: source,
			Field:  KeyDeps,
			Reason: fmt.Sprintf("invalid deps for %s; expected list or comma-separated string", id),
		}
	}
}

func requiredString(source string, fields map[string]any, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return "", &task.SchemaError{Source: source, Field: key, Reason: "is required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &task.SchemaError{Source: source, Field: key, Reason: "must be a string"}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &task.SchemaError{Source: source, Field: key, Reason: "is empty"}
	}
	return s, nil
}

func optionalString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}
