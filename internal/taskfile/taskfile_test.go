package taskfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/lattice-tasks/internal/task"
)

func writeTask(t *testing.T, tasksDir, dir, content string) string {
	t.Helper()
	path := filepath.Join(tasksDir, dir, TaskFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFrontMatter(t *testing.T) {
	fields, body, err := ParseFrontMatter([]byte("---\r\nid: T01\r\nstatus: todo\r\n---\r\n# Body\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "T01", fields["id"])
	assert.Equal(t, "todo", fields["status"])
	assert.Equal(t, "# Body\n", string(body))
}

func TestParseFrontMatterErrors(t *testing.T) {
	_, _, err := ParseFrontMatter([]byte("# no fence\n"))
	assert.ErrorIs(t, err, ErrMissingFrontMatter)

	_, _, err = ParseFrontMatter([]byte("---\nid: T01\n"))
	assert.ErrorIs(t, err, ErrMalformedFrontMatter)

	_, _, err = ParseFrontMatter([]byte("---\n- a\n- b\n---\n"))
	assert.ErrorIs(t, err, ErrMalformedFrontMatter)

	_, _, err = ParseFrontMatter([]byte("---\n---\n"))
	assert.ErrorIs(t, err, ErrMalformedFrontMatter)
}

func TestWriteFrontMatterRoundTrip(t *testing.T) {
	meta := struct {
		ID     string   `yaml:"id"`
		Status string   `yaml:"status"`
		Deps   []string `yaml:"deps"`
	}{ID: "T02", Status: "todo", Deps: []string{"T01"}}
	out, err := WriteFrontMatter(meta, []byte("# T02\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "---\nid: T02\nstatus: todo\n"))

	rec, body, err := ParseTask("mem", out)
	require.NoError(t, err)
	assert.Equal(t, "T02", rec.ID)
	assert.Equal(t, []string{"T01"}, rec.Dependencies)
	assert.Equal(t, "\n# T02\n", string(body))
}

func TestDecodeRecordNormalizesFields(t *testing.T) {
	rec, err := DecodeRecord("a/task.md", map[string]any{
		"id":      "  T03 ",
		"status":  "In_Progress",
		"deps":    []any{" T01 ", "", "-", "T02"},
		"summary": " Ship it ",
		"branch":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, task.Record{
		Source:       "a/task.md",
		ID:           "T03",
		Status:       "in_progress",
		Dependencies: []string{"T01", "T02"},
		Summary:      "Ship it",
	}, rec)
}

func TestDecodeRecordCommaSeparatedDeps(t *testing.T) {
	tests := []struct {
		name string
		deps any
		want []string
	}{
		{name: "list string", deps: "T01, T02 ,,T03", want: []string{"T01", "T02", "T03"}},
		{name: "dash", deps: "-", want: nil},
		{name: "blank", deps: "  ", want: nil},
		{name: "absent", deps: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord("x", map[string]any{"id": "T9", "status": "todo", "deps": tt.deps})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Dependencies)
		})
	}
}

func TestDecodeRecordSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		field  string
	}{
		{name: "missing id", fields: map[string]any{"status": "todo"}},
		{name: "numeric id", fields: map[string]any{"id": 7, "status": "todo"}, field: "id"},
		{name: "empty id", fields: map[string]any{"id": "   ", "status": "todo"}, field: "id"},
		{name: "empty status", fields: map[string]any{"id": "T1", "status": ""}, field: "status"},
		{name: "deps mapping", fields: map[string]any{"id": "T1", "status": "todo", "deps": map[string]any{"a": 1}}, field: "deps"},
		{name: "deps item number", fields: map[string]any{"id": "T1", "status": "todo", "deps": []any{"T0", 3}}, field: "deps[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord("bad/task.md", tt.fields)
			require.Error(t, err)
			assert.ErrorIs(t, err, task.ErrSchema)
			var se *task.SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "bad/task.md", se.Source)
			if tt.field != "" {
				assert.Equal(t, tt.field, se.Field)
			}
		})
	}
}

func TestParseDependencyList(t *testing.T) {
	assert.Nil(t, ParseDependencyList(""))
	assert.Nil(t, ParseDependencyList(" - "))
	assert.Equal(t, []string{"A", "B"}, ParseDependencyList("A,,B, "))
}

func TestLoadRecordsSortedByDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "T02-second", "---\nid: T02\nstatus: todo\ndeps: [T01]\n---\n")
	writeTask(t, dir, "T01-first", "---\nid: T01\nstatus: done\n---\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignore"), 0o644))

	records, err := LoadRecords(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "T01", records[0].ID)
	assert.Equal(t, "T02", records[1].ID)
	assert.Equal(t, filepath.Join(dir, "T02-second", TaskFileName), records[1].Source)
}

func TestLoadBuildsSet(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "a", "---\nid: T01\nstatus: DONE\n---\n")
	writeTask(t, dir, "b", "---\nid: T02\nstatus: todo\ndeps: T01\n---\n")

	set, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"T01", "T02"}, set.IDs())
	assert.Equal(t, task.StatusDone, set.StatusOf("T01"))
}

func TestLoadPropagatesValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "a", "---\nid: T01\nstatus: todo\n---\n")
	writeTask(t, dir, "b", "---\nid: T01\nstatus: todo\n---\n")
	_, err := Load(context.Background(), dir)
	assert.ErrorIs(t, err, task.ErrDuplicateID)

	dir = t.TempDir()
	writeTask(t, dir, "a", "---\nid: T01\nstatus: todo\ndeps: [T99]\n---\n")
	_, err = Load(context.Background(), dir)
	assert.ErrorIs(t, err, task.ErrUnresolvedDependency)

	dir = t.TempDir()
	writeTask(t, dir, "a", "# no frontmatter\n")
	_, err = Load(context.Background(), dir)
	assert.ErrorIs(t, err, task.ErrSchema)
	assert.ErrorIs(t, err, ErrMissingFrontMatter)
}

func TestLoadRecordsMissingOrEmptyDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := LoadRecords(context.Background(), missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasks directory not found: "+missing)

	empty := t.TempDir()
	_, err = LoadRecords(context.Background(), empty)
	assert.ErrorIs(t, err, ErrNoTasks)
	assert.Contains(t, err.Error(), "(expected */task.md)")
}

func TestLoadRecordsHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeTask(t, dir, "a", "---\nid: T01\nstatus: todo\n---\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadRecords(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExistingIDs(t *testing.T) {
	ids, err := ExistingIDs(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, ids)

	dir := t.TempDir()
	// Only the id is needed, an unusual status must not fail the scan.
	path := writeTask(t, dir, "a", "---\nid: T01\nstatus: parked\n---\n")
	ids, err = ExistingIDs(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"T01": path}, ids)

	writeTask(t, dir, "b", "---\nid: T01\n---\n")
	_, err = ExistingIDs(context.Background(), dir)
	assert.ErrorIs(t, err, task.ErrDuplicateID)
}
