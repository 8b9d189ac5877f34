package scaffold

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
	"github.com/kingrea/lattice-tasks/internal/taskfile"
)

func gitRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	return root
}

func TestInitOrchestrationWritesTemplates(t *testing.T) {
	root := gitRoot(t)
	results, err := InitOrchestration(root, false)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.True(t, r.Written, r.Path)
		_, err := os.Stat(r.Path)
		assert.NoError(t, err)
	}
	info, err := os.Stat(filepath.Join(root, OrchestrationDir, "tasks"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	index, err := os.ReadFile(filepath.Join(root, OrchestrationDir, "task-index.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(index), "# Task Index\n"))
}

func TestInitOrchestrationSkipsExistingUnlessForced(t *testing.T) {
	root := gitRoot(t)
	charter := filepath.Join(root, OrchestrationDir, "charter.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(charter), 0o755))
	require.NoError(t, os.WriteFile(charter, []byte("mine"), 0o644))

	results, err := InitOrchestration(root, false)
	require.NoError(t, err)
	for _, r := range results {
		if r.Path == charter {
			assert.False(t, r.Written)
		}
	}
	data, _ := os.ReadFile(charter)
	assert.Equal(t, "mine", string(data))

	_, err = InitOrchestration(root, true)
	require.NoError(t, err)
	data, _ = os.ReadFile(charter)
	assert.True(t, strings.HasPrefix(string(data), "# Project Charter"))
}

func TestInitOrchestrationRejectsBadRoots(t *testing.T) {
	_, err := InitOrchestration(filepath.Join(t.TempDir(), "missing"), false)
	assert.ErrorContains(t, err, "repo-root does not exist")

	_, err = InitOrchestration(t.TempDir(), false)
	assert.ErrorIs(t, err, ErrNotRepository)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = InitOrchestration(file, false)
	assert.ErrorContains(t, err, "must be an existing directory")
}

func TestCreateTaskRoundTripsThroughLoader(t *testing.T) {
	ctx := context.Background()
	tasksDir := filepath.Join(t.TempDir(), "tasks")

	_, err := CreateTask(ctx, tasksDir, NewTask{ID: "T01", Summary: "Bootstrap", Branch: "feat/boot"})
	require.NoError(t, err)
	dir, err := CreateTask(ctx, tasksDir, NewTask{
		ID:           "T02",
		Summary:      "Exporter",
		Branch:       "feat/export",
		Status:       "In_Progress",
		Dependencies: []string{"T01", " T01 ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tasksDir, "T02"), dir)
	for _, name := range []string{taskfile.TaskFileName, ExecutionOutputFile, ReviewFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	set, err := taskfile.Load(ctx, tasksDir)
	require.NoError(t, err)
	got, ok := set.Get("T02")
	require.True(t, ok)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.Equal(t, []string{"T01"}, got.Dependencies)
	assert.Equal(t, "Exporter", got.Summary)
	assert.Equal(t, "feat/export", got.Branch)

	content, err := os.ReadFile(filepath.Join(dir, taskfile.TaskFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# T02 Exporter\n\n## Goal\n")
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	tasksDir := filepath.Join(t.TempDir(), "tasks")
	_, err := CreateTask(ctx, tasksDir, NewTask{ID: "T01", Summary: "One", Branch: "b1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   NewTask
		want error
	}{
		{name: "missing summary", in: NewTask{ID: "T09", Branch: "b"}, want: task.ErrSchema},
		{name: "bad status", in: NewTask{ID: "T09", Summary: "s", Branch: "b", Status: "later"}, want: task.ErrSchema},
		{name: "self dependency", in: NewTask{ID: "T09", Summary: "s", Branch: "b", Dependencies: []string{"T09"}}, want: task.ErrSchema},
		{name: "parent dir id", in: NewTask{ID: "../escape", Summary: "s", Branch: "b"}, want: task.ErrSchema},
		{name: "nested id", in: NewTask{ID: "T09/sub", Summary: "s", Branch: "b"}, want: task.ErrSchema},
		{name: "backslash id", in: NewTask{ID: `T09\sub`, Summary: "s", Branch: "b"}, want: task.ErrSchema},
		{name: "duplicate id", in: NewTask{ID: "T01", Summary: "s", Branch: "b"}, want: task.ErrDuplicateID},
		{name: "unknown dependency", in: NewTask{ID: "T09", Summary: "s", Branch: "b", Dependencies: []string{"T01", "T77"}}, want: task.ErrUnresolvedDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateTask(ctx, tasksDir, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = CreateTask(ctx, tasksDir, NewTask{ID: "../escape", Summary: "s", Branch: "b"})
	var schemaErr *task.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "id", schemaErr.Field)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(tasksDir), "escape"))

	_, err = CreateTask(ctx, tasksDir, NewTask{ID: "T09", Summary: "s", Branch: "b", Dependencies: []string{"T77"}})
	var unresolved *task.UnresolvedDependencyError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []task.UnresolvedRef{{TaskID: "T09", DependencyID: "T77"}}, unresolved.Refs)
}

func TestCreateTaskForceOverwrites(t *testing.T) {
	ctx := context.Background()
	tasksDir := filepath.Join(t.TempDir(), "tasks")
	_, err := CreateTask(ctx, tasksDir, NewTask{ID: "T01", Summary: "One", Branch: "b1"})
	require.NoError(t, err)

	_, err = CreateTask(ctx, tasksDir, NewTask{ID: "T01", Summary: "Renamed", Branch: "b1", Force: true})
	require.NoError(t, err)
	set, err := taskfile.Load(ctx, tasksDir)
	require.NoError(t, err)
	got, _ := set.Get("T01")
	assert.Equal(t, "Renamed", got.Summary)
}

func TestCreateTaskRefusesExistingFiles(t *testing.T) {
	tasksDir := filepath.Join(t.TempDir(), "tasks")
	review := filepath.Join(tasksDir, "T05", ReviewFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(review), 0o755))
	require.NoError(t, os.WriteFile(review, []byte("keep"), 0o644))

	_, err := CreateTask(context.Background(), tasksDir, NewTask{ID: "T05", Summary: "s", Branch: "b"})
	assert.ErrorIs(t, err, ErrTaskExists)
}
