// Package taskfile discovers and decodes task.md documents. Each task lives in
// its own directory (tasks/<task-id>/task.md) and declares its metadata in
// YAML frontmatter:
//
//	---
//	id: T02
//	summary: Wire the exporter
//	status: todo
//	deps: [T01]
//	branch: feat/exporter
//	---
package taskfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/kingrea/lattice-tasks/internal/task"
)

// TaskFileName is the metadata document inside each task directory.
const TaskFileName = "task.md"

// ErrNoTasks indicates the tasks directory holds no */task.md files.
var ErrNoTasks = errors.New("no task metadata files found")

// Load discovers, decodes and validates every task under tasksDir.
func Load(ctx context.Context, tasksDir string) (*task.Set, error) {
	records, err := LoadRecords(ctx, tasksDir)
	if err != nil {
		return nil, err
	}
	return task.ValidateAndIndex(records)
}

// LoadRecords decodes tasksDir/*/task.md in directory-name order.
func LoadRecords(ctx context.Context, tasksDir string) ([]task.Record, error) {
	paths, err := discover(tasksDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in: %s (expected */%s)", ErrNoTasks, tasksDir, TaskFileName)
	}
	records := make([]task.Record, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := ReadTask(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadTask reads and decodes one task.md file.
func ReadTask(path string) (task.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return task.Record{}, fmt.Errorf("taskfile: read %s: %w", path, err)
	}
	rec, _, err := ParseTask(path, content)
	return rec, err
}

// ExistingIDs maps the ids already declared under tasksDir to their files.
// Only the id field is inspected. A missing tasksDir yields an empty map.
func ExistingIDs(ctx context.Context, tasksDir string) (map[string]string, error) {
	ids := map[string]string{}
	info, err := os.Stat(tasksDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ids, nil
		}
		return nil, fmt.Errorf("taskfile: stat %s: %w", tasksDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tasks dir must be a directory path: %s", tasksDir)
	}
	paths, err := discover(tasksDir)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("taskfile: read %s: %w", path, err)
		}
		fields, _, err := ParseFrontMatter(content)
		if err != nil {
			return nil, &task.SchemaError{Source: path, Err: err}
		}
		id, err := requiredString(path, fields, KeyID)
		if err != nil {
			return nil, err
		}
		if existing, ok := ids[id]; ok {
			return nil, &task.DuplicateIDError{ID: id, Sources: []string{existing, path}}
		}
		ids[id] = path
	}
	return ids, nil
}

func discover(tasksDir string) ([]string, error) {
	info, err := os.Stat(tasksDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("tasks directory not found: %s", tasksDir)
	}
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		return nil, fmt.Errorf("taskfile: read %s: %w", tasksDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var paths []string
	for _, name := range names {
		dir := filepath.Join(tasksDir, name)
		dirInfo, err := os.Stat(dir)
		if err != nil || !dirInfo.IsDir() {
			continue
		}
		path := filepath.Join(dir, TaskFileName)
		fileInfo, err := os.Stat(path)
		if err != nil || !fileInfo.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}
