// Package scaffold writes the orchestration directory layout and new task
// directories from bundled markdown templates.
package scaffold

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kingrea/lattice-tasks/internal/task"
	"github.com/kingrea/lattice-tasks/internal/taskfile"
)

// OrchestrationDir is the directory created under the repository root.
const OrchestrationDir = "orchestration"

// Files written inside each task directory.
const (
	ExecutionOutputFile = "task-execution-output.md"
	ReviewFile          = "review.md"
)

var (
	// ErrNotRepository indicates the target root has no .git entry.
	ErrNotRepository = errors.New("repo-root must contain .git")
	// ErrTaskExists indicates CreateTask would overwrite files without force.
	ErrTaskExists = errors.New("output files already exist")
)

//go:embed templates/*.md
var templates embed.FS

// orchestrationFiles maps a path under orchestration/ to its template.
var orchestrationFiles = []struct {
	target   string
	template string
}{
	{target: "README.md", template: "README.md"},
	{target: "charter.md", template: "charter.md"},
	{target: "task-index.md", template: "task-index.md"},
	{target: "integration-log.md", template: "integration-log.md"},
	{target: "handover.md", template: "handover.md"},
}

// FileResult records what happened to one scaffolded file.
type FileResult struct {
	Path    string
	Written bool
}

// InitOrchestration creates orchestration/ and orchestration/tasks/ under an
// existing git repository root and writes the template documents. Existing
// files are skipped unless force is set.
func InitOrchestration(root string, force bool) ([]FileResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("repo-root does not exist: %s", root)
		}
		return nil, fmt.Errorf("scaffold: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repo-root must be an existing directory: %s", root)
	}
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, root)
	}

	orchDir := filepath.Join(root, OrchestrationDir)
	if err := os.MkdirAll(filepath.Join(orchDir, "tasks"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create orchestration directory: %w", err)
	}

	results := make([]FileResult, 0, len(orchestrationFiles))
	for _, file := range orchestrationFiles {
		target := filepath.Join(orchDir, file.target)
		written, err := writeTemplate(target, file.template, force)
		if err != nil {
			return results, err
		}
		results = append(results, FileResult{Path: target, Written: written})
	}
	return results, nil
}

// NewTask describes a task directory to create.
type NewTask struct {
	ID      string
	Summary string
	Branch  string
	// Status defaults to todo.
	Status       string
	Dependencies []string
	// Force allows reusing an existing id and overwriting its files.
	Force bool
}

type taskFrontMatter struct {
	ID      string   `yaml:"id"`
	Summary string   `yaml:"summary"`
	Status  string   `yaml:"status"`
	Deps    []string `yaml:"deps"`
	Branch  string   `yaml:"branch"`
}

// CreateTask writes tasksDir/<id>/ with task.md, the execution output and the
// review template. Dependencies must name tasks that already exist under
// tasksDir. It returns the created directory.
func CreateTask(ctx context.Context, tasksDir string, req NewTask) (string, error) {
	const source = "create"
	id := strings.TrimSpace(req.ID)
	summary := strings.TrimSpace(req.Summary)
	branch := strings.TrimSpace(req.Branch)
	for _, required := range []struct{ field, value string }{
		{"id", id}, {"summary", summary}, {"branch", branch},
	} {
		if required.value == "" {
			return "", &task.SchemaError{Source: source, Field: required.field, Reason: "is required"}
		}
	}

	// The id names a single directory under tasksDir.
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", &task.SchemaError{Source: source, Field: "id", Reason: "must not contain path separators or .."}
	}

	rawStatus := strings.TrimSpace(req.Status)
	if rawStatus == "" {
		rawStatus = string(task.StatusTodo)
	}
	status, err := task.ParseStatus(rawStatus)
	if err != nil {
		return "", &task.SchemaError{Source: source, Field: "status", Err: err}
	}

	deps := uniqueDependencies(req.Dependencies)
	for _, dep := range deps {
		if dep == id {
			return "", &task.SchemaError{
				Source: source,
				Field:  "deps",
				Reason: fmt.Sprintf("task %s cannot depend on itself", id),
			}
		}
	}

	existing, err := taskfile.ExistingIDs(ctx, tasksDir)
	if err != nil {
		return "", err
	}
	if prior, ok := existing[id]; ok && !req.Force {
		return "", &task.DuplicateIDError{ID: id, Sources: []string{prior}}
	}
	var unknown []task.UnresolvedRef
	for _, dep := range deps {
		if _, ok := existing[dep]; !ok {
			unknown = append(unknown, task.UnresolvedRef{TaskID: id, DependencyID: dep})
		}
	}
	if len(unknown) > 0 {
		return "", &task.UnresolvedDependencyError{Refs: unknown}
	}

	taskDir := filepath.Join(tasksDir, id)
	taskPath := filepath.Join(taskDir, taskfile.TaskFileName)
	outputPath := filepath.Join(taskDir, ExecutionOutputFile)
	reviewPath := filepath.Join(taskDir, ReviewFile)
	if !req.Force {
		var present []string
		for _, p := range []string{taskPath, outputPath, reviewPath} {
			if _, err := os.Stat(p); err == nil {
				present = append(present, p)
			}
		}
		if len(present) > 0 {
			return "", fmt.Errorf("%w: %s (use --force to overwrite)", ErrTaskExists, strings.Join(present, ", "))
		}
	}

	body, err := templates.ReadFile(path.Join("templates", "task-body.md"))
	if err != nil {
		return "", fmt.Errorf("scaffold: read task template: %w", err)
	}
	heading := fmt.Sprintf("# %s %s\n\n", id, summary)
	content, err := taskfile.WriteFrontMatter(taskFrontMatter{
		ID:      id,
		Summary: summary,
		Status:  string(status),
		Deps:    deps,
		Branch:  branch,
	}, append([]byte(heading), body...))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create task files: %w", err)
	}
	if err := os.WriteFile(taskPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to create task files: %w", err)
	}
	if _, err := writeTemplate(outputPath, ExecutionOutputFile, true); err != nil {
		return "", err
	}
	if _, err := writeTemplate(reviewPath, ReviewFile, true); err != nil {
		return "", err
	}
	return taskDir, nil
}

func writeTemplate(target, name string, force bool) (bool, error) {
	if _, err := os.Stat(target); err == nil && !force {
		return false, nil
	}
	data, err := templates.ReadFile(path.Join("templates", name))
	if err != nil {
		return false, fmt.Errorf("scaffold: read template %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("scaffold: create dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return false, fmt.Errorf("scaffold: write %s: %w", target, err)
	}
	return true, nil
}

func uniqueDependencies(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	deps := []string{}
	for _, item := range raw {
		dep := strings.TrimSpace(item)
		if dep == "" || dep == "-" {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	return deps
}
