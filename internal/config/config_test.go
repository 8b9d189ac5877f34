package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if want := filepath.Join(projectDir, "orchestration", "tasks"); c.TasksDir() != want {
		t.Fatalf("expected tasks dir %q, got %q", want, c.TasksDir())
	}
	if want := filepath.Join(projectDir, "orchestration", "dag.md"); c.DAGPath() != want {
		t.Fatalf("expected dag path %q, got %q", want, c.DAGPath())
	}
	if c.Project.Log.Level != "info" || c.Project.Log.Format != "logfmt" {
		t.Fatalf("unexpected log defaults: %+v", c.Project.Log)
	}
}

func TestInitProjectDirWritesDefaultConfig(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("InitProjectDir returned error: %v", err)
	}
	for _, dir := range []string{"logs", "state"} {
		if info, err := os.Stat(filepath.Join(projectDir, ProjectDirName, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir, err=%v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if !strings.HasSuffix(c.ProjectConfigPath(), "config.yaml") {
		t.Fatalf("expected yaml config, got %s", c.ProjectConfigPath())
	}
	if c.Project.TasksDir != "orchestration/tasks" {
		t.Fatalf("wrong tasks dir: %s", c.Project.TasksDir)
	}
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("second InitProjectDir returned error: %v", err)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
tasks_dir: plan/tasks
index_path: /tmp/index.md
log:
  level: DEBUG
  format: json
`)
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if want := filepath.Join(projectDir, "plan", "tasks"); c.TasksDir() != want {
		t.Fatalf("expected tasks dir %q, got %q", want, c.TasksDir())
	}
	if c.IndexPath() != "/tmp/index.md" {
		t.Fatalf("absolute index path not preserved: %s", c.IndexPath())
	}
	if c.Project.DAGPath != defaultDAGPath {
		t.Fatalf("expected default dag path, got %s", c.Project.DAGPath)
	}
	if c.Project.Log.Level != "debug" || c.Project.Log.Format != "json" {
		t.Fatalf("log config not normalized: %+v", c.Project.Log)
	}
}

func TestLoadProjectConfigParsesToml(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	configTOML := strings.TrimSpace(`
version = 1
tasks_dir = "work/tasks"

[log]
level = "warn"
format = "text"
`)
	if err := os.WriteFile(filepath.Join(stateDir, "config.toml"), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if want := filepath.Join(projectDir, "work", "tasks"); c.TasksDir() != want {
		t.Fatalf("expected tasks dir %q, got %q", want, c.TasksDir())
	}
	if c.Project.Log.Level != "warn" {
		t.Fatalf("wrong log level: %s", c.Project.Log.Level)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := "version: 1\nlog:\n  level: loud\n"
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(projectDir); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestTasksDirOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv(TasksDirEnv, "env/tasks")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if want := filepath.Join(projectDir, "env", "tasks"); c.TasksDir() != want {
		t.Fatalf("expected env override %q, got %q", want, c.TasksDir())
	}
	c.OverrideTasksDir("/abs/tasks")
	if c.TasksDir() != "/abs/tasks" {
		t.Fatalf("expected flag override, got %q", c.TasksDir())
	}
}

func TestSetTasksDirPersists(t *testing.T) {
	t.Setenv(TasksDirEnv, "")
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetTasksDir("custom/tasks"); err != nil {
		t.Fatalf("SetTasksDir returned error: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Project.TasksDir != "custom/tasks" {
		t.Fatalf("tasks dir not persisted: %s", reloaded.Project.TasksDir)
	}
	if err := c.SetTasksDir("  "); err == nil {
		t.Fatalf("expected error for empty tasks dir")
	}
}
