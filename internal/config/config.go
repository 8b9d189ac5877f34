// internal/config/config.go
//
// This package handles configuration and the .lattice-tasks directory.
// Every project that uses lattice-tasks gets a .lattice-tasks/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".lattice-tasks"

	// TasksDirEnv overrides tasks_dir from the project config.
	TasksDirEnv = "LATTICE_TASKS_DIR"

	defaultTasksDir  = "orchestration/tasks"
	defaultIndexPath = "orchestration/task-index.md"
	defaultDAGPath   = "orchestration/dag.md"
	defaultIntegLog  = "orchestration/integration-log.md"
	defaultLogLevel  = "info"
	defaultLogFormat = "logfmt"
)

const defaultProjectConfigYAML = `# lattice-tasks project configuration
version: 1

# Directory holding <task-id>/task.md, relative to the project root.
tasks_dir: orchestration/tasks

# Generated reports.
index_path: orchestration/task-index.md
dag_path: orchestration/dag.md
integration_log_path: orchestration/integration-log.md

log:
  # debug, info, warn or error
  level: info
  # text, logfmt or json
  format: logfmt
`

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "logfmt", "json"}
)

// LogConfig controls the file logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ProjectConfig models .lattice-tasks/config.yaml (or config.toml).
type ProjectConfig struct {
	Version   int    `yaml:"version" toml:"version"`
	TasksDir  string `yaml:"tasks_dir" toml:"tasks_dir"`
	IndexPath string `yaml:"index_path" toml:"index_path"`
	DAGPath   string `yaml:"dag_path" toml:"dag_path"`

	// IntegrationLogPath is appended to by the integrate command.
	IntegrationLogPath string    `yaml:"integration_log_path" toml:"integration_log_path"`
	Log                LogConfig `yaml:"log" toml:"log"`
}

// Config holds the runtime configuration for one project.
type Config struct {
	// ProjectDir is the repository root the commands operate on
	ProjectDir string

	// StateDir is ProjectDir/.lattice-tasks
	StateDir string

	Project ProjectConfig

	// tasksOverride wins over Project.TasksDir when set (env or flag).
	tasksOverride string
}

// InitProjectDir creates the .lattice-tasks directory structure in the given
// project directory and writes a default config.yaml if none exists.
//
// Structure created:
// .lattice-tasks/
// ├── config.yaml
// ├── logs/         <- lattice-tasks.log
// └── state/
func InitProjectDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, ProjectDirName)
	for _, dir := range []string{
		filepath.Join(stateDir, "logs"),
		filepath.Join(stateDir, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if fileExists(filepath.Join(stateDir, "config.toml")) {
		return nil
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads the project config, falling back to defaults when the
// project has not been initialised. LATTICE_TASKS_DIR overrides tasks_dir.
func NewConfig(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if env := strings.TrimSpace(os.Getenv(TasksDirEnv)); env != "" {
		cfg.OverrideTasksDir(env)
	}
	return cfg, nil
}

// OverrideTasksDir replaces the tasks directory for this run only.
func (c *Config) OverrideTasksDir(dir string) {
	c.tasksOverride = strings.TrimSpace(dir)
}

// TasksDir returns the absolute tasks directory.
func (c *Config) TasksDir() string {
	if c.tasksOverride != "" {
		return resolvePath(c.ProjectDir, c.tasksOverride)
	}
	return resolvePath(c.ProjectDir, c.Project.TasksDir)
}

// IndexPath returns the absolute task-index.md path.
func (c *Config) IndexPath() string {
	return resolvePath(c.ProjectDir, c.Project.IndexPath)
}

// DAGPath returns the absolute dag.md path.
func (c *Config) DAGPath() string {
	return resolvePath(c.ProjectDir, c.Project.DAGPath)
}

// IntegrationLogPath returns the absolute integration-log.md path.
func (c *Config) IntegrationLogPath() string {
	return resolvePath(c.ProjectDir, c.Project.IntegrationLogPath)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LogFile returns the path of the run log.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogsDir(), "lattice-tasks.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
// config.toml is used when present, config.yaml otherwise.
func (c *Config) ProjectConfigPath() string {
	tomlPath := filepath.Join(c.StateDir, "config.toml")
	if fileExists(tomlPath) {
		return tomlPath
	}
	return filepath.Join(c.StateDir, "config.yaml")
}

// SetTasksDir updates tasks_dir and persists the value to config.yaml.
func (c *Config) SetTasksDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return fmt.Errorf("config: tasks dir is required")
	}
	c.Project.TasksDir = dir
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if strings.HasSuffix(path, ".toml") {
		if _, err := toml.Decode(string(data), &parsed); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:            1,
		TasksDir:           defaultTasksDir,
		IndexPath:          defaultIndexPath,
		DAGPath:            defaultDAGPath,
		IntegrationLogPath: defaultIntegLog,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.TasksDir) == "" {
		pc.TasksDir = defaultTasksDir
	}
	if strings.TrimSpace(pc.IndexPath) == "" {
		pc.IndexPath = defaultIndexPath
	}
	if strings.TrimSpace(pc.DAGPath) == "" {
		pc.DAGPath = defaultDAGPath
	}
	if strings.TrimSpace(pc.IntegrationLogPath) == "" {
		pc.IntegrationLogPath = defaultIntegLog
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
	if strings.TrimSpace(pc.Log.Format) == "" {
		pc.Log.Format = defaultLogFormat
	}
}

func (pc *ProjectConfig) normalize() {
	pc.TasksDir = strings.TrimSpace(pc.TasksDir)
	pc.IndexPath = strings.TrimSpace(pc.IndexPath)
	pc.DAGPath = strings.TrimSpace(pc.DAGPath)
	pc.IntegrationLogPath = strings.TrimSpace(pc.IntegrationLogPath)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.Log.Format = strings.ToLower(strings.TrimSpace(pc.Log.Format))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !contains(validLogLevels, pc.Log.Level) {
		return fmt.Errorf("log.level must be one of %s", strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, pc.Log.Format) {
		return fmt.Errorf("log.format must be one of %s", strings.Join(validLogFormats, ", "))
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	path := c.ProjectConfigPath()
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".toml") {
		var buf strings.Builder
		err = toml.NewEncoder(&buf).Encode(c.Project)
		data = []byte(buf.String())
	} else {
		data, err = yaml.Marshal(c.Project)
	}
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
