package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/lattice-tasks/internal/config"
	"github.com/kingrea/lattice-tasks/internal/logging"
)

// app carries state shared by every subcommand for one invocation.
type app struct {
	projectDir string
	tasksDir   string
	verbose    bool

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "lattice-tasks",
		Short: "Dependency-aware task planning for orchestration/tasks",
		Long: `lattice-tasks reads tasks/<task-id>/task.md frontmatter and reports the
tasks that are ready now, the parallel batches of the active tasks and the
integration order.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          unknownCommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.projectDir, "project", "", "Project root (default: current directory)")
	flags.StringVar(&a.tasksDir, "tasks-dir", "", "Directory containing <task-id>/task.md (overrides config and "+config.TasksDirEnv+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Also write log lines to stderr")

	root.AddCommand(
		a.newInitCmd(),
		a.newCreateCmd(),
		a.newIndexCmd(),
		a.newDAGCmd(),
		a.newReadyCmd(),
		a.newBatchesCmd(),
		a.newIntegrateCmd(),
		a.newBoardCmd(),
	)
	return root, a
}

func (a *app) close() {
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[warn] close log: %v\n", err)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	project := strings.TrimSpace(a.projectDir)
	if project == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		project = cwd
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		return err
	}
	if a.tasksDir != "" {
		cfg.OverrideTasksDir(a.tasksDir)
	}
	a.cfg = cfg

	opts := logging.Options{Level: cfg.Project.Log.Level, Format: cfg.Project.Log.Format}
	if a.verbose {
		opts.Console = cmd.ErrOrStderr()
	}
	logger, err := logging.New(cfg.LogFile(), opts)
	if err != nil {
		return err
	}
	a.logger = logger.With("command", cmd.Name())
	a.logger.Debug("config loaded", "project", cfg.ProjectDir, "tasks_dir", cfg.TasksDir())
	return nil
}
