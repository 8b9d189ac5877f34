package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/lattice-tasks/internal/config"
	"github.com/kingrea/lattice-tasks/internal/graph"
	"github.com/kingrea/lattice-tasks/internal/logbook"
	"github.com/kingrea/lattice-tasks/internal/report"
	"github.com/kingrea/lattice-tasks/internal/scaffold"
	"github.com/kingrea/lattice-tasks/internal/task"
	"github.com/kingrea/lattice-tasks/internal/taskfile"
	"github.com/kingrea/lattice-tasks/internal/tui"
)

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .lattice-tasks/ and the orchestration templates",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.InitProjectDir(a.cfg.ProjectDir); err != nil {
				return err
			}
			if a.tasksDir != "" {
				if err := a.cfg.SetTasksDir(a.tasksDir); err != nil {
					return err
				}
			}
			results, err := scaffold.InitOrchestration(a.cfg.ProjectDir, force)
			for _, r := range results {
				if r.Written {
					fmt.Fprintf(cmd.OutOrStdout(), "[ok] wrote %s\n", r.Path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "[skip] %s already exists\n", r.Path)
				}
			}
			if err != nil {
				return err
			}
			a.logger.Info("orchestration initialized", "files", len(results), "force", force)
			fmt.Fprintf(cmd.OutOrStdout(), "[ok] orchestration templates are ready in %s\n",
				filepath.Join(a.cfg.ProjectDir, scaffold.OrchestrationDir))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func (a *app) newCreateCmd() *cobra.Command {
	var (
		req  scaffold.NewTask
		deps string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one task directory with template files",
		Args:  requireFlags("id", "summary", "branch"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Dependencies = taskfile.ParseDependencyList(deps)
			dir, err := scaffold.CreateTask(cmd.Context(), a.cfg.TasksDir(), req)
			if err != nil {
				return err
			}
			a.logger.Info("task created", "id", req.ID, "dir", dir, "deps", strings.Join(req.Dependencies, ","))
			fmt.Fprintf(cmd.OutOrStdout(), "[ok] created %s in %s\n", strings.TrimSpace(req.ID), dir)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.ID, "id", "", "Task ID, e.g. T02 (required)")
	flags.StringVar(&req.Summary, "summary", "", "Task summary (required)")
	flags.StringVar(&req.Branch, "branch", "", "Work branch name (required)")
	flags.StringVar(&deps, "deps", "", "Comma-separated dependency task IDs")
	flags.StringVar(&req.Status, "status", string(task.StatusTodo), "Task status ("+strings.Join(task.AllowedStatuses(), ", ")+")")
	flags.BoolVar(&req.Force, "force", false, "Overwrite existing task files")
	return cmd
}

func (a *app) newIndexCmd() *cobra.Command {
	var (
		write  string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Generate task-index.md (ready tasks and all tasks)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, analysis, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			content := report.RenderIndex(set, analysis.Ready)
			if stdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			return a.writeReport(cmd, orDefault(write, a.cfg.IndexPath()), content)
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "Output path (default: index_path from config)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print instead of writing a file")
	return cmd
}

func (a *app) newDAGCmd() *cobra.Command {
	var (
		write      string
		readyWrite string
		stdout     bool
	)
	cmd := &cobra.Command{
		Use:   "dag",
		Short: "Generate dag.md and ready-now.md",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, analysis, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			dag := report.RenderDAG(set, analysis)
			ready := report.RenderReady(set, analysis.Ready)
			if stdout {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dag+"\n"+ready)
				return err
			}
			dagPath := orDefault(write, a.cfg.DAGPath())
			if err := a.writeReport(cmd, dagPath, dag); err != nil {
				return err
			}
			readyPath := orDefault(readyWrite, filepath.Join(filepath.Dir(dagPath), "ready-now.md"))
			return a.writeReport(cmd, readyPath, ready)
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "Output path for dag.md (default: dag_path from config)")
	cmd.Flags().StringVar(&readyWrite, "ready-write", "", "Output path for ready-now.md (default: next to dag.md)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print dag.md and ready-now.md instead of writing files")
	return cmd
}

func (a *app) newReadyCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "List tasks whose status is todo and whose dependencies are done",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.load(cmd)
			if err != nil {
				return err
			}
			// Readiness does not depend on the active graph being acyclic.
			analysis, err := graph.Analyze(set)
			var cycle *graph.CycleError
			if err != nil && !errors.As(err, &cycle) {
				return err
			}
			if cycle != nil {
				a.logger.Warn("cycle among active tasks", "remainder", strings.Join(cycle.Remainder, ","))
			}
			if plain {
				for _, id := range analysis.Ready {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderReadySummary(set, analysis))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one task id per line")
	return cmd
}

func (a *app) newBatchesCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Print the parallel batches and integration order of active tasks",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, analysis, err := a.analyze(cmd)
			if err != nil {
				return err
			}
			if plain {
				for _, batch := range analysis.Batches {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(batch, " "))
				}
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RenderBatchSummary(analysis))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one batch per line, ids separated by spaces")
	return cmd
}

func (a *app) newIntegrateCmd() *cobra.Command {
	var (
		entry  logbook.Entry
		result string
		tail   int
	)
	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Append an integration record to integration-log.md",
		Args:  requireFlags("id", "result"),
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := logbook.ParseResult(result)
			if err != nil {
				return err
			}
			entry.Result = r
			set, err := a.load(cmd)
			if err != nil {
				return err
			}
			t, ok := set.Get(strings.TrimSpace(entry.TaskID))
			if !ok {
				return fmt.Errorf("unknown task id: %s", entry.TaskID)
			}
			entry.TaskID = t.ID
			if strings.TrimSpace(entry.Branch) == "" {
				entry.Branch = t.Branch
			}
			book, err := logbook.New(a.cfg.IntegrationLogPath())
			if err != nil {
				return err
			}
			if err := book.Append(entry); err != nil {
				return err
			}
			a.logger.Info("integration logged", "id", entry.TaskID, "result", entry.Result)
			fmt.Fprintf(cmd.OutOrStdout(), "[ok] logged %s (%s) in %s\n", entry.TaskID, entry.Result, book.Path())
			if tail > 0 {
				rows, total := book.Tail(tail)
				fmt.Fprintf(cmd.OutOrStdout(), "last %d of %d entries:\n%s\n", len(rows), total, strings.Join(rows, "\n"))
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&entry.TaskID, "id", "", "Integrated task ID (required)")
	flags.StringVar(&result, "result", "", "Outcome: merged, conflict, reverted or failed (required)")
	flags.StringVar(&entry.Branch, "branch", "", "Branch (default: the task's branch)")
	flags.StringVar(&entry.Validation, "validation", "", "Validation that was run")
	flags.StringVar(&entry.Notes, "notes", "", "Free-form notes")
	flags.IntVar(&tail, "tail", 0, "Print the last N entries afterwards")
	return cmd
}

func (a *app) newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Browse ready tasks, batches and all tasks in a terminal UI",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board := tui.NewBoard(cmd.Context(), func(ctx context.Context) (*task.Set, error) {
				return taskfile.Load(ctx, a.cfg.TasksDir())
			}, a.logger)
			p := tea.NewProgram(board, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run board: %w", err)
			}
			return nil
		},
	}
}

func (a *app) load(cmd *cobra.Command) (*task.Set, error) {
	set, err := taskfile.Load(cmd.Context(), a.cfg.TasksDir())
	if err != nil {
		a.logger.Error("load tasks", "err", err)
		return nil, err
	}
	a.logger.Info("tasks loaded", "count", set.Len(), "tasks_dir", a.cfg.TasksDir())
	return set, nil
}

// analyze loads the task set and fails on a dependency cycle.
func (a *app) analyze(cmd *cobra.Command) (*task.Set, graph.Analysis, error) {
	set, err := a.load(cmd)
	if err != nil {
		return nil, graph.Analysis{}, err
	}
	analysis, err := graph.Analyze(set)
	if err != nil {
		a.logger.Error("analyze tasks", "err", err)
		return nil, graph.Analysis{}, err
	}
	a.logger.Debug("analysis", "active", len(analysis.Active), "batches", len(analysis.Batches), "ready", len(analysis.Ready))
	return set, analysis, nil
}

func (a *app) writeReport(cmd *cobra.Command, path, content string) error {
	if err := report.WriteFile(path, content); err != nil {
		return err
	}
	a.logger.Info("report written", "path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "[ok] wrote %s\n", path)
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unknown positional arguments: %s", strings.Join(args, ", "))}
	}
	return nil
}

// requireFlags rejects positional arguments and reports unset flags. Both
// are usage errors.
func requireFlags(names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := noArgs(cmd, args); err != nil {
			return err
		}
		var missing []string
		for _, name := range names {
			if !cmd.Flags().Changed(name) {
				missing = append(missing, strconv.Quote(name))
			}
		}
		if len(missing) > 0 {
			return &usageError{err: fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))}
		}
		return nil
	}
}

// unknownCommand rejects anything cobra could not match to a subcommand.
func unknownCommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
