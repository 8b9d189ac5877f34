// cmd/lattice-tasks/main.go
//
// Entry point for the lattice-tasks CLI. It reads task.md files under the
// configured tasks directory and reports what can start now, which tasks can
// run in parallel, and the order to integrate them in.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRootCmd()
	defer a.close()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "[error] %v\n", err)
		if isUsageError(err) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// isUsageError reports errors raised while parsing the command line, before
// a command runs.
func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}
