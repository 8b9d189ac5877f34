// Package logbook appends integration records to orchestration/integration-log.md,
// a markdown table with one row per merged (or rejected) task branch.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Result is the outcome of one integration attempt.
type Result string

const (
	ResultMerged   Result = "merged"
	ResultConflict Result = "conflict"
	ResultReverted Result = "reverted"
	ResultFailed   Result = "failed"
)

const tableHeader = "# Integration Log\n\n| Timestamp (UTC) | Task ID | Branch | Result | Validation | Notes |\n|---|---|---|---|---|---|\n"

// ParseResult accepts a result name case-insensitively.
func ParseResult(raw string) (Result, error) {
	switch r := Result(strings.ToLower(strings.TrimSpace(raw))); r {
	case ResultMerged, ResultConflict, ResultReverted, ResultFailed:
		return r, nil
	default:
		return "", fmt.Errorf("invalid result %q (allowed: conflict, failed, merged, reverted)", raw)
	}
}

// Entry is one row of the integration log.
type Entry struct {
	Time       time.Time
	TaskID     string
	Branch     string
	Result     Result
	Validation string
	Notes      string
}

// Logbook persists integration entries to a markdown file.
type Logbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, now: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single row, creating the file with its table header when
// it does not exist yet.
func (l *Logbook) Append(entry Entry) error {
	if l == nil {
		return nil
	}
	if strings.TrimSpace(entry.TaskID) == "" {
		return fmt.Errorf("logbook: task id is required")
	}
	if entry.Time.IsZero() {
		entry.Time = l.now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := os.Stat(l.path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return fmt.Errorf("logbook: stat %s: %w", l.path, err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logbook: open %s: %w", l.path, err)
	}
	defer file.Close()
	if missing {
		if _, err := file.WriteString(tableHeader); err != nil {
			return fmt.Errorf("logbook: write header: %w", err)
		}
	}
	if _, err := file.WriteString(formatRow(entry) + "\n"); err != nil {
		return fmt.Errorf("logbook: append %s: %w", l.path, err)
	}
	return nil
}

// Tail returns up to maxLines of the most recent table rows along with the
// total row count.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var rows []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "| ") || strings.HasPrefix(line, "| Timestamp") {
			continue
		}
		rows = append(rows, line)
	}
	total := len(rows)
	if len(rows) > maxLines {
		rows = rows[len(rows)-maxLines:]
	}
	return rows, total
}

func formatRow(e Entry) string {
	cells := []string{
		e.Time.UTC().Format(time.RFC3339),
		cell(e.TaskID),
		cell(e.Branch),
		cell(string(e.Result)),
		cell(e.Validation),
		cell(e.Notes),
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// cell keeps a value on one table row.
func cell(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", `\|`)
}
