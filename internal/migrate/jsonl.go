// Package migrate implements JSONL export and import of the task
// collection, used for backups and moving data between devices.
package migrate

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// ImportOptions configures an import run.
type ImportOptions struct {
	Path   string // input JSONL file
	DryRun bool   // parse and validate without returning tasks for adoption
	Backup string // when set, an existing collection is backed up here first
}

// ImportResult reports what an import run found.
type ImportResult struct {
	Tasks         []schema.Task
	TasksRead     int
	BackupCreated string
	Errors        []string
}

// Export writes tasks to path as JSONL, one task per line, atomically.
// Returns the number of lines written.
func Export(path string, tasks []schema.Task) (int, error) {
	tmpPath := path + ".tmp"
	// #nosec G304 - controlled path from CLI
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range tasks {
		if err := enc.Encode(&tasks[i]); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("failed to encode task %s: %w", tasks[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace export file: %w", err)
	}
	return len(tasks), nil
}

// FromJSONL reads a JSONL file and returns parsed tasks.
func FromJSONL(path string) ([]schema.Task, error) {
	// #nosec G304 - controlled path from CLI
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer f.Close()

	var tasks []schema.Task
	dec := json.NewDecoder(f)
	line := 0
	for {
		var task schema.Task
		if err := dec.Decode(&task); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", line+1, err)
		}
		line++
		task.SetDefaults()
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Import merges tasks from a JSONL file into the current collection:
// parse, validate each task, optionally back up the current collection
// first. Result.Tasks holds current plus the imported tasks; a task
// whose id already exists in current is skipped, as are invalid lines
// and in-file duplicates. Skips are reported, not fatal, so one bad
// line cannot block restoring a backup.
func Import(opts ImportOptions, current []schema.Task) (*ImportResult, error) {
	result := &ImportResult{}

	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("input file does not exist: %w", err)
	}

	if opts.Backup != "" && !opts.DryRun && len(current) > 0 {
		backupPath := opts.Backup + "." + time.Now().Format("20060102-150405")
		if _, err := Export(backupPath, current); err != nil {
			return nil, fmt.Errorf("failed to back up current collection: %w", err)
		}
		result.BackupCreated = backupPath
	}

	parsed, err := FromJSONL(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSONL: %w", err)
	}

	seen := make(map[string]bool, len(current))
	for _, task := range current {
		seen[task.ID] = true
	}
	if !opts.DryRun {
		result.Tasks = append(result.Tasks, current...)
	}

	for i := range parsed {
		task := parsed[i]
		if err := task.Validate(); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("skipping task %s: %v", task.ID, err))
			continue
		}
		if seen[task.ID] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("skipping duplicate task id %s", task.ID))
			continue
		}
		seen[task.ID] = true
		result.TasksRead++
		if !opts.DryRun {
			result.Tasks = append(result.Tasks, task)
		}
	}

	schema.SortByOrder(result.Tasks)
	schema.RenumberTasks(result.Tasks)
	return result, nil
}
