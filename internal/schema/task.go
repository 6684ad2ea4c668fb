// Package schema provides the data model for FocusDeck collections.
//
// Collections are stored as single JSON documents: the task list, the
// content plan, and the habit log are each one document per user. Field
// names use the camelCase wire format shared with other FocusDeck clients,
// so documents written by one device load unchanged on another.
package schema

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Task represents a single task with its ordered steps.
//
// Steps are owned by the task (composition): deleting a task deletes its
// steps. The Order field encodes list position as a dense 0..n-1 sequence
// and is renumbered after every delete or reorder.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`

	// ScheduledDate is a calendar day key ("2006-01-02"); ScheduledTime is
	// a clock time ("15:04"). Both are empty when the task is unscheduled.
	ScheduledDate string `json:"scheduledDate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`

	Steps     []Step `json:"steps"`
	Completed bool   `json:"completed"`

	EstimatedPomodoros int `json:"estimatedPomodoros"`
	CompletedPomodoros int `json:"completedPomodoros"`

	Note   string   `json:"note,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Order  int      `json:"order"`
}

// Step is a single checklist item within a task.
type Step struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Description   string `json:"description,omitempty"`
	Completed     bool   `json:"completed"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
	ScheduledDate string `json:"scheduledDate,omitempty"`
	Order         int    `json:"order"`
}

// TaskState is the canonical task collection held by the sync engine.
//
// SelectedID travels with the collection so that a rolled-back mutation
// also reverts any selection change it made (e.g. add-task selects the
// new task; if the save fails the selection clears with the rollback).
type TaskState struct {
	Tasks      []Task `json:"tasks"`
	SelectedID string `json:"selectedId,omitempty"`
}

// Validate checks if the Task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if t.EstimatedPomodoros < 0 {
		return fmt.Errorf("estimatedPomodoros must not be negative (got %d)", t.EstimatedPomodoros)
	}
	if t.CompletedPomodoros < 0 {
		return fmt.Errorf("completedPomodoros must not be negative (got %d)", t.CompletedPomodoros)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	if t.ScheduledDate != "" {
		if _, err := time.Parse("2006-01-02", t.ScheduledDate); err != nil {
			return fmt.Errorf("invalid scheduledDate %q: %w", t.ScheduledDate, err)
		}
	}
	if t.ScheduledTime != "" {
		if _, err := time.Parse("15:04", t.ScheduledTime); err != nil {
			return fmt.Errorf("invalid scheduledTime %q: %w", t.ScheduledTime, err)
		}
	}
	for i := range t.Steps {
		if err := t.Steps[i].Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks if the Step has valid field values.
func (s *Step) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.Order < 0 {
		return fmt.Errorf("order must not be negative (got %d)", s.Order)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Steps == nil {
		t.Steps = []Step{}
	}
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	out.Steps = append([]Step(nil), t.Steps...)
	if t.Labels != nil {
		out.Labels = append([]string(nil), t.Labels...)
	}
	return out
}

// Clone returns a deep copy of the state. The engine snapshots state
// before every mutation so a failed remote save can restore it exactly.
func (ts TaskState) Clone() TaskState {
	out := TaskState{SelectedID: ts.SelectedID}
	out.Tasks = make([]Task, len(ts.Tasks))
	for i := range ts.Tasks {
		out.Tasks[i] = ts.Tasks[i].Clone()
	}
	return out
}

// IsEmpty reports whether the collection holds no tasks.
func (ts TaskState) IsEmpty() bool {
	return len(ts.Tasks) == 0
}

// RenumberTasks rewrites task Order fields to a dense 0..n-1 sequence,
// preserving the current slice order.
func RenumberTasks(tasks []Task) {
	for i := range tasks {
		tasks[i].Order = i
	}
}

// RenumberSteps rewrites step Order fields to a dense 0..n-1 sequence.
func RenumberSteps(steps []Step) {
	for i := range steps {
		steps[i].Order = i
	}
}

// SortByOrder sorts tasks by their Order field. Used after loading a
// document whose array order may not match the stored order fields.
func SortByOrder(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Order < tasks[j].Order
	})
}

// NewID returns a random 12-character hex identifier.
func NewID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a timestamp-derived id rather than panic.
		return fmt.Sprintf("%012x", time.Now().UnixNano()&0xffffffffffff)
	}
	return hex.EncodeToString(buf)
}
