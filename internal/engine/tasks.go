package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// KindTasks is the record kind and local-storage key for the task list.
const KindTasks = "tasks"

// Tasks is the task-list engine. Every operation is a one-line call
// into the generic optimistic mutation helper: the collection transform
// is pure, the snapshot/apply/save/rollback shape lives in Engine.
type Tasks struct {
	*Engine[schema.TaskState]
}

// NewTasks creates the task engine. remote may be nil for guest-only use.
func NewTasks(remote Remote[schema.TaskState], local LocalStore, logger *log.Logger) (*Tasks, error) {
	e, err := New(Config[schema.TaskState]{
		Key:     KindTasks,
		Remote:  remote,
		Local:   local,
		Clone:   schema.TaskState.Clone,
		IsEmpty: schema.TaskState.IsEmpty,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &Tasks{Engine: e}, nil
}

// List returns the current tasks in display order.
func (t *Tasks) List() []schema.Task {
	return t.State().Collection.Tasks
}

// Get returns the task with the given id.
func (t *Tasks) Get(id string) (schema.Task, bool) {
	for _, task := range t.List() {
		if task.ID == id {
			return task, true
		}
	}
	return schema.Task{}, false
}

// Add appends a new task and selects it. A single empty step is created
// with the task so the step list is never nil in the editor. Returns
// the new task's id.
func (t *Tasks) Add(ctx context.Context, task schema.Task) (string, error) {
	task.SetDefaults()
	if len(task.Steps) == 0 {
		task.Steps = []schema.Step{{ID: schema.NewID(), Order: 0}}
	}
	if err := task.Validate(); err != nil {
		return "", fmt.Errorf("invalid task: %w", err)
	}

	id := task.ID
	err := t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		task.Order = len(s.Tasks)
		s.Tasks = append(s.Tasks, task)
		s.SelectedID = id
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update applies a field-level edit to one task.
func (t *Tasks) Update(ctx context.Context, id string, edit func(*schema.Task)) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		task := findTask(&s, id)
		if task == nil {
			return s, fmt.Errorf("task %s not found", id)
		}
		edit(task)
		if err := task.Validate(); err != nil {
			return s, fmt.Errorf("invalid task after edit: %w", err)
		}
		return s, nil
	})
}

// Rename changes a task's title.
func (t *Tasks) Rename(ctx context.Context, id, title string) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.Title = title })
}

// SetNote replaces a task's note.
func (t *Tasks) SetNote(ctx context.Context, id, note string) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.Note = note })
}

// SetLabels replaces a task's labels.
func (t *Tasks) SetLabels(ctx context.Context, id string, labels []string) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.Labels = labels })
}

// Schedule sets a task's date ("2006-01-02") and time ("15:04").
// Empty strings unschedule the corresponding field.
func (t *Tasks) Schedule(ctx context.Context, id, date, clock string) error {
	return t.Update(ctx, id, func(task *schema.Task) {
		task.ScheduledDate = date
		task.ScheduledTime = clock
	})
}

// SetEstimate sets the estimated pomodoro count.
func (t *Tasks) SetEstimate(ctx context.Context, id string, estimated int) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.EstimatedPomodoros = estimated })
}

// RecordPomodoro increments the completed pomodoro count.
func (t *Tasks) RecordPomodoro(ctx context.Context, id string) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.CompletedPomodoros++ })
}

// SetCompleted marks a task complete or incomplete.
func (t *Tasks) SetCompleted(ctx context.Context, id string, completed bool) error {
	return t.Update(ctx, id, func(task *schema.Task) { task.Completed = completed })
}

// Delete removes a task and renumbers the remaining tasks densely.
// The selection clears if the deleted task was selected.
func (t *Tasks) Delete(ctx context.Context, id string) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		idx := taskIndex(s.Tasks, id)
		if idx < 0 {
			return s, fmt.Errorf("task %s not found", id)
		}
		s.Tasks = append(s.Tasks[:idx], s.Tasks[idx+1:]...)
		schema.RenumberTasks(s.Tasks)
		if s.SelectedID == id {
			s.SelectedID = ""
		}
		return s, nil
	})
}

// ClearCompleted removes every completed task in one mutation.
func (t *Tasks) ClearCompleted(ctx context.Context) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		kept := s.Tasks[:0]
		for _, task := range s.Tasks {
			if !task.Completed {
				kept = append(kept, task)
			} else if s.SelectedID == task.ID {
				s.SelectedID = ""
			}
		}
		s.Tasks = kept
		schema.RenumberTasks(s.Tasks)
		return s, nil
	})
}

// Reorder moves a task to a new position and renumbers densely.
func (t *Tasks) Reorder(ctx context.Context, id string, newIndex int) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		idx := taskIndex(s.Tasks, id)
		if idx < 0 {
			return s, fmt.Errorf("task %s not found", id)
		}
		if newIndex < 0 || newIndex >= len(s.Tasks) {
			return s, fmt.Errorf("index %d out of range [0, %d)", newIndex, len(s.Tasks))
		}
		task := s.Tasks[idx]
		s.Tasks = append(s.Tasks[:idx], s.Tasks[idx+1:]...)
		s.Tasks = append(s.Tasks[:newIndex], append([]schema.Task{task}, s.Tasks[newIndex:]...)...)
		schema.RenumberTasks(s.Tasks)
		return s, nil
	})
}

// Select records the selected task id. An empty id clears the selection.
func (t *Tasks) Select(ctx context.Context, id string) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		if id != "" && taskIndex(s.Tasks, id) < 0 {
			return s, fmt.Errorf("task %s not found", id)
		}
		s.SelectedID = id
		return s, nil
	})
}

// AddStep appends a step to a task. Returns the new step's id.
func (t *Tasks) AddStep(ctx context.Context, taskID, text string) (string, error) {
	id := schema.NewID()
	err := t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		task := findTask(&s, taskID)
		if task == nil {
			return s, fmt.Errorf("task %s not found", taskID)
		}
		task.Steps = append(task.Steps, schema.Step{ID: id, Text: text, Order: len(task.Steps)})
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ToggleStep flips a step's completed flag.
func (t *Tasks) ToggleStep(ctx context.Context, taskID, stepID string) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		step, err := findStep(&s, taskID, stepID)
		if err != nil {
			return s, err
		}
		step.Completed = !step.Completed
		return s, nil
	})
}

// UpdateStep applies a field-level edit to one step.
func (t *Tasks) UpdateStep(ctx context.Context, taskID, stepID string, edit func(*schema.Step)) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		step, err := findStep(&s, taskID, stepID)
		if err != nil {
			return s, err
		}
		edit(step)
		if err := step.Validate(); err != nil {
			return s, fmt.Errorf("invalid step after edit: %w", err)
		}
		return s, nil
	})
}

// RemoveStep deletes a step and renumbers the remaining siblings densely.
func (t *Tasks) RemoveStep(ctx context.Context, taskID, stepID string) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		task := findTask(&s, taskID)
		if task == nil {
			return s, fmt.Errorf("task %s not found", taskID)
		}
		idx := -1
		for i := range task.Steps {
			if task.Steps[i].ID == stepID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s, fmt.Errorf("step %s not found in task %s", stepID, taskID)
		}
		task.Steps = append(task.Steps[:idx], task.Steps[idx+1:]...)
		schema.RenumberSteps(task.Steps)
		return s, nil
	})
}

// ReorderSteps moves a step within its task and renumbers densely.
func (t *Tasks) ReorderSteps(ctx context.Context, taskID, stepID string, newIndex int) error {
	return t.Mutate(ctx, func(s schema.TaskState) (schema.TaskState, error) {
		task := findTask(&s, taskID)
		if task == nil {
			return s, fmt.Errorf("task %s not found", taskID)
		}
		idx := -1
		for i := range task.Steps {
			if task.Steps[i].ID == stepID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s, fmt.Errorf("step %s not found in task %s", stepID, taskID)
		}
		if newIndex < 0 || newIndex >= len(task.Steps) {
			return s, fmt.Errorf("index %d out of range [0, %d)", newIndex, len(task.Steps))
		}
		step := task.Steps[idx]
		task.Steps = append(task.Steps[:idx], task.Steps[idx+1:]...)
		task.Steps = append(task.Steps[:newIndex], append([]schema.Step{step}, task.Steps[newIndex:]...)...)
		schema.RenumberSteps(task.Steps)
		return s, nil
	})
}

func taskIndex(tasks []schema.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func findTask(s *schema.TaskState, id string) *schema.Task {
	idx := taskIndex(s.Tasks, id)
	if idx < 0 {
		return nil
	}
	return &s.Tasks[idx]
}

func findStep(s *schema.TaskState, taskID, stepID string) (*schema.Step, error) {
	task := findTask(s, taskID)
	if task == nil {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	for i := range task.Steps {
		if task.Steps[i].ID == stepID {
			return &task.Steps[i], nil
		}
	}
	return nil, fmt.Errorf("step %s not found in task %s", stepID, taskID)
}
