package engine

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/focusdeck/focusdeck/internal/schema"
	"github.com/focusdeck/focusdeck/internal/store"
)

func newTestHabits(t *testing.T) *Habits {
	t.Helper()

	habits, err := NewHabits(
		&fakeRemote[schema.HabitState]{},
		store.NewLocal(t.TempDir()),
		log.New(io.Discard, "", 0),
	)
	if err != nil {
		t.Fatalf("failed to create habit engine: %v", err)
	}
	habits.InitializeGuest()
	return habits
}

func TestHabitsComplete_RejectsDuplicateDay(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	id, err := habits.AddHabit(ctx, "Meditate", 10, "07:00")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := habits.Complete(ctx, id, "2026-08-27"); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	err = habits.Complete(ctx, id, "2026-08-27")
	if err == nil {
		t.Fatal("second completion for the same day must be rejected")
	}
	if !strings.Contains(err.Error(), "already completed") {
		t.Errorf("error = %q, want already-completed message", err)
	}

	// Different days are independent.
	if err := habits.Complete(ctx, id, "2026-08-28"); err != nil {
		t.Fatalf("next-day completion failed: %v", err)
	}

	got := habits.Completions()
	if len(got) != 2 {
		t.Fatalf("got %d completions, want 2", len(got))
	}
	for _, c := range got {
		if c.Points != 10 {
			t.Errorf("completion points = %d, want the habit's 10", c.Points)
		}
	}
}

func TestHabitsComplete_UnknownHabit(t *testing.T) {
	habits := newTestHabits(t)

	err := habits.Complete(context.Background(), "missing", "2026-08-27")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestHabitsUncomplete(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	id, _ := habits.AddHabit(ctx, "Run", 5, "")
	if err := habits.Complete(ctx, id, "2026-08-27"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if err := habits.Uncomplete(ctx, id, "2026-08-27"); err != nil {
		t.Fatalf("uncomplete failed: %v", err)
	}
	if len(habits.Completions()) != 0 {
		t.Error("completion should be removed")
	}

	// Uncompleting again is an error, and re-completing works.
	if err := habits.Uncomplete(ctx, id, "2026-08-27"); err == nil {
		t.Error("expected error for missing completion")
	}
	if err := habits.Complete(ctx, id, "2026-08-27"); err != nil {
		t.Errorf("re-complete after uncomplete failed: %v", err)
	}
}

func TestHabitsRemove_KeepsCompletionLog(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	a, _ := habits.AddHabit(ctx, "Read", 5, "")
	b, _ := habits.AddHabit(ctx, "Stretch", 3, "")
	if err := habits.Complete(ctx, a, "2026-08-27"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if err := habits.RemoveHabit(ctx, a); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	got := habits.Habits()
	if len(got) != 1 || got[0].ID != b {
		t.Fatalf("remaining habits = %+v, want only %s", got, b)
	}
	if got[0].Order != 0 {
		t.Errorf("order = %d, want 0 after renumber", got[0].Order)
	}
	// The log is append-only history.
	if len(habits.Completions()) != 1 {
		t.Error("removing a habit must not erase its completion history")
	}
}

func TestHabitsAddHabit_Validation(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		habitName string
		clock     string
		errMsg    string
	}{
		{name: "empty name", habitName: "", clock: "", errMsg: "name is required"},
		{name: "bad time", habitName: "Journal", clock: "8pm", errMsg: "invalid scheduledTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := habits.AddHabit(ctx, tt.habitName, 1, tt.clock)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestHabitsSchedule(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	id, _ := habits.AddHabit(ctx, "Review", 2, "")
	if err := habits.Schedule(ctx, id, "18:30"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if got := habits.Habits()[0].ScheduledTime; got != "18:30" {
		t.Errorf("scheduledTime = %q, want 18:30", got)
	}

	// Clearing the slot.
	if err := habits.Schedule(ctx, id, ""); err != nil {
		t.Fatalf("unschedule failed: %v", err)
	}
	if got := habits.Habits()[0].ScheduledTime; got != "" {
		t.Errorf("scheduledTime = %q, want empty", got)
	}
}

func TestHabitsCompletedDays(t *testing.T) {
	habits := newTestHabits(t)
	ctx := context.Background()

	a, _ := habits.AddHabit(ctx, "Write", 5, "")
	b, _ := habits.AddHabit(ctx, "Walk", 5, "")
	for _, day := range []string{"2026-08-25", "2026-08-26"} {
		if err := habits.Complete(ctx, a, day); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
	}
	if err := habits.Complete(ctx, b, "2026-08-26"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	days := habits.CompletedDays(a)
	if len(days) != 2 || !days["2026-08-25"] || !days["2026-08-26"] {
		t.Errorf("completed days for a = %v", days)
	}
}
