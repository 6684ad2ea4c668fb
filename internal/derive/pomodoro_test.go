package derive

import (
	"testing"
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
)

func TestRemainingPomodoros(t *testing.T) {
	tests := []struct {
		name  string
		tasks []schema.Task
		want  int
	}{
		{
			name: "sums incomplete tasks",
			tasks: []schema.Task{
				{Title: "a", EstimatedPomodoros: 4, CompletedPomodoros: 1},
				{Title: "b", EstimatedPomodoros: 2, CompletedPomodoros: 0},
			},
			want: 5,
		},
		{
			name: "completed tasks excluded",
			tasks: []schema.Task{
				{Title: "a", EstimatedPomodoros: 4, CompletedPomodoros: 0, Completed: true},
				{Title: "b", EstimatedPomodoros: 1},
			},
			want: 1,
		},
		{
			name: "overrun clamps to zero",
			tasks: []schema.Task{
				{Title: "a", EstimatedPomodoros: 2, CompletedPomodoros: 5},
				{Title: "b", EstimatedPomodoros: 3, CompletedPomodoros: 1},
			},
			want: 2,
		},
		{
			name: "no tasks",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingPomodoros(tt.tasks); got != tt.want {
				t.Errorf("RemainingPomodoros() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimatedFinish(t *testing.T) {
	now := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	got := EstimatedFinish(now, 3, 25*time.Minute, 5*time.Minute)
	want := now.Add(90 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("EstimatedFinish() = %v, want %v", got, want)
	}
}

func TestCountdown_DriftTolerance(t *testing.T) {
	// The clock advances 400s with no ticks delivered; on resume the
	// countdown must report 1100s, recomputed from wall-clock time.
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(start, 1500*time.Second)

	resumed := start.Add(400 * time.Second)
	if got := c.Remaining(resumed); got != 1100*time.Second {
		t.Errorf("Remaining after 400s suspension = %v, want 1100s", got)
	}
}

func TestCountdown_ClampsAtZero(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(start, 25*time.Minute)

	after := start.Add(time.Hour)
	if got := c.Remaining(after); got != 0 {
		t.Errorf("Remaining past expiry = %v, want 0", got)
	}
	if !c.Done(after) {
		t.Error("countdown should be done past expiry")
	}
	if c.Done(start.Add(time.Minute)) {
		t.Error("countdown should not be done mid-run")
	}
}

func TestCountdown_Elapsed(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	c := NewCountdown(start, 25*time.Minute)

	if got := c.Elapsed(start.Add(10 * time.Minute)); got != 10*time.Minute {
		t.Errorf("Elapsed = %v, want 10m", got)
	}
	if got := c.Elapsed(start.Add(time.Hour)); got != 25*time.Minute {
		t.Errorf("Elapsed past expiry = %v, want the 25m cap", got)
	}
}
