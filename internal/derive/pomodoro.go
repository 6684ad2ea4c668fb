package derive

import (
	"time"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// RemainingPomodoros sums the outstanding pomodoros across incomplete
// tasks. Tasks already over their estimate contribute zero, never a
// negative amount.
func RemainingPomodoros(tasks []schema.Task) int {
	remaining := 0
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if left := t.EstimatedPomodoros - t.CompletedPomodoros; left > 0 {
			remaining += left
		}
	}
	return remaining
}

// EstimatedFinish projects when the remaining pomodoros would complete
// if started now, assuming every pomodoro is a focus interval followed
// by a break.
func EstimatedFinish(now time.Time, remaining int, focus, brk time.Duration) time.Time {
	return now.Add(time.Duration(remaining) * (focus + brk))
}

// Countdown is an elapsed-time-based timer. Remaining is always
// recomputed from the start instant and the wall clock, never from
// delivered ticks, so a suspended process or a missed tick cannot
// desync the displayed time.
type Countdown struct {
	StartedAt time.Time
	Initial   time.Duration
}

// NewCountdown starts a countdown of the given duration at now.
func NewCountdown(now time.Time, initial time.Duration) Countdown {
	return Countdown{StartedAt: now, Initial: initial}
}

// Remaining returns the time left at the given instant, clamped at zero.
func (c Countdown) Remaining(now time.Time) time.Duration {
	left := c.Initial - now.Sub(c.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Elapsed returns how long the countdown has been running, clamped to
// the initial duration.
func (c Countdown) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(c.StartedAt)
	if elapsed > c.Initial {
		return c.Initial
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Done reports whether the countdown has expired at the given instant.
func (c Countdown) Done(now time.Time) bool {
	return c.Remaining(now) == 0
}
