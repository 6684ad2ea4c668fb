package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/focusdeck/focusdeck/internal/schema"
)

// KindHabits is the record kind and local-storage key for the habit log.
const KindHabits = "habits"

// Habits is the habit engine: scheduled habits plus their append-only
// completion log. Uniqueness of (habit, day) is enforced here, at the
// mutation boundary, so duplicate completions can never double-count
// scores or totals downstream.
type Habits struct {
	*Engine[schema.HabitState]
}

// NewHabits creates the habit engine. remote may be nil for guest-only use.
func NewHabits(remote Remote[schema.HabitState], local LocalStore, logger *log.Logger) (*Habits, error) {
	e, err := New(Config[schema.HabitState]{
		Key:     KindHabits,
		Remote:  remote,
		Local:   local,
		Clone:   schema.HabitState.Clone,
		IsEmpty: schema.HabitState.IsEmpty,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &Habits{Engine: e}, nil
}

// Habits returns the current scheduled habits in display order.
func (h *Habits) Habits() []schema.ScheduledHabit {
	return h.State().Collection.Habits
}

// Completions returns the completion log.
func (h *Habits) Completions() []schema.HabitCompletion {
	return h.State().Collection.Completions
}

// AddHabit creates a scheduled habit. Returns the new habit's id.
func (h *Habits) AddHabit(ctx context.Context, name string, points int, scheduledTime string) (string, error) {
	habit := schema.ScheduledHabit{
		ID:            schema.NewID(),
		Name:          name,
		Points:        points,
		ScheduledTime: scheduledTime,
	}
	if err := habit.Validate(); err != nil {
		return "", fmt.Errorf("invalid habit: %w", err)
	}

	err := h.Mutate(ctx, func(s schema.HabitState) (schema.HabitState, error) {
		habit.Order = len(s.Habits)
		s.Habits = append(s.Habits, habit)
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return habit.ID, nil
}

// RemoveHabit deletes a habit definition and renumbers its siblings.
// The completion log is append-only and keeps the habit's history.
func (h *Habits) RemoveHabit(ctx context.Context, habitID string) error {
	return h.Mutate(ctx, func(s schema.HabitState) (schema.HabitState, error) {
		idx := -1
		for i := range s.Habits {
			if s.Habits[i].ID == habitID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return s, fmt.Errorf("habit %s not found", habitID)
		}
		s.Habits = append(s.Habits[:idx], s.Habits[idx+1:]...)
		for i := range s.Habits {
			s.Habits[i].Order = i
		}
		return s, nil
	})
}

// Complete records a completion for the given day key ("2006-01-02").
// A second completion for the same (habit, day) is rejected.
func (h *Habits) Complete(ctx context.Context, habitID, day string) error {
	return h.Mutate(ctx, func(s schema.HabitState) (schema.HabitState, error) {
		var habit *schema.ScheduledHabit
		for i := range s.Habits {
			if s.Habits[i].ID == habitID {
				habit = &s.Habits[i]
				break
			}
		}
		if habit == nil {
			return s, fmt.Errorf("habit %s not found", habitID)
		}
		if s.CompletedOn(habitID, day) {
			return s, fmt.Errorf("habit %s already completed on %s", habitID, day)
		}
		completion := schema.HabitCompletion{HabitID: habitID, Date: day, Points: habit.Points}
		if err := completion.Validate(); err != nil {
			return s, fmt.Errorf("invalid completion: %w", err)
		}
		s.Completions = append(s.Completions, completion)
		return s, nil
	})
}

// Uncomplete removes the completion for (habit, day), if any.
func (h *Habits) Uncomplete(ctx context.Context, habitID, day string) error {
	return h.Mutate(ctx, func(s schema.HabitState) (schema.HabitState, error) {
		for i := range s.Completions {
			if s.Completions[i].HabitID == habitID && s.Completions[i].Date == day {
				s.Completions = append(s.Completions[:i], s.Completions[i+1:]...)
				return s, nil
			}
		}
		return s, fmt.Errorf("habit %s has no completion on %s", habitID, day)
	})
}

// Schedule sets or clears a habit's daily time slot ("15:04").
func (h *Habits) Schedule(ctx context.Context, habitID, clock string) error {
	return h.Mutate(ctx, func(s schema.HabitState) (schema.HabitState, error) {
		for i := range s.Habits {
			if s.Habits[i].ID == habitID {
				s.Habits[i].ScheduledTime = clock
				if err := s.Habits[i].Validate(); err != nil {
					return s, fmt.Errorf("invalid habit after edit: %w", err)
				}
				return s, nil
			}
		}
		return s, fmt.Errorf("habit %s not found", habitID)
	})
}

// CompletedDays returns the set of day keys on which habitID was
// completed, suitable for streak calculation.
func (h *Habits) CompletedDays(habitID string) map[string]bool {
	days := make(map[string]bool)
	for _, c := range h.Completions() {
		if c.HabitID == habitID {
			days[c.Date] = true
		}
	}
	return days
}
