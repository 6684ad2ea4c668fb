package schema

import (
	"fmt"
	"time"
)

// HabitCompletion records that a habit was completed on a calendar day.
//
// The habit log is append-only. Uniqueness of (habitId, date) is enforced
// at the engine boundary, so at most one completion per habit per day
// reaches the stored collection.
type HabitCompletion struct {
	HabitID string `json:"habitId"`
	Date    string `json:"date"` // day key, "2006-01-02"
	Points  int    `json:"points"`
}

// ScheduledHabit is a habit with an optional daily time slot, used by
// the calendar layout alongside scheduled task steps.
type ScheduledHabit struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	ScheduledTime string `json:"scheduledTime,omitempty"` // "15:04"
	Order         int    `json:"order"`
}

// HabitState is the canonical habit collection held by the sync engine.
type HabitState struct {
	Habits      []ScheduledHabit  `json:"habits"`
	Completions []HabitCompletion `json:"completions"`
}

// Validate checks if the HabitCompletion has valid field values.
func (c *HabitCompletion) Validate() error {
	if c.HabitID == "" {
		return fmt.Errorf("habitId is required")
	}
	if _, err := time.Parse("2006-01-02", c.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", c.Date, err)
	}
	return nil
}

// Validate checks if the ScheduledHabit has valid field values.
func (h *ScheduledHabit) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("id is required")
	}
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if h.ScheduledTime != "" {
		if _, err := time.Parse("15:04", h.ScheduledTime); err != nil {
			return fmt.Errorf("invalid scheduledTime %q: %w", h.ScheduledTime, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (hs HabitState) Clone() HabitState {
	return HabitState{
		Habits:      append([]ScheduledHabit(nil), hs.Habits...),
		Completions: append([]HabitCompletion(nil), hs.Completions...),
	}
}

// IsEmpty reports whether the collection holds no habits and no completions.
func (hs HabitState) IsEmpty() bool {
	return len(hs.Habits) == 0 && len(hs.Completions) == 0
}

// CompletedOn reports whether habitID has a completion recorded for day.
func (hs HabitState) CompletedOn(habitID, day string) bool {
	for _, c := range hs.Completions {
		if c.HabitID == habitID && c.Date == day {
			return true
		}
	}
	return false
}
