// Package derive implements pure calculators over the canonical
// collections: habit streaks, daily scores, calendar block layout and
// pomodoro arithmetic. Nothing here mutates state or performs I/O, and
// no function returns an error; the inputs are already-validated
// in-memory data.
package derive

import "time"

// DayKey is the calendar-day format used throughout the stored data.
const DayKey = "2006-01-02"

// Streak counts consecutive completed days backward from today.
//
// Today itself is skippable: a missing completion for today does not
// break the chain, it just isn't counted yet. The walk stops at the
// first earlier gap, so the cost is bounded by the streak length, not
// the size of the completion history.
func Streak(completed map[string]bool, today time.Time) int {
	day := today
	if !completed[day.Format(DayKey)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for completed[day.Format(DayKey)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// DailyScore sums the point values of all completions recorded for the
// given day key.
func DailyScore(completions []Completion, day string) int {
	score := 0
	for _, c := range completions {
		if c.Date == day {
			score += c.Points
		}
	}
	return score
}

// Completion is the minimal view of a habit completion the calculators
// need: the day it happened and the points it was worth at the time.
type Completion struct {
	Date   string
	Points int
}
