// Package dates provides the day-key and clock helpers shared by the
// schedulers and streak math, plus natural language date parsing for
// the CLI ("tomorrow 9am").
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const (
	// KeyLayout is the calendar-day key format stored in documents.
	KeyLayout = "2006-01-02"
	// ClockLayout is the clock-time format stored in documents.
	ClockLayout = "15:04"
)

// Key returns the day key for t in t's location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// Clock returns the clock-time string for t.
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

// ParseKey parses a day key back into a time at midnight UTC.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// Today returns the day key for the current wall clock.
func Today() string {
	return Key(time.Now())
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseWhen resolves a natural language expression like "tomorrow 9am"
// or "next monday" against base. The returned clock string is empty
// when the expression named only a day, so callers can schedule a date
// without pinning a time.
func ParseWhen(text string, base time.Time) (date, clock string, err error) {
	r, err := parser.Parse(text, base)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse %q: %w", text, err)
	}
	if r == nil {
		return "", "", fmt.Errorf("could not understand %q", text)
	}

	date = Key(r.Time)
	if mentionsClock(text) {
		clock = Clock(r.Time)
	}
	return date, clock, nil
}

// mentionsClock reports whether the expression carries a time of day,
// as opposed to a bare date like "tomorrow".
func mentionsClock(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range []string{"am", "pm", ":", "noon", "midnight", "morning", "evening", "night", "o'clock"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
