// Package config loads the focusdeck.toml settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds user preferences. Every field has a default, so a
// missing settings file is never an error.
type Settings struct {
	Pomodoro PomodoroSettings `toml:"pomodoro"`
	Calendar CalendarSettings `toml:"calendar"`
	Habits   HabitSettings    `toml:"habits"`
}

// PomodoroSettings controls timer durations.
type PomodoroSettings struct {
	FocusMinutes int `toml:"focus_minutes"`
	BreakMinutes int `toml:"break_minutes"`
}

// CalendarSettings controls the visible day window.
type CalendarSettings struct {
	StartHour int `toml:"start_hour"`
	EndHour   int `toml:"end_hour"`
}

// HabitSettings controls habit defaults.
type HabitSettings struct {
	DefaultPoints int `toml:"default_points"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Pomodoro: PomodoroSettings{FocusMinutes: 25, BreakMinutes: 5},
		Calendar: CalendarSettings{StartHour: 7, EndHour: 22},
		Habits:   HabitSettings{DefaultPoints: 5},
	}
}

// Focus returns the focus interval as a duration.
func (p PomodoroSettings) Focus() time.Duration {
	return time.Duration(p.FocusMinutes) * time.Minute
}

// Break returns the break interval as a duration.
func (p PomodoroSettings) Break() time.Duration {
	return time.Duration(p.BreakMinutes) * time.Minute
}

// Load reads settings from path, layering the file over the defaults.
// A missing file returns the defaults; a malformed file is an error.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.validate(); err != nil {
		return Defaults(), err
	}
	return s, nil
}

// DefaultPath returns the conventional settings location under the
// given state directory.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "focusdeck.toml")
}

func (s Settings) validate() error {
	if s.Pomodoro.FocusMinutes <= 0 {
		return fmt.Errorf("pomodoro.focus_minutes must be positive (got %d)", s.Pomodoro.FocusMinutes)
	}
	if s.Pomodoro.BreakMinutes < 0 {
		return fmt.Errorf("pomodoro.break_minutes must not be negative (got %d)", s.Pomodoro.BreakMinutes)
	}
	if s.Calendar.StartHour < 0 || s.Calendar.StartHour > 23 {
		return fmt.Errorf("calendar.start_hour out of range (got %d)", s.Calendar.StartHour)
	}
	if s.Calendar.EndHour <= s.Calendar.StartHour || s.Calendar.EndHour > 24 {
		return fmt.Errorf("calendar.end_hour must be after start_hour and at most 24 (got %d)", s.Calendar.EndHour)
	}
	return nil
}
