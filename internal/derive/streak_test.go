package derive

import (
	"testing"
	"time"
)

func days(today time.Time, offsets ...int) map[string]bool {
	m := make(map[string]bool)
	for _, off := range offsets {
		m[today.AddDate(0, 0, -off).Format(DayKey)] = true
	}
	return m
}

func TestStreak(t *testing.T) {
	today := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		completed map[string]bool
		want      int
	}{
		{
			name:      "three consecutive days ending today",
			completed: days(today, 0, 1, 2),
			want:      3,
		},
		{
			name:      "today missing is skippable",
			completed: days(today, 1, 2),
			want:      2,
		},
		{
			name:      "gap at yesterday counts only today",
			completed: days(today, 0, 2, 3),
			want:      1,
		},
		{
			name:      "today and yesterday both missing",
			completed: days(today, 2, 3, 4),
			want:      0,
		},
		{
			name:      "no completions at all",
			completed: map[string]bool{},
			want:      0,
		},
		{
			name:      "long unbroken run",
			completed: days(today, 0, 1, 2, 3, 4, 5, 6),
			want:      7,
		},
		{
			name:      "old completions beyond a gap are ignored",
			completed: days(today, 0, 1, 5, 6, 7),
			want:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.completed, today); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreak_CrossesMonthBoundary(t *testing.T) {
	today := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	completed := map[string]bool{
		"2026-03-02": true,
		"2026-03-01": true,
		"2026-02-28": true, // 2026 is not a leap year
		"2026-02-27": true,
	}
	if got := Streak(completed, today); got != 4 {
		t.Errorf("Streak() = %d, want 4 across the month boundary", got)
	}
}

func TestDailyScore(t *testing.T) {
	completions := []Completion{
		{Date: "2026-08-27", Points: 10},
		{Date: "2026-08-27", Points: 5},
		{Date: "2026-08-26", Points: 100},
	}

	if got := DailyScore(completions, "2026-08-27"); got != 15 {
		t.Errorf("DailyScore(today) = %d, want 15", got)
	}
	if got := DailyScore(completions, "2026-08-25"); got != 0 {
		t.Errorf("DailyScore(empty day) = %d, want 0", got)
	}
}
