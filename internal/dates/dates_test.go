package dates

import (
	"testing"
	"time"
)

func TestKeyRoundTrip(t *testing.T) {
	orig := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	key := Key(orig)
	if key != "2026-08-27" {
		t.Errorf("Key() = %q, want 2026-08-27", key)
	}

	parsed, err := ParseKey(key)
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if Key(parsed) != key {
		t.Errorf("round trip = %q, want %q", Key(parsed), key)
	}

	if _, err := ParseKey("27/08/2026"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestClock(t *testing.T) {
	if got := Clock(time.Date(2026, 8, 27, 9, 5, 0, 0, time.UTC)); got != "09:05" {
		t.Errorf("Clock() = %q, want 09:05", got)
	}
}

func TestParseWhen(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC) // a Thursday

	tests := []struct {
		name     string
		text     string
		wantDate string
		wantTime string
		wantErr  bool
	}{
		{
			name:     "tomorrow with clock time",
			text:     "tomorrow 9am",
			wantDate: "2026-08-28",
			wantTime: "09:00",
		},
		{
			name:     "bare day leaves time unset",
			text:     "tomorrow",
			wantDate: "2026-08-28",
			wantTime: "",
		},
		{
			name:    "gibberish",
			text:    "flurble",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock, err := ParseWhen(tt.text, base)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if date != tt.wantDate {
				t.Errorf("date = %q, want %q", date, tt.wantDate)
			}
			if clock != tt.wantTime {
				t.Errorf("clock = %q, want %q", clock, tt.wantTime)
			}
		})
	}
}
