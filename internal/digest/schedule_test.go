package digest

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"daily", "daily:08:00", false},
		{"daily midnight", "daily:00:00", false},
		{"daily end of day", "daily:23:59", false},
		{"weekly", "weekly:monday:09:30", false},
		{"weekly mixed case day", "weekly:Friday:17:00", false},
		{"empty", "", true},
		{"unknown kind", "hourly:08:00", true},
		{"daily missing minute", "daily:08", true},
		{"daily bad hour", "daily:24:00", true},
		{"daily bad minute", "daily:08:60", true},
		{"daily non-numeric", "daily:ab:cd", true},
		{"weekly unknown day", "weekly:someday:08:00", true},
		{"weekly missing time", "weekly:monday", true},
		{"weekly bad hour", "weekly:monday:25:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchedule(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSchedule(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSchedule_Due_Daily(t *testing.T) {
	schedule, err := ParseSchedule("daily:08:00")
	if err != nil {
		t.Fatalf("ParseSchedule error: %v", err)
	}

	// Sent a few minutes late yesterday.
	lastSent := time.Date(2025, 3, 9, 8, 5, 0, 0, time.UTC)

	notYet := time.Date(2025, 3, 10, 7, 59, 0, 0, time.UTC)
	if schedule.Due(lastSent, notYet) {
		t.Error("Due = true at 07:59, want false")
	}

	onTime := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if !schedule.Due(lastSent, onTime) {
		t.Error("Due = false at 08:00, want true")
	}
}

func TestSchedule_Due_NeverSent(t *testing.T) {
	schedule, _ := ParseSchedule("daily:08:00")

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if !schedule.Due(time.Time{}, now) {
		t.Error("Due = false for never-sent channel, want true")
	}
}

func TestSchedule_Due_AlreadySentToday(t *testing.T) {
	schedule, _ := ParseSchedule("daily:08:00")

	lastSent := time.Date(2025, 3, 10, 8, 0, 30, 0, time.UTC)
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	if schedule.Due(lastSent, now) {
		t.Error("Due = true after today's send, want false")
	}
}

func TestSchedule_Due_Weekly(t *testing.T) {
	schedule, err := ParseSchedule("weekly:monday:09:00")
	if err != nil {
		t.Fatalf("ParseSchedule error: %v", err)
	}

	// 2025-03-10 is a Monday.
	lastSent := time.Date(2025, 3, 3, 9, 1, 0, 0, time.UTC)

	sunday := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
	if schedule.Due(lastSent, sunday) {
		t.Error("Due = true on Sunday, want false")
	}

	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if !schedule.Due(lastSent, monday) {
		t.Error("Due = false at Monday 09:00, want true")
	}
}

func TestSchedule_Window(t *testing.T) {
	daily, _ := ParseSchedule("daily:08:00")
	if daily.Window() != 24*time.Hour {
		t.Errorf("daily Window = %v, want 24h", daily.Window())
	}

	weekly, _ := ParseSchedule("weekly:monday:08:00")
	if weekly.Window() != 7*24*time.Hour {
		t.Errorf("weekly Window = %v, want 168h", weekly.Window())
	}
}
