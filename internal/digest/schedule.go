// Package digest implements periodic digest delivery: on a fixed tick it
// checks each digest-enabled channel's schedule, collapses the alert
// history for the due window, and sends the batch through the channel's
// sender.
package digest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed digest schedule: a daily or weekly firing instant
// in UTC.
type Schedule struct {
	weekly bool
	day    time.Weekday
	hour   int
	minute int
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseSchedule parses "daily:HH:MM" or "weekly:<dayname>:HH:MM" (UTC).
// A schedule that does not parse never becomes due; callers log and skip.
func ParseSchedule(s string) (Schedule, error) {
	parts := strings.Split(s, ":")

	switch {
	case len(parts) == 3 && parts[0] == "daily":
		hour, minute, err := parseClock(parts[1], parts[2])
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid daily schedule %q: %w", s, err)
		}
		return Schedule{hour: hour, minute: minute}, nil

	case len(parts) == 4 && parts[0] == "weekly":
		day, ok := weekdays[strings.ToLower(parts[1])]
		if !ok {
			return Schedule{}, fmt.Errorf("invalid weekly schedule %q: unknown day %q", s, parts[1])
		}
		hour, minute, err := parseClock(parts[2], parts[3])
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid weekly schedule %q: %w", s, err)
		}
		return Schedule{weekly: true, day: day, hour: hour, minute: minute}, nil

	default:
		return Schedule{}, fmt.Errorf("invalid schedule %q", s)
	}
}

func parseClock(hh, mm string) (int, int, error) {
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour %q", hh)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute %q", mm)
	}
	return hour, minute, nil
}

// lastOccurrence returns the most recent scheduled firing instant at or
// before now.
func (s Schedule) lastOccurrence(now time.Time) time.Time {
	now = now.UTC()
	occ := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)

	if s.weekly {
		occ = occ.AddDate(0, 0, int(s.day-occ.Weekday()))
		if occ.After(now) {
			occ = occ.AddDate(0, 0, -7)
		}
		return occ
	}

	if occ.After(now) {
		occ = occ.AddDate(0, 0, -1)
	}
	return occ
}

// Due reports whether a digest should fire: the most recent scheduled
// occurrence has passed and nothing has been sent since it. A zero
// lastSent ("never sent") is due as soon as any occurrence has passed.
func (s Schedule) Due(lastSent, now time.Time) bool {
	return lastSent.Before(s.lastOccurrence(now))
}

// Window is how far back the digest reaches: one day for daily schedules,
// one week for weekly.
func (s Schedule) Window() time.Duration {
	if s.weekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}
