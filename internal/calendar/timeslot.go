package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var slotSplit = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)

var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

// Slot is a time range within one day, as offsets from midnight.
type Slot struct {
	Start time.Duration
	End   time.Duration
}

// ParseTimeSlot reads ranges such as "9:00 AM - 11:00 AM", "14:00-16:00" or
// "9am to 11am". A meridiem on only the end time applies to both ends.
func ParseTimeSlot(s string) (Slot, error) {
	parts := slotSplit.Split(strings.TrimSpace(s), 2)
	if len(parts) != 2 {
		return Slot{}, fmt.Errorf("time slot %q has no range", s)
	}

	startTxt, endTxt := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	inherited := meridiem(startTxt) == "" && meridiem(endTxt) != ""
	if inherited {
		startTxt += " " + meridiem(endTxt)
	}

	start, err := parseClock(startTxt)
	if err != nil {
		return Slot{}, fmt.Errorf("time slot %q: %w", s, err)
	}
	end, err := parseClock(endTxt)
	if err != nil {
		return Slot{}, fmt.Errorf("time slot %q: %w", s, err)
	}
	// "11 - 1 PM" style ranges: the start inherited PM but sits after the end.
	if inherited && start >= end && start >= 12*time.Hour {
		start -= 12 * time.Hour
	}
	if end <= start {
		return Slot{}, fmt.Errorf("time slot %q ends before it starts", s)
	}
	return Slot{Start: start, End: end}, nil
}

func meridiem(s string) string {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return m[3]
}

func parseClock(s string) (time.Duration, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("unrecognised time %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}

	switch strings.ToLower(strings.ReplaceAll(m[3], ".", "")) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid hour in %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid hour in %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, fmt.Errorf("invalid hour in %q", s)
		}
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}
