// Package calendar exports a study schedule to Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/studyplan/internal/plan"
)

// DefaultCalendarID targets the authenticated user's main calendar.
const DefaultCalendarID = "primary"

// Event is one calendar entry produced from a plan entry.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// EventCreator inserts events into a calendar and returns the created ID.
type EventCreator interface {
	CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error)
}

// Skipped records a plan entry that could not be placed on the calendar.
type Skipped struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

// Summary reports what an export did.
type Summary struct {
	Created []string  `json:"created"`
	Skipped []Skipped `json:"skipped"`
}

// Exporter places plan entries on a calendar, day N landing on Start+(N-1).
type Exporter struct {
	creator    EventCreator
	calendarID string
	location   *time.Location
}

// NewExporter returns an Exporter. An empty calendarID means the primary
// calendar and a nil location means the local zone.
func NewExporter(creator EventCreator, calendarID string, loc *time.Location) *Exporter {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{creator: creator, calendarID: calendarID, location: loc}
}

// Plan builds events without creating them. Entries with no day or an
// unreadable time slot end up in the skipped list.
func (e *Exporter) Plan(entries []plan.Entry, start time.Time) ([]Event, []Skipped) {
	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, e.location)
	tz := e.location.String()
	if tz == "Local" {
		// RFC3339 timestamps already carry the offset
		tz = ""
	}

	var events []Event
	var skipped []Skipped
	for _, entry := range entries {
		if entry.Day < 1 {
			skipped = append(skipped, Skipped{Topic: entry.Topic, Reason: "no day assigned"})
			continue
		}
		slot, err := ParseTimeSlot(entry.TimeSlot)
		if err != nil {
			skipped = append(skipped, Skipped{Topic: entry.Topic, Reason: err.Error()})
			continue
		}
		day := base.AddDate(0, 0, entry.Day-1)
		events = append(events, Event{
			Summary:     entry.Topic,
			Description: describe(entry),
			Start:       day.Add(slot.Start),
			End:         day.Add(slot.End),
			Timezone:    tz,
		})
	}
	return events, skipped
}

// Export creates one event per schedulable entry. It stops at the first
// creation failure; events created so far are listed in the summary.
func (e *Exporter) Export(ctx context.Context, entries []plan.Entry, start time.Time) (Summary, error) {
	events, skipped := e.Plan(entries, start)
	summary := Summary{Created: []string{}, Skipped: skipped}
	if summary.Skipped == nil {
		summary.Skipped = []Skipped{}
	}

	for _, ev := range events {
		id, err := e.creator.CreateEvent(ctx, e.calendarID, ev)
		if err != nil {
			return summary, fmt.Errorf("create event %q: %w", ev.Summary, err)
		}
		summary.Created = append(summary.Created, id)
	}
	return summary, nil
}

func describe(entry plan.Entry) string {
	var b strings.Builder
	b.WriteString(entry.Description)
	if len(entry.Activities) > 0 {
		b.WriteString("\n\nActivities:\n")
		for _, a := range entry.Activities {
			b.WriteString("- " + a + "\n")
		}
	}
	if entry.ExpectedOutcome != "" {
		b.WriteString("\nExpected outcome: " + entry.ExpectedOutcome)
	}
	return strings.TrimSpace(b.String())
}
