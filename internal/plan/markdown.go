package plan

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders the schedule grouped by day, days ascending and entries in
// their original order within a day.
func Markdown(title string, entries []Entry) string {
	var sb strings.Builder
	if title == "" {
		title = "Study Plan"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if len(entries) == 0 {
		sb.WriteString("_No schedule available._\n")
		return sb.String()
	}

	for _, day := range GroupByDay(entries) {
		if day.Day > 0 {
			fmt.Fprintf(&sb, "## Day %d\n\n", day.Day)
		} else {
			sb.WriteString("## Unscheduled\n\n")
		}
		for _, e := range day.Entries {
			heading := e.Topic
			if heading == "" {
				heading = "Untitled"
			}
			if e.TimeSlot != "" {
				fmt.Fprintf(&sb, "### %s (%s)\n\n", heading, e.TimeSlot)
			} else {
				fmt.Fprintf(&sb, "### %s\n\n", heading)
			}
			if e.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", e.Description)
			}
			if len(e.Activities) > 0 {
				sb.WriteString("**Activities:**\n\n")
				for _, a := range e.Activities {
					fmt.Fprintf(&sb, "- %s\n", a)
				}
				sb.WriteString("\n")
			}
			if e.ExpectedOutcome != "" {
				fmt.Fprintf(&sb, "**Expected outcome:** %s\n\n", e.ExpectedOutcome)
			}
		}
	}
	return sb.String()
}

// Day groups the entries scheduled on the same day.
type Day struct {
	Day     int
	Entries []Entry
}

// GroupByDay buckets entries by day number in ascending order. Entries without
// a day number land in a trailing bucket with Day 0.
func GroupByDay(entries []Entry) []Day {
	byDay := make(map[int][]Entry)
	var order []int
	for _, e := range entries {
		d := e.Day
		if d < 0 {
			d = 0
		}
		if _, ok := byDay[d]; !ok {
			order = append(order, d)
		}
		byDay[d] = append(byDay[d], e)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == 0 {
			return false
		}
		if order[j] == 0 {
			return true
		}
		return order[i] < order[j]
	})

	days := make([]Day, 0, len(order))
	for _, d := range order {
		days = append(days, Day{Day: d, Entries: byDay[d]})
	}
	return days
}
