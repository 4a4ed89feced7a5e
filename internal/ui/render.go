package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/plan"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dayStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	topicStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// Section renders body in a bordered box under a title.
func Section(title, body string) string {
	return TitleStyle.Render(title) + "\n" + sectionStyle.Render(strings.TrimSpace(body)) + "\n"
}

// Schedule renders entries grouped by day, ticking completed topics.
func Schedule(entries []plan.Entry, progress map[string]session.Progress) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No structured schedule could be parsed from the model output.")
	}

	var sb strings.Builder
	for i, day := range plan.GroupByDay(entries) {
		if i > 0 {
			sb.WriteString("\n")
		}
		if day.Day > 0 {
			sb.WriteString(dayStyle.Render(fmt.Sprintf("Day %d", day.Day)) + "\n")
		} else {
			sb.WriteString(dayStyle.Render("Unscheduled") + "\n")
		}
		for _, e := range day.Entries {
			mark := mutedStyle.Render("○")
			if p, ok := progress[e.Topic]; ok && p.Completed {
				mark = doneStyle.Render("✓")
			}
			line := fmt.Sprintf("  %s %s", mark, topicStyle.Render(e.Topic))
			if e.TimeSlot != "" {
				line += mutedStyle.Render("  " + e.TimeSlot)
			}
			sb.WriteString(line + "\n")
			if e.Description != "" {
				sb.WriteString("      " + e.Description + "\n")
			}
			for _, a := range e.Activities {
				sb.WriteString("      - " + a + "\n")
			}
			if e.ExpectedOutcome != "" {
				sb.WriteString(mutedStyle.Render("      → "+e.ExpectedOutcome) + "\n")
			}
		}
	}
	return sb.String()
}

// Bar draws a fixed-width completion bar.
func Bar(percentage float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(percentage / 100 * float64(width))
	filled = max(0, min(filled, width))
	return doneStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

// Stats renders completion of a session.
func Stats(st session.Stats) string {
	return fmt.Sprintf("%s %d/%d topics (%.1f%%)", Bar(st.Percentage, 20), st.Completed, st.Total, st.Percentage)
}

// Progress lists topics with their completion times.
func Progress(s *session.Session) string {
	var sb strings.Builder
	sb.WriteString(Stats(session.ComputeStats(s)) + "\n\n")
	for _, topic := range plan.Topics(s.StudyPlan) {
		if p, ok := s.Progress[topic]; ok && p.Completed {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", doneStyle.Render("✓"), topic, mutedStyle.Render(p.CompletedAt.Format("2006-01-02 15:04"))))
		} else {
			sb.WriteString(fmt.Sprintf("  %s %s\n", mutedStyle.Render("○"), topic))
		}
	}
	// completions recorded for topics outside the schedule
	extra := make([]string, 0, len(s.Progress))
	for topic := range s.Progress {
		extra = append(extra, topic)
	}
	sort.Strings(extra)
	for _, topic := range extra {
		if p := s.Progress[topic]; p.Completed && !plan.HasTopic(s.StudyPlan, topic) {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n", doneStyle.Render("✓"), topic, mutedStyle.Render("(not in schedule)")))
		}
	}
	return sb.String()
}

// Trace summarises per-agent timing.
func Trace(tr orchestrate.Trace) string {
	var sb strings.Builder
	for _, t := range tr.Tasks {
		status := doneStyle.Render(t.Status)
		if t.Status != orchestrate.StatusSuccess {
			status = ErrorStyle.Render(t.Status)
		}
		sb.WriteString(fmt.Sprintf("  %-16s %-10s %6.2fs  %d tokens\n", t.Agent, status, t.DurationSeconds, t.Tokens))
	}
	sb.WriteString(fmt.Sprintf("  %-16s %6.2fs\n", "Total", tr.TotalDurationSeconds))
	return sb.String()
}

// SessionList renders a user's sessions as a table.
func SessionList(sessions []*session.Session) string {
	if len(sessions) == 0 {
		return mutedStyle.Render("No sessions found.")
	}
	var sb strings.Builder
	for _, s := range sessions {
		st := session.ComputeStats(s)
		syllabus := s.Syllabus
		if r := []rune(syllabus); len(r) > 40 {
			syllabus = string(r[:37]) + "..."
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s\n", topicStyle.Render(s.SessionID), mutedStyle.Render(s.LastUpdated.Local().Format("2006-01-02 15:04")), Stats(st)))
		sb.WriteString(fmt.Sprintf("    %s (%s days, %s)\n", syllabus, s.Days, s.Difficulty))
	}
	return sb.String()
}
