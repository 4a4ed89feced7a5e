package session

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/studyplan/internal/plan"
)

// Markdown renders a whole session: schedule with completion marks, notes,
// resources and progress summary.
func Markdown(s *Session) string {
	var sb strings.Builder
	title := "Study Plan"
	if s.Syllabus != "" {
		title = "Study Plan: " + firstLine(s.Syllabus)
	}

	entries := make([]plan.Entry, len(s.StudyPlan))
	for i, e := range s.StudyPlan {
		if s.IsCompleted(e.Topic) {
			e.Topic = "✓ " + e.Topic
		}
		entries[i] = e
	}
	sb.WriteString(plan.Markdown(title, entries))

	fmt.Fprintf(&sb, "\n---\n\n**Session:** `%s`  \n", s.SessionID)
	if s.Days != "" {
		fmt.Fprintf(&sb, "**Days:** %s  \n", s.Days)
	}
	if s.Difficulty != "" {
		fmt.Fprintf(&sb, "**Difficulty:** %s  \n", s.Difficulty)
	}
	st := ComputeStats(s)
	fmt.Fprintf(&sb, "**Progress:** %d/%d topics (%.1f%%)\n", st.Completed, st.Total, st.Percentage)

	if strings.TrimSpace(s.Notes) != "" {
		fmt.Fprintf(&sb, "\n## Notes\n\n%s\n", strings.TrimSpace(s.Notes))
	}
	if strings.TrimSpace(s.Resources) != "" {
		fmt.Fprintf(&sb, "\n## Resources\n\n%s\n", strings.TrimSpace(s.Resources))
	}
	return sb.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 80 {
		s = string(r[:77]) + "..."
	}
	return s
}
