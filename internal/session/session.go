// Package session persists one JSON document per study session.
package session

import (
	"errors"
	"math"
	"time"

	"github.com/felixgeelhaar/studyplan/internal/plan"
)

// ErrSessionNotFound is returned when no document exists for a session ID.
var ErrSessionNotFound = errors.New("session not found")

// Field names accepted by Store.Update.
const (
	FieldStudyPlan    = "study_plan"
	FieldStudyPlanRaw = "study_plan_raw"
	FieldNotes        = "notes"
	FieldResources    = "resources"
	FieldSyllabus     = "syllabus"
	FieldDays         = "days"
	FieldDifficulty   = "difficulty"
	FieldProgress     = "progress"
	FieldLastUpdated  = "last_updated"
)

// Session is the persisted record of one generation run and the progress made
// against it.
type Session struct {
	SessionID    string              `json:"session_id"`
	UserID       string              `json:"user_id"`
	CreatedAt    time.Time           `json:"created_at"`
	LastUpdated  time.Time           `json:"last_updated"`
	StudyPlan    []plan.Entry        `json:"study_plan"`
	StudyPlanRaw string              `json:"study_plan_raw,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Resources    string              `json:"resources,omitempty"`
	Syllabus     string              `json:"syllabus,omitempty"`
	Days         string              `json:"days,omitempty"`
	Difficulty   string              `json:"difficulty,omitempty"`
	Progress     map[string]Progress `json:"progress"`
}

// Progress records completion of a single topic.
type Progress struct {
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at"`
}

// Fields is a partial update: top-level field name to new value.
type Fields map[string]any

// Stats summarises completion of a session's schedule.
type Stats struct {
	Completed  int     `json:"completed_count"`
	Total      int     `json:"total_topics"`
	Percentage float64 `json:"completion_percentage"`
}

// ComputeStats counts completed topics against the parsed schedule. Topics
// marked complete but missing from the schedule still count as completed.
func ComputeStats(s *Session) Stats {
	var st Stats
	if s == nil {
		return st
	}
	for _, p := range s.Progress {
		if p.Completed {
			st.Completed++
		}
	}
	st.Total = len(s.StudyPlan)
	if st.Total > 0 {
		st.Percentage = math.Round(float64(st.Completed)/float64(st.Total)*1000) / 10
	}
	return st
}

// IsCompleted reports whether topic is marked complete.
func (s *Session) IsCompleted(topic string) bool {
	p, ok := s.Progress[topic]
	return ok && p.Completed
}
