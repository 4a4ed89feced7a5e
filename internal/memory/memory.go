// Package memory keeps each user's long-term study history in a single shared
// JSON file (the memory bank).
package memory

import (
	"context"
	"time"
)

// Memory is the append-only preference history consulted across sessions.
type Memory interface {
	AppendPreference(ctx context.Context, userID string, pref Preference) error
	AppendCompletedTopic(ctx context.Context, userID, topic, performance string) error
	History(ctx context.Context, userID string) (History, error)
}

// Preference is recorded once per successful generation.
type Preference struct {
	Difficulty string `json:"difficulty"`
	Topic      string `json:"topic"`
}

// CompletedTopic is recorded each time a topic is marked complete.
type CompletedTopic struct {
	Topic       string    `json:"topic"`
	Performance string    `json:"performance"`
	CompletedAt time.Time `json:"completed_at"`
}

// History is one user's entry in the bank.
type History struct {
	Preferences     []Preference     `json:"preferences"`
	CompletedTopics []CompletedTopic `json:"completed_topics"`
}

// PreferredDifficulty returns the most frequently requested difficulty, or ""
// when no preferences were recorded. Ties go to the most recent.
func (h History) PreferredDifficulty() string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, p := range h.Preferences {
		if p.Difficulty == "" {
			continue
		}
		counts[p.Difficulty]++
		if counts[p.Difficulty] >= bestCount {
			best, bestCount = p.Difficulty, counts[p.Difficulty]
		}
	}
	return best
}
