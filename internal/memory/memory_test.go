package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestBank(t *testing.T) *Bank {
	t.Helper()
	b, err := NewBank(filepath.Join(t.TempDir(), "data", FileName))
	if err != nil {
		t.Fatalf("NewBank failed: %v", err)
	}
	return b
}

func TestBank_UnknownUser(t *testing.T) {
	b := newTestBank(t)
	h, err := b.History(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(h.Preferences) != 0 || len(h.CompletedTopics) != 0 {
		t.Errorf("expected empty history, got %+v", h)
	}
}

func TestBank_AppendsInOrder(t *testing.T) {
	b := newTestBank(t)
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return fixed })

	b.AppendPreference(ctx, "alice", Preference{Difficulty: "easy", Topic: "Sets"})
	b.AppendPreference(ctx, "alice", Preference{Difficulty: "hard", Topic: "Graphs"})
	b.AppendPreference(ctx, "bob", Preference{Difficulty: "medium", Topic: "Logic"})
	if err := b.AppendCompletedTopic(ctx, "alice", "Sets", "completed"); err != nil {
		t.Fatalf("AppendCompletedTopic failed: %v", err)
	}

	h, _ := b.History(ctx, "alice")
	if len(h.Preferences) != 2 || h.Preferences[0].Topic != "Sets" || h.Preferences[1].Topic != "Graphs" {
		t.Errorf("unexpected preferences %+v", h.Preferences)
	}
	if len(h.CompletedTopics) != 1 {
		t.Fatalf("expected 1 completed topic, got %d", len(h.CompletedTopics))
	}
	ct := h.CompletedTopics[0]
	if ct.Topic != "Sets" || ct.Performance != "completed" || !ct.CompletedAt.Equal(fixed) {
		t.Errorf("unexpected completed topic %+v", ct)
	}

	other, _ := b.History(ctx, "bob")
	if len(other.Preferences) != 1 || len(other.CompletedTopics) != 0 {
		t.Errorf("users must not share history: %+v", other)
	}
}

func TestBank_FileLayout(t *testing.T) {
	b := newTestBank(t)
	b.AppendPreference(context.Background(), "alice", Preference{Difficulty: "easy", Topic: "Sets"})

	raw, err := os.ReadFile(b.path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var doc map[string]map[string][]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("bank is not the expected shape: %v", err)
	}
	if doc["alice"]["preferences"][0]["difficulty"] != "easy" {
		t.Errorf("unexpected document %s", raw)
	}
	if _, ok := doc["alice"]["completed_topics"]; !ok {
		t.Errorf("completed_topics should be present: %s", raw)
	}
}

func TestBank_ConcurrentAppends(t *testing.T) {
	b := newTestBank(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.AppendCompletedTopic(ctx, "alice", "t", "completed")
		}()
	}
	wg.Wait()

	h, _ := b.History(ctx, "alice")
	if len(h.CompletedTopics) != 20 {
		t.Errorf("expected 20 entries, got %d", len(h.CompletedTopics))
	}
}

func TestBank_CorruptFile(t *testing.T) {
	b := newTestBank(t)
	os.WriteFile(b.path, []byte("{oops"), 0o644)
	if _, err := b.History(context.Background(), "alice"); err == nil {
		t.Error("expected decode error")
	}
}

func TestHistory_PreferredDifficulty(t *testing.T) {
	h := History{Preferences: []Preference{
		{Difficulty: "easy"}, {Difficulty: "hard"}, {Difficulty: "hard"}, {Difficulty: "easy"},
	}}
	if got := h.PreferredDifficulty(); got != "easy" {
		t.Errorf("expected most recent of tied difficulties, got %q", got)
	}
	if (History{}).PreferredDifficulty() != "" {
		t.Error("expected empty preference")
	}
}
