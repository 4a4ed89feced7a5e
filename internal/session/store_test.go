package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/studyplan/internal/plan"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	s, err := NewStore(t.TempDir(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s, clock
}

func TestStore_CreateAndLoad(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !regexp.MustCompile(`^alice_20260314_093000_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("unexpected session id %q", id)
	}

	doc, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.UserID != "alice" || doc.SessionID != id {
		t.Errorf("unexpected document %+v", doc)
	}
	if doc.StudyPlan != nil || len(doc.Progress) != 0 {
		t.Errorf("new session should have no schedule and empty progress")
	}

	raw, _ := os.ReadFile(filepath.Join(s.Dir(), id+".json"))
	var generic map[string]any
	json.Unmarshal(raw, &generic)
	if v, ok := generic["study_plan"]; !ok || v != nil {
		t.Errorf("study_plan should be stored as null, got %v", v)
	}
}

func TestStore_IDsAreUniqueWithinOneSecond(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := s.NewID("bob")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Load(context.Background(), "nobody_20260101_000000_deadbeef")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	err = s.Update(context.Background(), "nobody_20260101_000000_deadbeef", Fields{FieldNotes: "x"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound from Update, got %v", err)
	}

	if _, err := s.Load(context.Background(), "../etc/passwd"); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected invalid id error, got %v", err)
	}
}

func TestStore_UpdateIsShallowMerge(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, "alice")

	clock.Advance(time.Minute)
	entries := []plan.Entry{{Day: 1, Topic: "Sets"}}
	err := s.Update(ctx, id, Fields{
		FieldStudyPlan: entries,
		FieldNotes:     "notes v1",
		FieldDays:      "3",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	clock.Advance(time.Minute)
	if err := s.Update(ctx, id, Fields{FieldNotes: "notes v2"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _ := s.Load(ctx, id)
	if doc.Notes != "notes v2" {
		t.Errorf("Expected notes v2, got %q", doc.Notes)
	}
	if doc.Days != "3" || len(doc.StudyPlan) != 1 {
		t.Errorf("fields not named in the update must be kept: %+v", doc)
	}
	if !doc.LastUpdated.Equal(clock.Now()) {
		t.Errorf("last_updated = %v, want %v", doc.LastUpdated, clock.Now())
	}
	if doc.CreatedAt.Equal(doc.LastUpdated) {
		t.Error("created_at should not move")
	}
}

func TestStore_Progress(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, "alice")

	before, _ := s.Load(ctx, id)

	clock.Advance(time.Hour)
	if err := s.MarkTopicComplete(ctx, id, "Sets"); err != nil {
		t.Fatalf("MarkTopicComplete failed: %v", err)
	}
	if err := s.MarkTopicComplete(ctx, id, "Not in plan"); err != nil {
		t.Fatalf("MarkTopicComplete failed: %v", err)
	}

	after, _ := s.Load(ctx, id)
	p := after.Progress["Sets"]
	if !p.Completed || !p.CompletedAt.Equal(clock.Now()) {
		t.Errorf("unexpected progress %+v", p)
	}
	if !after.IsCompleted("Not in plan") {
		t.Error("topics outside the schedule are accepted")
	}
	if after.Syllabus != before.Syllabus || after.UserID != before.UserID {
		t.Error("marking progress changed unrelated fields")
	}

	removed, err := s.UnmarkTopic(ctx, id, "Sets")
	if err != nil || !removed {
		t.Fatalf("UnmarkTopic = %v, %v", removed, err)
	}
	removed, _ = s.UnmarkTopic(ctx, id, "Sets")
	if removed {
		t.Error("second unmark should report nothing removed")
	}

	final, _ := s.Load(ctx, id)
	if final.IsCompleted("Sets") || !final.IsCompleted("Not in plan") {
		t.Errorf("unexpected progress after unmark: %+v", final.Progress)
	}
}

func TestStore_RemarkKeepsOneEntryWithLatestStamp(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, "alice")

	clock.Advance(time.Hour)
	if err := s.MarkTopicComplete(ctx, id, "Sets"); err != nil {
		t.Fatalf("MarkTopicComplete failed: %v", err)
	}
	first := clock.Now()

	clock.Advance(2 * time.Hour)
	if err := s.MarkTopicComplete(ctx, id, "Sets"); err != nil {
		t.Fatalf("MarkTopicComplete failed: %v", err)
	}
	second := clock.Now()

	doc, _ := s.Load(ctx, id)
	if len(doc.Progress) != 1 {
		t.Fatalf("Expected 1 progress entry, got %d: %+v", len(doc.Progress), doc.Progress)
	}
	got := doc.Progress["Sets"].CompletedAt
	if !got.Equal(second) || got.Equal(first) {
		t.Errorf("completed_at = %v, want %v", got, second)
	}
}

func TestStore_ConcurrentMarksAreSerialized(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id, _ := s.Create(ctx, "alice")

	topics := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			if err := s.MarkTopicComplete(ctx, id, topic); err != nil {
				t.Errorf("MarkTopicComplete(%s) failed: %v", topic, err)
			}
		}(topic)
	}
	wg.Wait()

	doc, _ := s.Load(ctx, id)
	if len(doc.Progress) != len(topics) {
		t.Errorf("Expected %d progress entries, got %d", len(topics), len(doc.Progress))
	}
}

func TestStore_List(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	first, _ := s.Create(ctx, "ann")
	clock.Advance(time.Second)
	second, _ := s.Create(ctx, "ann")
	clock.Advance(time.Second)
	s.Create(ctx, "ann_lee")
	s.Create(ctx, "bob")

	clock.Advance(time.Minute)
	s.Update(ctx, first, Fields{FieldNotes: "touched"})

	os.WriteFile(filepath.Join(s.Dir(), "ann_broken.json"), []byte("{not json"), 0o644)

	got, err := s.List(ctx, "ann")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 sessions for ann, got %d", len(got))
	}
	if got[0].SessionID != first || got[1].SessionID != second {
		t.Errorf("Expected newest update first, got %s, %s", got[0].SessionID, got[1].SessionID)
	}

	all, _ := s.List(ctx, "")
	if len(all) != 4 {
		t.Errorf("Expected 4 sessions overall, got %d", len(all))
	}

	none, _ := s.List(ctx, "carol")
	if len(none) != 0 {
		t.Errorf("Expected no sessions for carol, got %d", len(none))
	}
}

func TestComputeStats(t *testing.T) {
	doc := &Session{
		StudyPlan: []plan.Entry{{Topic: "a"}, {Topic: "b"}, {Topic: "c"}},
		Progress: map[string]Progress{
			"a": {Completed: true},
			"z": {Completed: true},
		},
	}
	st := ComputeStats(doc)
	if st.Completed != 2 || st.Total != 3 || st.Percentage != 66.7 {
		t.Errorf("unexpected stats %+v", st)
	}
	if ComputeStats(&Session{}).Percentage != 0 {
		t.Error("empty schedule should report 0%")
	}
}
