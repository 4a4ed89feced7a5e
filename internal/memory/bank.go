package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the bank's file name inside the data directory.
const FileName = "memory_bank.json"

var _ Memory = (*Bank)(nil)

// Bank stores every user's history in one JSON object keyed by user ID.
// Each append rewrites the whole file; writes are serialized within the
// process only.
type Bank struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewBank opens (or lazily creates) the bank at path.
func NewBank(path string) (*Bank, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &Bank{path: path, now: time.Now}, nil
}

// SetClock overrides the time source used for completion timestamps.
func (b *Bank) SetClock(now func() time.Time) {
	b.now = now
}

func (b *Bank) AppendPreference(ctx context.Context, userID string, pref Preference) error {
	return b.modify(ctx, userID, func(h *History) {
		h.Preferences = append(h.Preferences, pref)
	})
}

func (b *Bank) AppendCompletedTopic(ctx context.Context, userID, topic, performance string) error {
	return b.modify(ctx, userID, func(h *History) {
		h.CompletedTopics = append(h.CompletedTopics, CompletedTopic{
			Topic:       topic,
			Performance: performance,
			CompletedAt: b.now(),
		})
	})
}

// History returns the user's history; unknown users get an empty one.
func (b *Bank) History(ctx context.Context, userID string) (History, error) {
	if err := ctx.Err(); err != nil {
		return History{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load()
	if err != nil {
		return History{}, err
	}
	h := all[userID]
	if h == nil {
		return History{Preferences: []Preference{}, CompletedTopics: []CompletedTopic{}}, nil
	}
	return *h, nil
}

func (b *Bank) modify(ctx context.Context, userID string, apply func(*History)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.load()
	if err != nil {
		return err
	}
	h := all[userID]
	if h == nil {
		h = &History{Preferences: []Preference{}, CompletedTopics: []CompletedTopic{}}
		all[userID] = h
	}
	apply(h)
	return b.save(all)
}

func (b *Bank) load() (map[string]*History, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*History{}, nil
		}
		return nil, fmt.Errorf("failed to read memory bank: %w", err)
	}

	all := map[string]*History{}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to decode memory bank: %w", err)
	}
	return all, nil
}

func (b *Bank) save(all map[string]*History) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory bank: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".memory_bank.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write memory bank: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write memory bank: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write memory bank: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write memory bank: %w", err)
	}
	return nil
}
