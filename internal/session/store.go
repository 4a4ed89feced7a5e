package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"
)

const idTimeLayout = "20060102_150405"

// Store keeps each session in <dir>/<session_id>.json.
//
// Read-modify-write sequences are serialized per session ID within one
// process. Nothing coordinates separate processes: at most one process may
// write a given session at a time.
type Store struct {
	dir string
	log *bolt.Logger
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for skipped documents.
func WithLogger(log *bolt.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore creates the session directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	s := &Store{
		dir:   dir,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding the session documents.
func (s *Store) Dir() string {
	return s.dir
}

// NewID reserves an identifier without writing anything:
// {user_id}_{YYYYMMDD_HHMMSS}_{8 hex}.
func (s *Store) NewID(userID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s", userID, s.now().Format(idTimeLayout), suffix)
}

// Create writes a fresh session for userID and returns its ID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	id := s.NewID(userID)
	if err := s.Init(ctx, id, userID); err != nil {
		return "", err
	}
	return id, nil
}

// Init writes the initial document for a reserved ID: empty progress and no
// schedule yet.
func (s *Store) Init(ctx context.Context, id, userID string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.lock(id)
	defer unlock()

	now := s.now()
	doc := &Session{
		SessionID:   id,
		UserID:      userID,
		CreatedAt:   now,
		LastUpdated: now,
		Progress:    map[string]Progress{},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.write(id, data)
}

// Load reads a session document.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return decode(id, data)
}

// Update merges fields into the stored document, replacing each named
// top-level field wholesale, and stamps last_updated.
func (s *Store) Update(ctx context.Context, id string, fields Fields) error {
	return s.modify(ctx, id, func(doc map[string]json.RawMessage) error {
		for k, v := range fields {
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to encode field %s: %w", k, err)
			}
			doc[k] = raw
		}
		return nil
	})
}

// MarkTopicComplete records topic as completed now. Topics are not checked
// against the schedule.
func (s *Store) MarkTopicComplete(ctx context.Context, id, topic string) error {
	return s.modify(ctx, id, func(doc map[string]json.RawMessage) error {
		progress, err := progressOf(doc)
		if err != nil {
			return err
		}
		progress[topic] = Progress{Completed: true, CompletedAt: s.now()}
		return setProgress(doc, progress)
	})
}

// UnmarkTopic removes the progress entry for topic. It reports whether an
// entry existed.
func (s *Store) UnmarkTopic(ctx context.Context, id, topic string) (bool, error) {
	var removed bool
	err := s.modify(ctx, id, func(doc map[string]json.RawMessage) error {
		progress, err := progressOf(doc)
		if err != nil {
			return err
		}
		if _, ok := progress[topic]; ok {
			delete(progress, topic)
			removed = true
		}
		return setProgress(doc, progress)
	})
	return removed, err
}

// List returns the sessions owned by userID, most recently updated first. An
// empty userID lists every session. Unreadable documents are skipped.
func (s *Store) List(ctx context.Context, userID string) ([]*Session, error) {
	pattern := "*.json"
	if userID != "" {
		pattern = escapeGlob(userID) + "_*.json"
	}

	matches, err := doublestar.Glob(os.DirFS(s.dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*Session, 0, len(matches))
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(name, ".json")
		doc, err := s.Load(ctx, id)
		if err != nil {
			if s.log != nil {
				s.log.Warn().Str("file", name).Err(err).Msg("skipping unreadable session")
			}
			continue
		}
		// "ann_*" also matches sessions of user "ann_lee"
		if userID != "" && doc.UserID != userID {
			continue
		}
		sessions = append(sessions, doc)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
	})
	return sessions, nil
}

func (s *Store) modify(ctx context.Context, id string, apply func(map[string]json.RawMessage) error) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.lock(id)
	defer unlock()

	data, err := s.read(id)
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if err := apply(doc); err != nil {
		return err
	}

	stamp, _ := json.Marshal(s.now())
	doc[FieldLastUpdated] = stamp

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", id, err)
	}
	return s.write(id, out)
}

func (s *Store) lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) read(id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return data, nil
}

// write replaces the document atomically so readers never see a partial file.
func (s *Store) write(id string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session %s: %w", id, err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session %s: %w", id, err)
	}
	return nil
}

func decode(id string, data []byte) (*Session, error) {
	var doc Session
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if doc.Progress == nil {
		doc.Progress = map[string]Progress{}
	}
	return &doc, nil
}

func progressOf(doc map[string]json.RawMessage) (map[string]Progress, error) {
	progress := map[string]Progress{}
	if raw, ok := doc[FieldProgress]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &progress); err != nil {
			return nil, fmt.Errorf("failed to decode progress: %w", err)
		}
	}
	return progress, nil
}

func setProgress(doc map[string]json.RawMessage, progress map[string]Progress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	doc[FieldProgress] = raw
	return nil
}

// ErrInvalidID is returned for session IDs that cannot name a file in the
// session directory, e.g. a user ID containing a path separator.
var ErrInvalidID = errors.New("invalid session id")

// ValidateID reports whether id can be stored.
func ValidateID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
