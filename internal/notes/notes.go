// Package notes saves generated study notes as text files indexed in the
// metadata database.
package notes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/studyplan/internal/store"
)

// ArtifactType is the artifact type recorded for saved notes.
const ArtifactType = "notes"

// Note is a saved notes document.
type Note struct {
	ID        string
	UserID    string
	Topic     string
	Path      string
	CreatedAt time.Time
	Content   string
}

// Sink writes notes through a store.Storage.
type Sink struct {
	store store.Storage
	now   func() time.Time
}

func NewSink(s store.Storage) *Sink {
	return &Sink{store: s, now: time.Now}
}

// Save writes {user}_{topic}_{timestamp}.txt with a short header and returns
// the file path as the handle.
func (s *Sink) Save(ctx context.Context, topic, content, userID string) (string, error) {
	now := s.now()
	filename := fmt.Sprintf("%s_%s_%s.txt", safeName(userID), safeName(topic), now.Format("20060102_150405"))

	body := Render(topic, content, now)
	sum := sha256.Sum256([]byte(body))

	artifact := &store.Artifact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		Path:      filename,
		Type:      ArtifactType,
		CreatedAt: now,
		Digest:    hex.EncodeToString(sum[:]),
	}
	if err := s.store.SaveArtifact(ctx, artifact, []byte(body)); err != nil {
		return "", fmt.Errorf("failed to save notes: %w", err)
	}
	return s.store.ArtifactPath(artifact), nil
}

// List returns the user's saved notes, newest first. An empty topic matches
// every topic.
func (s *Sink) List(ctx context.Context, userID, topic string) ([]Note, error) {
	artifacts, err := s.store.ListArtifacts(ctx, store.ArtifactFilter{UserID: userID, Topic: topic, Type: ArtifactType})
	if err != nil {
		return nil, err
	}

	out := make([]Note, 0, len(artifacts))
	for _, a := range artifacts {
		_, content, err := s.store.GetArtifact(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Note{
			ID:        a.ID,
			UserID:    a.UserID,
			Topic:     a.Topic,
			Path:      s.store.ArtifactPath(a),
			CreatedAt: a.CreatedAt,
			Content:   string(content),
		})
	}
	return out, nil
}

// Render produces the on-disk notes document.
func Render(topic, content string, created time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Created: %s\n", created.Format(time.RFC3339))
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n\n")
	sb.WriteString(content)
	return sb.String()
}

// safeName keeps file names portable: spaces become underscores and path
// separators are dropped.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > 60 {
		s = string(r[:60])
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n':
			return '_'
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, s)
}
