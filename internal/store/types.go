package store

import (
	"context"
	"errors"
	"time"
)

// ErrArtifactNotFound is returned by GetArtifact for unknown IDs.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a generated document (study notes, exported plans) kept on
// disk and indexed in the database.
type Artifact struct {
	ID        string
	UserID    string
	SessionID string
	Topic     string
	Path      string // relative to the artifact directory
	Type      string // e.g. "notes", "plan_markdown"
	CreatedAt time.Time
	Digest    string // sha256 of the content
}

// ArtifactFilter narrows ListArtifacts. Empty fields match everything.
type ArtifactFilter struct {
	UserID string
	Topic  string
	Type   string
}

// Storage is the metadata database behind notes and settings.
type Storage interface {
	// SaveArtifact writes content under the artifact directory and indexes it.
	SaveArtifact(ctx context.Context, artifact *Artifact, content []byte) error
	GetArtifact(ctx context.Context, id string) (*Artifact, []byte, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]*Artifact, error)
	ArtifactPath(artifact *Artifact) string

	SetConfig(ctx context.Context, key, value string) error
	// GetConfig returns "" for unknown keys.
	GetConfig(ctx context.Context, key string) (string, error)
	ListConfig(ctx context.Context) (map[string]string, error)

	Close() error
}
