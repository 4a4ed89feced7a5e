// Package orchestrate coordinates the three generation agents and persists
// their combined output.
package orchestrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/studyplan/internal/events"
	"github.com/felixgeelhaar/studyplan/internal/memory"
	"github.com/felixgeelhaar/studyplan/internal/observe"
	"github.com/felixgeelhaar/studyplan/internal/plan"
	"github.com/felixgeelhaar/studyplan/internal/provider"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// Agent identifies one of the generation tasks.
type Agent string

const (
	AgentStudyPlan Agent = "StudyPlanAgent"
	AgentNotes     Agent = "NotesAgent"
	AgentResources Agent = "ResourceAgent"
)

// DefaultUserID is used when neither the request nor the config names a user.
const DefaultUserID = "default_user"

// ErrUnknownTopic is returned by MarkProgress in strict mode when the topic is
// not part of the session's schedule.
var ErrUnknownTopic = errors.New("topic not in study plan")

// AgentError reports which agent failed during generation.
type AgentError struct {
	Agent Agent
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// SessionStore is the subset of session.Store the orchestrator needs.
type SessionStore interface {
	NewID(userID string) string
	Init(ctx context.Context, id, userID string) error
	Load(ctx context.Context, id string) (*session.Session, error)
	Update(ctx context.Context, id string, fields session.Fields) error
	MarkTopicComplete(ctx context.Context, id, topic string) error
	UnmarkTopic(ctx context.Context, id, topic string) (bool, error)
}

// PreferenceStore records long-term learner history.
type PreferenceStore interface {
	AppendPreference(ctx context.Context, userID string, pref memory.Preference) error
	AppendCompletedTopic(ctx context.Context, userID, topic, performance string) error
}

// NotesSink persists generated notes and returns a handle to them.
type NotesSink interface {
	Save(ctx context.Context, topic, content, userID string) (string, error)
}

// Config wires an Orchestrator. StudyPlan, Sessions, Memory and Notes are
// required; Notes and Resources providers default to the StudyPlan provider.
type Config struct {
	StudyPlan provider.Provider
	Notes     provider.Provider
	Resources provider.Provider

	Sessions  SessionStore
	Memory    PreferenceStore
	NotesSink NotesSink

	Observer *observe.Observer
	Events   *events.Bus

	// UserID is the default owner of new sessions.
	UserID string
	// Workers bounds concurrent model calls; values below 3 are raised to 3.
	Workers int
	// StrictTopics rejects progress on topics missing from the schedule.
	StrictTopics bool
}

type Orchestrator struct {
	agents       map[Agent]provider.Provider
	sessions     SessionStore
	memory       PreferenceStore
	notes        NotesSink
	obs          *observe.Observer
	bus          *events.Bus
	parser       *plan.Parser
	userID       string
	workers      int
	strictTopics bool
}

func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.StudyPlan == nil:
		return nil, errors.New("orchestrate: study plan provider is required")
	case cfg.Sessions == nil:
		return nil, errors.New("orchestrate: session store is required")
	case cfg.Memory == nil:
		return nil, errors.New("orchestrate: preference store is required")
	case cfg.NotesSink == nil:
		return nil, errors.New("orchestrate: notes sink is required")
	}

	notesProvider, resourcesProvider := cfg.Notes, cfg.Resources
	if notesProvider == nil {
		notesProvider = cfg.StudyPlan
	}
	if resourcesProvider == nil {
		resourcesProvider = cfg.StudyPlan
	}

	obs := cfg.Observer
	if obs == nil {
		obs = observe.Nop()
	}
	userID := cfg.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	workers := cfg.Workers
	if workers < 3 {
		workers = 3
	}

	return &Orchestrator{
		agents: map[Agent]provider.Provider{
			AgentStudyPlan: cfg.StudyPlan,
			AgentNotes:     notesProvider,
			AgentResources: resourcesProvider,
		},
		sessions:     cfg.Sessions,
		memory:       cfg.Memory,
		notes:        cfg.NotesSink,
		obs:          obs,
		bus:          cfg.Events,
		parser:       plan.NewParser(obs.Log()),
		userID:       userID,
		workers:      workers,
		strictTopics: cfg.StrictTopics,
	}, nil
}

// UserID returns the default session owner.
func (o *Orchestrator) UserID() string {
	return o.userID
}
