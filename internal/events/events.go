// Package events is a small synchronous publish/subscribe bus carrying
// generation and progress events to the terminal UI and log subscribers.
package events

import (
	"sync"
	"time"
)

// Type names an event.
type Type string

const (
	GenerationStart  Type = "generation_start"
	GenerationEnd    Type = "generation_end"
	AgentStart       Type = "agent_start"
	AgentEnd         Type = "agent_end"
	AgentFailed      Type = "agent_failed"
	SessionPersisted Type = "session_persisted"
	NotesSaved       Type = "notes_saved"
	TopicCompleted   Type = "topic_completed"
	TopicUncompleted Type = "topic_uncompleted"
)

// Event is one published occurrence.
type Event struct {
	Type      Type
	Timestamp time.Time
	SessionID string
	Agent     string
	Data      map[string]any
}

// Handler receives events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Event)

// Bus fans events out to subscribers. The zero value is not usable; use New.
// A nil *Bus silently drops everything.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[Type][]Handler
	allHandlers []Handler
}

func New() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, h)
}

// Publish delivers e to the type's handlers, then to catch-all handlers.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	specific := append([]Handler(nil), b.handlers[e.Type]...)
	all := append([]Handler(nil), b.allHandlers...)
	b.mu.RUnlock()

	for _, h := range specific {
		h(e)
	}
	for _, h := range all {
		h(e)
	}
}
