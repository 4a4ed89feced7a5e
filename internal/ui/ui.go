// Package ui presents generation progress and study plans in the terminal.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/studyplan/internal/events"
)

// Agent states reported through UI.Agent.
const (
	StateRunning   = "running"
	StateDone      = "done"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// UI receives progress while a study plan is generated.
type UI interface {
	Status(msg string)
	Agent(name, state string, elapsed time.Duration)
	Log(msg string)
	Done(err error)
}

type SilentUI struct{}

func (SilentUI) Status(string)                       {}
func (SilentUI) Agent(string, string, time.Duration) {}
func (SilentUI) Log(string)                          {}
func (SilentUI) Done(error)                          {}

// Attach forwards bus events to u.
func Attach(bus *events.Bus, u UI) {
	bus.SubscribeAll(func(e events.Event) {
		switch e.Type {
		case events.GenerationStart:
			u.Status("Generating study plan")
		case events.AgentStart:
			u.Agent(e.Agent, StateRunning, 0)
		case events.AgentEnd:
			d, _ := e.Data["duration"].(time.Duration)
			u.Agent(e.Agent, StateDone, d)
		case events.AgentFailed:
			state, _ := e.Data["status"].(string)
			if state != StateCancelled {
				state = StateFailed
			}
			u.Agent(e.Agent, state, 0)
			if msg, ok := e.Data["error"].(string); ok {
				u.Log(fmt.Sprintf("%s: %s", e.Agent, msg))
			}
		case events.SessionPersisted:
			u.Log(fmt.Sprintf("Session %s saved (%v entries)", e.SessionID, e.Data["entries"]))
		case events.NotesSaved:
			u.Log(fmt.Sprintf("Notes saved to %v", e.Data["path"]))
		case events.TopicCompleted:
			u.Log(fmt.Sprintf("Completed: %v", e.Data["topic"]))
		case events.GenerationEnd:
			if msg, ok := e.Data["error"].(string); ok {
				u.Done(fmt.Errorf("%s", msg))
				return
			}
			u.Done(nil)
		}
	})
}

// Plain writes one line per update; used when no terminal UI is running.
type Plain struct {
	w io.Writer
}

func NewPlain(w io.Writer) *Plain {
	return &Plain{w: w}
}

func (p *Plain) Status(msg string) {
	fmt.Fprintln(p.w, InfoStyle.Render("» "+msg))
}

func (p *Plain) Agent(name, state string, elapsed time.Duration) {
	if elapsed > 0 {
		fmt.Fprintf(p.w, "  %s %s (%.1fs)\n", name, state, elapsed.Seconds())
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", name, state)
}

func (p *Plain) Log(msg string) {
	fmt.Fprintln(p.w, "  "+msg)
}

func (p *Plain) Done(err error) {
	if err != nil {
		fmt.Fprintln(p.w, ErrorStyle.Render("» generation failed"))
	}
}
