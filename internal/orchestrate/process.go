package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/studyplan/internal/events"
	"github.com/felixgeelhaar/studyplan/internal/memory"
	"github.com/felixgeelhaar/studyplan/internal/observe"
	"github.com/felixgeelhaar/studyplan/internal/plan"
	"github.com/felixgeelhaar/studyplan/internal/provider"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// Request is one generation run.
type Request struct {
	Syllabus   string
	Days       string
	Difficulty string
	// SessionID reuses an existing session; empty starts a new one.
	SessionID string
	// UserID overrides the orchestrator's default owner for new sessions.
	UserID string
}

// Result is what Process returns to the caller.
type Result struct {
	SessionID    string       `json:"session_id"`
	StudyPlanRaw string       `json:"study_plan"`
	StudyPlan    []plan.Entry `json:"study_plan_parsed"`
	Notes        string       `json:"notes"`
	Resources    string       `json:"resources"`
	NotesFile    string       `json:"notes_file"`
	Trace        Trace        `json:"trace_summary"`
}

// Task statuses reported in a Trace.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// TaskTrace is the timing of one agent call.
type TaskTrace struct {
	Agent           Agent         `json:"agent"`
	Action          string        `json:"action"`
	Status          string        `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         time.Time     `json:"ended_at"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
	Tokens          int           `json:"tokens"`
	Error           string        `json:"error,omitempty"`
}

// Trace summarises a Process call.
type Trace struct {
	TotalDuration        time.Duration `json:"-"`
	TotalDurationSeconds float64       `json:"total_duration_seconds"`
	Tasks                []TaskTrace   `json:"agents"`
}

// Task returns the trace of agent, if it ran.
func (t Trace) Task(agent Agent) (TaskTrace, bool) {
	for _, tt := range t.Tasks {
		if tt.Agent == agent {
			return tt, true
		}
	}
	return TaskTrace{}, false
}

type task struct {
	agent  Agent
	action string
	prompt string
}

// Process runs the three agents concurrently, then persists the schedule,
// notes and resources. Nothing is written unless all three succeed.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Result, error) {
	ctx, span := o.obs.StartSpan(ctx, "orchestrate.Process")
	defer span.End()
	started := time.Now()

	userID := req.UserID
	if userID == "" {
		userID = o.userID
	}

	sessionID := req.SessionID
	fresh := sessionID == ""
	if fresh {
		sessionID = o.sessions.NewID(userID)
		if err := session.ValidateID(sessionID); err != nil {
			observe.RecordError(span, err)
			return nil, err
		}
	} else {
		doc, err := o.sessions.Load(ctx, sessionID)
		if err != nil {
			observe.RecordError(span, err)
			return nil, err
		}
		userID = doc.UserID
	}
	span.SetAttributes(attribute.String("session.id", sessionID), attribute.String("user.id", userID))

	log := o.obs.Log().With().Str("session_id", sessionID).Logger()
	log.Info().Str("difficulty", req.Difficulty).Str("days", req.Days).Msg("generating study plan")
	o.bus.Publish(events.Event{Type: events.GenerationStart, SessionID: sessionID})

	tasks := []task{
		{agent: AgentStudyPlan, action: "create_study_plan", prompt: StudyPlanPrompt(req.Syllabus, req.Days, req.Difficulty)},
		{agent: AgentNotes, action: "generate_notes", prompt: NotesPrompt(req.Syllabus)},
		// resources work from the syllabus so that all three calls are independent
		{agent: AgentResources, action: "fetch_resources", prompt: ResourcesPrompt(req.Syllabus)},
	}

	outputs, traces, err := o.fanOut(ctx, sessionID, tasks)
	trace := Trace{Tasks: traces}
	if err != nil {
		observe.RecordError(span, err)
		o.bus.Publish(events.Event{Type: events.GenerationEnd, SessionID: sessionID, Data: map[string]any{"error": err.Error()}})
		return nil, err
	}

	planRaw := outputs[AgentStudyPlan].Content
	notesText := outputs[AgentNotes].Content
	resourcesText := outputs[AgentResources].Content
	entries := o.parser.Parse(planRaw)

	if fresh {
		if err := o.sessions.Init(ctx, sessionID, userID); err != nil {
			observe.RecordError(span, err)
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}
	err = o.sessions.Update(ctx, sessionID, session.Fields{
		session.FieldStudyPlan:    entries,
		session.FieldStudyPlanRaw: planRaw,
		session.FieldNotes:        notesText,
		session.FieldResources:    resourcesText,
		session.FieldSyllabus:     req.Syllabus,
		session.FieldDays:         req.Days,
		session.FieldDifficulty:   req.Difficulty,
	})
	if err != nil {
		observe.RecordError(span, err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	o.bus.Publish(events.Event{Type: events.SessionPersisted, SessionID: sessionID, Data: map[string]any{"entries": len(entries)}})

	notesFile, err := o.notes.Save(ctx, req.Syllabus, notesText, userID)
	if err != nil {
		observe.RecordError(span, err)
		return nil, err
	}
	o.bus.Publish(events.Event{Type: events.NotesSaved, SessionID: sessionID, Data: map[string]any{"path": notesFile}})

	if err := o.memory.AppendPreference(ctx, userID, memory.Preference{Difficulty: req.Difficulty, Topic: req.Syllabus}); err != nil {
		observe.RecordError(span, err)
		return nil, fmt.Errorf("failed to record preference: %w", err)
	}

	trace.TotalDuration = time.Since(started)
	trace.TotalDurationSeconds = trace.TotalDuration.Seconds()
	o.obs.AgentComplete("Orchestrator", "process", trace.TotalDuration)
	o.bus.Publish(events.Event{Type: events.GenerationEnd, SessionID: sessionID})

	return &Result{
		SessionID:    sessionID,
		StudyPlanRaw: planRaw,
		StudyPlan:    entries,
		Notes:        notesText,
		Resources:    resourcesText,
		NotesFile:    notesFile,
		Trace:        trace,
	}, nil
}

// fanOut runs every task on the worker pool and waits for all of them. The
// first failure cancels the remaining calls.
func (o *Orchestrator) fanOut(ctx context.Context, sessionID string, tasks []task) (map[Agent]*provider.Response, []TaskTrace, error) {
	responses := make([]*provider.Response, len(tasks))
	traces := make([]TaskTrace, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, t := range tasks {
		g.Go(func() error {
			resp, tr, err := o.runTask(gctx, sessionID, t)
			responses[i], traces[i] = resp, tr
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, traces, err
	}

	out := make(map[Agent]*provider.Response, len(tasks))
	for i, t := range tasks {
		out[t.agent] = responses[i]
	}
	return out, traces, nil
}

func (o *Orchestrator) runTask(ctx context.Context, sessionID string, t task) (*provider.Response, TaskTrace, error) {
	p := o.agents[t.agent]
	ctx, span := o.obs.StartSpan(ctx, "agent."+t.action,
		attribute.String("agent", string(t.agent)),
		attribute.String("provider", p.Name()),
	)
	defer span.End()

	tr := TaskTrace{Agent: t.agent, Action: t.action, StartedAt: time.Now()}
	o.obs.AgentStart(string(t.agent), t.action)
	o.bus.Publish(events.Event{Type: events.AgentStart, SessionID: sessionID, Agent: string(t.agent)})

	resp, err := p.Generate(ctx, t.prompt)

	tr.EndedAt = time.Now()
	tr.Duration = tr.EndedAt.Sub(tr.StartedAt)
	tr.DurationSeconds = tr.Duration.Seconds()

	if err != nil {
		tr.Status = StatusFailed
		if errors.Is(err, context.Canceled) {
			tr.Status = StatusCancelled
		}
		tr.Error = err.Error()
		observe.RecordError(span, err)
		o.obs.AgentError(string(t.agent), t.action, err)
		o.bus.Publish(events.Event{Type: events.AgentFailed, SessionID: sessionID, Agent: string(t.agent), Data: map[string]any{"error": err.Error(), "status": tr.Status}})
		return nil, tr, &AgentError{Agent: t.agent, Err: err}
	}

	tr.Status = StatusSuccess
	tr.Tokens = resp.Usage.TotalTokens
	o.obs.AgentComplete(string(t.agent), t.action, tr.Duration)
	o.bus.Publish(events.Event{Type: events.AgentEnd, SessionID: sessionID, Agent: string(t.agent), Data: map[string]any{"duration": tr.Duration, "tokens": tr.Tokens}})
	return resp, tr, nil
}
