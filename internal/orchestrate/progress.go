package orchestrate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/studyplan/internal/events"
	"github.com/felixgeelhaar/studyplan/internal/observe"
	"github.com/felixgeelhaar/studyplan/internal/plan"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// MarkProgress marks topic complete in the session and appends it to the
// owner's completed-topic history.
func (o *Orchestrator) MarkProgress(ctx context.Context, sessionID, topic string) error {
	ctx, span := o.obs.StartSpan(ctx, "orchestrate.MarkProgress",
		attribute.String("session.id", sessionID),
		attribute.String("topic", topic),
	)
	defer span.End()

	doc, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		observe.RecordError(span, err)
		return err
	}

	if o.strictTopics && len(doc.StudyPlan) > 0 && !plan.HasTopic(doc.StudyPlan, topic) {
		err := fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
		observe.RecordError(span, err)
		return err
	}
	if !plan.HasTopic(doc.StudyPlan, topic) {
		o.obs.Log().Warn().Str("session_id", sessionID).Str("topic", topic).Msg("marking a topic that is not in the schedule")
	}

	if err := o.sessions.MarkTopicComplete(ctx, sessionID, topic); err != nil {
		observe.RecordError(span, err)
		return err
	}
	if err := o.memory.AppendCompletedTopic(ctx, doc.UserID, topic, "completed"); err != nil {
		observe.RecordError(span, err)
		return fmt.Errorf("failed to record completed topic: %w", err)
	}

	o.obs.Log().Info().Str("metric", "topic_completed").Str("topic", topic).Str("session_id", sessionID).Msg("metric")
	o.bus.Publish(events.Event{Type: events.TopicCompleted, SessionID: sessionID, Data: map[string]any{"topic": topic}})
	return nil
}

// UnmarkProgress clears a topic's completion. The preference history is
// append-only and keeps the earlier completion.
func (o *Orchestrator) UnmarkProgress(ctx context.Context, sessionID, topic string) (bool, error) {
	removed, err := o.sessions.UnmarkTopic(ctx, sessionID, topic)
	if err != nil {
		return false, err
	}
	if removed {
		o.bus.Publish(events.Event{Type: events.TopicUncompleted, SessionID: sessionID, Data: map[string]any{"topic": topic}})
	}
	return removed, nil
}

// Progress loads a session with its completion statistics.
func (o *Orchestrator) Progress(ctx context.Context, sessionID string) (*session.Session, session.Stats, error) {
	doc, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, session.Stats{}, err
	}
	return doc, session.ComputeStats(doc), nil
}
