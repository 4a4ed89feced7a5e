package observe

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("studyplan")

// Observer handles logging and tracing
type Observer struct {
	log *bolt.Logger
}

// New creates an Observer writing human-readable lines to out.
// If verbose is false, only warnings and errors are shown.
func New(out io.Writer, verbose bool) *Observer {
	l := bolt.New(bolt.NewConsoleHandler(out))
	if !verbose {
		l.SetLevel(bolt.WARN)
	}
	return &Observer{log: l}
}

// NewJSON creates an Observer writing one JSON object per line.
func NewJSON(out io.Writer, verbose bool) *Observer {
	l := bolt.New(bolt.NewJSONHandler(out))
	if !verbose {
		l.SetLevel(bolt.WARN)
	}
	return &Observer{log: l}
}

// Nop discards everything. Useful for tests and library callers.
func Nop() *Observer {
	return New(io.Discard, false)
}

// Log returns the underlying logger
func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan starts a new OTel span
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// AgentStart logs that an agent began work.
func (o *Observer) AgentStart(agent, action string) {
	o.log.Info().Str("agent", agent).Str("action", action).Msg("agent started")
}

// AgentComplete logs a finished agent task with its wall time.
func (o *Observer) AgentComplete(agent, action string, elapsed time.Duration) {
	o.log.Info().
		Str("agent", agent).
		Str("action", action).
		Int("duration_ms", int(elapsed.Milliseconds())).
		Msg("agent completed")
}

// AgentError logs a failed agent task.
func (o *Observer) AgentError(agent, action string, err error) {
	o.log.Error().Str("agent", agent).Str("action", action).Err(err).Msg("agent failed")
}

// Metric records a named measurement as a structured log line.
func (o *Observer) Metric(name string, value float64) {
	o.log.Info().Str("metric", name).Str("value", formatValue(value)).Msg("metric")
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.3f", v)
}

// Close flushes buffered output. Nothing is buffered today.
func (o *Observer) Close() error {
	return nil
}
