package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Strob0t/AgentWire"

// Metrics holds the pipeline instruments. A nil *Metrics is valid and
// records nothing, so callers never guard their callsites.
type Metrics struct {
	envelopes    metric.Int64Counter
	dropped      metric.Int64Counter
	toolCalls    metric.Int64Counter
	turnDuration metric.Float64Histogram
	toolDuration metric.Float64Histogram
}

// NewMetrics creates the pipeline instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.envelopes, err = meter.Int64Counter("agentwire.envelopes",
		metric.WithDescription("Envelopes decoded from the stream")); err != nil {
		return nil, fmt.Errorf("create envelopes counter: %w", err)
	}
	if m.dropped, err = meter.Int64Counter("agentwire.envelopes.dropped",
		metric.WithDescription("Envelopes dropped as undecodable or unmergeable")); err != nil {
		return nil, fmt.Errorf("create dropped counter: %w", err)
	}
	if m.toolCalls, err = meter.Int64Counter("agentwire.tool_calls",
		metric.WithDescription("Tool calls registered for client execution")); err != nil {
		return nil, fmt.Errorf("create tool_calls counter: %w", err)
	}
	if m.turnDuration, err = meter.Float64Histogram("agentwire.turn.duration",
		metric.WithDescription("Conversation turn duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create turn duration histogram: %w", err)
	}
	if m.toolDuration, err = meter.Float64Histogram("agentwire.tool_call.duration",
		metric.WithDescription("Client-side tool execution duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create tool duration histogram: %w", err)
	}
	return m, nil
}

// RecordEnvelope counts one decoded envelope.
func (m *Metrics) RecordEnvelope(ctx context.Context) {
	if m == nil {
		return
	}
	m.envelopes.Add(ctx, 1)
}

// RecordDropped counts one dropped envelope, labeled by stage.
func (m *Metrics) RecordDropped(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordToolCall counts one registered tool call.
func (m *Metrics) RecordToolCall(ctx context.Context, toolName string) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("tool.name", toolName)))
}

// RecordTurn records a completed turn's duration.
func (m *Metrics) RecordTurn(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.turnDuration.Record(ctx, seconds)
}

// RecordToolDuration records one tool execution's duration.
func (m *Metrics) RecordToolDuration(ctx context.Context, toolName string, seconds float64) {
	if m == nil {
		return
	}
	m.toolDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("tool.name", toolName)))
}
