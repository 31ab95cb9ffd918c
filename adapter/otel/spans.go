package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Strob0t/AgentWire"

// StartTurnSpan opens a span covering one conversation turn, from send to
// main-task finish.
func StartTurnSpan(ctx context.Context, threadID, agentID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agentwire.turn",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("agent.id", agentID),
		),
	)
}

// StartToolCallSpan opens a span covering one client-side tool execution.
func StartToolCallSpan(ctx context.Context, toolCallID, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agentwire.tool_call",
		trace.WithAttributes(
			attribute.String("tool_call.id", toolCallID),
			attribute.String("tool.name", toolName),
		),
	)
}

// StartHistorySpan opens a span covering one history fetch.
func StartHistorySpan(ctx context.Context, threadID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agentwire.history",
		trace.WithAttributes(attribute.String("thread.id", threadID)),
	)
}
