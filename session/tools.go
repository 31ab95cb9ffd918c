package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	otelw "github.com/Strob0t/AgentWire/adapter/otel"
	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/internal/codec"
	"github.com/Strob0t/AgentWire/internal/tracker"
	"github.com/Strob0t/AgentWire/port/toolhandler"
)

// registerCalls tracks newly requested tool calls and dispatches the ones
// with a registered handler. Calls with no handler stay pending and are
// visible through Outstanding; that is deliberate, not an error.
func (s *Session) registerCalls(ctx context.Context, calls []run.ToolCall) {
	for _, call := range calls {
		if !s.calls.Init(call) {
			// Already tracked; replays are idempotent.
			continue
		}
		s.metrics.RecordToolCall(ctx, call.ToolName)

		if _, ok := s.tools.Lookup(call.ToolName); !ok {
			s.log.Warn("no handler for tool, call stays pending",
				"tool_call_id", call.ToolCallID, "tool_name", call.ToolName)
			continue
		}
		s.dispatch(ctx, call)
	}
	s.publishToolCalls()
}

// dispatch runs the call's handler on its own goroutine, bounded by the
// session's tool semaphore. The handler outlives the stream that carried
// the call: results must still be deliverable after the run finishes.
func (s *Session) dispatch(ctx context.Context, call run.ToolCall) {
	execCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.toolSem.Acquire(execCtx, 1); err != nil {
			return
		}
		defer s.toolSem.Release(1)
		s.runHandler(execCtx, call)
	}()
}

func (s *Session) runHandler(ctx context.Context, call run.ToolCall) {
	handler, ok := s.tools.Lookup(call.ToolName)
	if !ok {
		return
	}

	s.calls.Update(call.ToolCallID, tracker.Update{Status: run.StatusRunning})
	s.publishToolCalls()

	spanCtx, span := otelw.StartToolCallSpan(ctx, call.ToolCallID, call.ToolName)
	defer span.End()
	started := time.Now()

	result, err := handler.Execute(spanCtx, call)
	s.metrics.RecordToolDuration(spanCtx, call.ToolName, time.Since(started).Seconds())

	switch {
	case errors.Is(err, toolhandler.ErrAwaitingUser):
		s.calls.Update(call.ToolCallID, tracker.Update{Status: run.StatusUserActionRequired})
		s.log.Info("tool awaiting user action",
			"tool_call_id", call.ToolCallID, "tool_name", call.ToolName)

	case err != nil:
		s.calls.Update(call.ToolCallID, tracker.Update{Status: run.StatusError, Error: err.Error()})
		s.log.Warn("tool failed",
			"tool_call_id", call.ToolCallID, "tool_name", call.ToolName, "error", err)

	default:
		upd := tracker.Update{Status: run.StatusCompleted}
		if result != nil {
			upd.Result = result.Result
			if !result.Success && result.Error != "" {
				upd.Status = run.StatusError
				upd.Error = result.Error
			}
		}
		s.calls.Update(call.ToolCallID, upd)
	}

	s.publishToolCalls()
	s.checkResolved()
}

// CompleteTool resolves a call that was parked in user_action_required
// (or is otherwise still outstanding) with an externally produced result.
func (s *Session) CompleteTool(id string, result run.ToolResult) {
	upd := tracker.Update{Status: run.StatusCompleted, Result: result.Result}
	if !result.Success && result.Error != "" {
		upd.Status = run.StatusError
		upd.Error = result.Error
	}
	if !s.calls.Update(id, upd) {
		s.log.Warn("completion for unknown or finished tool call", "tool_call_id", id)
		return
	}
	s.publishToolCalls()
	s.checkResolved()
}

// checkResolved sends the aggregated results back to the agent once per
// all-resolved transition. The tracker's fire-once latch guarantees a
// second caller observing the same resolved set does nothing.
func (s *Session) checkResolved() {
	results, fired := s.calls.Resolved()
	if !fired {
		return
	}
	go s.sendToolResults(results)
}

func (s *Session) sendToolResults(results []run.ToolResult) {
	msg := codec.NewToolResultsMessage(results)
	s.log.Debug("sending aggregated tool results", "count", len(results))

	if err := s.SendMessage(context.Background(), msg); err != nil {
		s.log.Error("tool results not delivered", "error", err)
		return
	}
	s.calls.ClearResults()
	s.publishToolCalls()
}

// applyResults applies server-delivered results to tracked calls.
// Results for unknown ids are server-side executions already covered by
// the execution trace; they do not enter the tracker.
func (s *Session) applyResults(_ context.Context, results []run.ToolResult) {
	changed := false
	for _, r := range results {
		upd := tracker.Update{Status: run.StatusCompleted, Result: r.Result}
		if !r.Success && r.Error != "" {
			upd.Status = run.StatusError
			upd.Error = r.Error
		}
		if s.calls.Update(r.ToolCallID, upd) {
			changed = true
		}
	}
	if changed {
		s.publishToolCalls()
	}
}

// startServerCall marks a tracked call as running when the server begins
// executing it. Untracked ids are progress markers only.
func (s *Session) startServerCall(ev *chat.Event) {
	if s.calls.Update(ev.ToolCallID, tracker.Update{Status: run.StatusRunning}) {
		s.publishToolCalls()
	}
}

// finishServerCall republishes on a server-side execution end. The status
// is left alone: the result event carries the completion.
func (s *Session) finishServerCall(ev *chat.Event) {
	if _, tracked := s.calls.Get(ev.ToolCallID); tracked {
		s.publishToolCalls()
	}
}

// resolveServerCall completes a tracked call from a tool_call_result
// event. The wire result is free text unless it already parses as JSON.
func (s *Session) resolveServerCall(ev *chat.Event) {
	upd := tracker.Update{Status: run.StatusCompleted}
	if ev.Result != "" {
		raw := []byte(ev.Result)
		if !json.Valid(raw) {
			raw, _ = json.Marshal(ev.Result)
		}
		upd.Result = raw
	}
	if s.calls.Update(ev.ToolCallID, upd) {
		s.publishToolCalls()
	}
}
