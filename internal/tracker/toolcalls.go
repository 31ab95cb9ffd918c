// Package tracker maintains the mutable bookkeeping of an agent run:
// per-call tool lifecycle and the main/sub task set.
package tracker

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Strob0t/AgentWire/domain/run"
)

// ToolCalls tracks tool-call lifecycle for one conversation.
//
// Calls move pending → running → completed/error, with an optional
// user_action_required stop between running and completion. Completed and
// error are final: later updates for that id are ignored. The zero of
// interest is Resolved, which fires exactly once per all-resolved
// transition and marks what it returned as delivered, so aggregated
// results are never sent twice and a later round carries only new calls.
type ToolCalls struct {
	mu    sync.Mutex
	calls map[string]*run.ToolCallState
	order []string
	sent  map[string]struct{}
	fired bool

	now func() time.Time
}

// NewToolCalls creates an empty tracker.
func NewToolCalls() *ToolCalls {
	return &ToolCalls{
		calls: make(map[string]*run.ToolCallState),
		sent:  make(map[string]struct{}),
		now:   time.Now,
	}
}

// Init registers a call in pending state. A duplicate id is ignored and
// reported false. Registering new work re-arms the aggregation signal.
func (t *ToolCalls) Init(call run.ToolCall) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.calls[call.ToolCallID]; exists {
		return false
	}
	t.calls[call.ToolCallID] = &run.ToolCallState{
		ToolCallID: call.ToolCallID,
		ToolName:   call.ToolName,
		Input:      call.Input,
		Status:     run.StatusPending,
		StartedAt:  t.now(),
	}
	t.order = append(t.order, call.ToolCallID)
	t.fired = false
	return true
}

// Update applies a partial state change to a known call. Updates for
// unknown ids and updates to terminal calls are no-ops, reported false.
func (t *ToolCalls) Update(id string, upd Update) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apply(id, upd)
}

// Update is a partial change to one call's state. Zero fields are left
// untouched.
type Update struct {
	Status run.Status
	Result json.RawMessage
	Error  string
}

func (t *ToolCalls) apply(id string, upd Update) bool {
	state, ok := t.calls[id]
	if !ok || state.Status.Terminal() {
		return false
	}

	if upd.Status != "" {
		state.Status = upd.Status
		if upd.Status.Terminal() {
			done := t.now()
			state.CompletedAt = &done
		}
	}
	if upd.Result != nil {
		state.Result = upd.Result
	}
	if upd.Error != "" {
		state.Error = upd.Error
	}
	return true
}

// AppendInput concatenates a streamed argument delta onto the call's
// input. No-op for unknown or terminal calls.
func (t *ToolCalls) AppendInput(id, delta string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.calls[id]
	if !ok || state.Status.Terminal() {
		return false
	}
	state.Input = append(state.Input, delta...)
	return true
}

// Resolved returns the aggregated results once every undelivered call has
// left pending/running/user_action_required. It reports true exactly once
// per such transition; subsequent calls return false until Init re-arms
// the signal. The returned calls are recorded as delivered so a later
// aggregation carries only calls resolved after this one. A tracker with
// no undelivered calls never fires.
func (t *ToolCalls) Resolved() ([]run.ToolResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired {
		return nil, false
	}
	fresh := make([]string, 0, len(t.order))
	for _, id := range t.order {
		if _, delivered := t.sent[id]; delivered {
			continue
		}
		if t.calls[id].Status.Outstanding() {
			return nil, false
		}
		fresh = append(fresh, id)
	}
	if len(fresh) == 0 {
		return nil, false
	}

	t.fired = true
	results := make([]run.ToolResult, 0, len(fresh))
	for _, id := range fresh {
		state := t.calls[id]
		t.sent[id] = struct{}{}
		results = append(results, run.ToolResult{
			ToolCallID: state.ToolCallID,
			ToolName:   state.ToolName,
			Result:     state.Result,
			Success:    state.Status == run.StatusCompleted,
			Error:      state.Error,
		})
	}
	return results, true
}

// Get returns a copy of one call's state.
func (t *ToolCalls) Get(id string) (run.ToolCallState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.calls[id]
	if !ok {
		return run.ToolCallState{}, false
	}
	return *state, true
}

// States returns a copy of every tracked call, keyed by id.
func (t *ToolCalls) States() map[string]run.ToolCallState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]run.ToolCallState, len(t.calls))
	for id, state := range t.calls {
		out[id] = *state
	}
	return out
}

// Outstanding returns the calls still pending, running, or waiting on the
// user, in registration order.
func (t *ToolCalls) Outstanding() []run.ToolCallState {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []run.ToolCallState
	for _, id := range t.order {
		if state := t.calls[id]; state.Status.Outstanding() {
			out = append(out, *state)
		}
	}
	return out
}

// HasOutstanding reports whether any call still blocks aggregation.
func (t *ToolCalls) HasOutstanding() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, state := range t.calls {
		if state.Status.Outstanding() {
			return true
		}
	}
	return false
}

// FailAll marks every non-terminal call failed with reason. Used when the
// transport drops mid-run so calls don't hang outstanding forever.
func (t *ToolCalls) FailAll(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.order {
		t.apply(id, Update{Status: run.StatusError, Error: reason})
	}
}

// ClearAll forgets every call, including delivery records, and re-arms
// the aggregation signal.
func (t *ToolCalls) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = make(map[string]*run.ToolCallState)
	t.order = nil
	t.sent = make(map[string]struct{})
	t.fired = false
}

// ClearResults blanks result and error payloads after delivery while
// keeping the call records. Delivered calls stay out of later
// aggregations; the signal stays consumed until new work arrives.
func (t *ToolCalls) ClearResults() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, state := range t.calls {
		state.Result = nil
		state.Error = ""
	}
}
