// Package run defines the entities tracked over the lifetime of an agent
// run: tool calls, their results, and the tasks a run executes under.
package run

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a tracked tool call.
type Status string

const (
	StatusPending            Status = "pending"
	StatusRunning            Status = "running"
	StatusCompleted          Status = "completed"
	StatusError              Status = "error"
	StatusUserActionRequired Status = "user_action_required"
)

// Terminal reports whether no further transitions are allowed from s.
// A call waiting on user action is not terminal: it still resolves to
// completed or error once the user responds.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Outstanding reports whether s still blocks result aggregation.
func (s Status) Outstanding() bool {
	return s == StatusPending || s == StatusRunning || s == StatusUserActionRequired
}

// ToolCall is a request, embedded in an assistant turn, to invoke a named
// capability with JSON input.
type ToolCall struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Input      json.RawMessage `json:"input,omitempty"`
}

// ToolResult is the outcome of one tool call, correlated by ToolCallID.
type ToolResult struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
}

// ToolCallState is the mutable tracking record for a single tool call.
type ToolCallState struct {
	ToolCallID  string          `json:"tool_call_id"`
	ToolName    string          `json:"tool_name"`
	Input       json.RawMessage `json:"input,omitempty"`
	Status      Status          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
