// Package a2a defines the wire types of the agent-invocation protocol.
//
// The stream carries three envelope kinds: full messages, status updates
// whose payload lives in metadata, and artifact updates. Servers may wrap
// any of them in a JSON-RPC response object; some omit the kind field on
// artifacts entirely. The types here are deliberately loose, one envelope
// struct with sparse fields, because the dialect mixes shapes freely and
// strict per-kind structs would reject real traffic.
package a2a

import "encoding/json"

// Envelope kinds.
const (
	KindMessage        = "message"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// Metadata payload types carried by status updates.
const (
	TypeRunStarted         = "run_started"
	TypeRunFinished        = "run_finished"
	TypeRunError           = "run_error"
	TypePlanStarted        = "plan_started"
	TypePlanFinished       = "plan_finished"
	TypeStepStarted        = "step_started"
	TypeStepCompleted      = "step_completed"
	TypeTextMessageStart   = "text_message_start"
	TypeTextMessageContent = "text_message_content"
	TypeTextMessageEnd     = "text_message_end"
	TypeToolExecutionStart = "tool_execution_start"
	TypeToolExecutionEnd   = "tool_execution_end"
	TypeToolCallArgs       = "tool_call_args"
	TypeToolCallResult     = "tool_call_result"
	TypeToolCalls          = "tool_calls"
	TypeToolResults        = "tool_results"
)

// Artifact data types (parts[0].data.type).
const (
	ArtifactLLMResponse = "llm_response"
	ArtifactToolResults = "tool_results"
)

// Envelope is one already-framed protocol event as received from the
// stream. Exactly one shape is populated: JSON-RPC wrapper (Result set),
// message (Kind "message"), status update (Kind "status-update"), or
// artifact (Kind "artifact-update", or just ArtifactID + Parts).
type Envelope struct {
	// JSON-RPC wrapper
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`

	Kind string `json:"kind,omitempty"`

	// status update
	TaskID   string         `json:"taskId,omitempty"`
	RunID    string         `json:"runId,omitempty"`
	Final    bool           `json:"final,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// message
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	ContextID string `json:"contextId,omitempty"`
	Parts     []Part `json:"parts,omitempty"`

	// artifact
	ArtifactID  string `json:"artifactId,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Part is a wire-level content fragment.
type Part struct {
	Kind string         `json:"kind"`
	Text string         `json:"text,omitempty"`
	File *File          `json:"file,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// File references file content by URI or inline base64 bytes.
type File struct {
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
}

// Message is the outbound message shape for message/send and
// message/stream.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	Kind      string `json:"kind"`
	ContextID string `json:"contextId,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
}

// SendParams are the params of a message/send or message/stream call.
type SendParams struct {
	Message       Message            `json:"message"`
	Configuration *SendConfiguration `json:"configuration,omitempty"`
}

// SendConfiguration tunes how the server handles a send.
type SendConfiguration struct {
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	Blocking            bool     `json:"blocking"`
}

// TaskIDParams are the params of a tasks/cancel or tasks/get call.
type TaskIDParams struct {
	ID string `json:"id"`
}
