package chat

import "github.com/Strob0t/AgentWire/domain/run"

// EventKind enumerates the protocol events the decoder produces. Unlisted
// wire types decode to EventUnknown rather than failing the stream.
type EventKind string

const (
	EventRunStarted  EventKind = "run_started"
	EventRunFinished EventKind = "run_finished"
	EventRunError    EventKind = "run_error"

	EventPlanStarted   EventKind = "plan_started"
	EventPlanFinished  EventKind = "plan_finished"
	EventStepStarted   EventKind = "step_started"
	EventStepCompleted EventKind = "step_completed"

	EventTextMessageStart   EventKind = "text_message_start"
	EventTextMessageContent EventKind = "text_message_content"
	EventTextMessageEnd     EventKind = "text_message_end"

	EventToolCalls      EventKind = "tool_calls"
	EventToolResults    EventKind = "tool_results"
	EventToolCallStart  EventKind = "tool_call_start"
	EventToolCallArgs   EventKind = "tool_call_args"
	EventToolCallEnd    EventKind = "tool_call_end"
	EventToolCallResult EventKind = "tool_call_result"

	EventUnknown EventKind = "unknown"
)

// Event is a non-message protocol occurrence. Kind selects which of the
// optional fields carry data; the rest stay zero.
type Event struct {
	Kind   EventKind `json:"kind"`
	TaskID string    `json:"task_id,omitempty"`
	RunID  string    `json:"run_id,omitempty"`

	// run_finished / run_error
	Success      *bool  `json:"success,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// text_message_*; MessageID correlates deltas to their message.
	MessageID string `json:"message_id,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// tool_call_* fine-grained lifecycle
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	Result     string `json:"result,omitempty"`

	// tool_calls / tool_results batches
	Calls   []run.ToolCall   `json:"calls,omitempty"`
	Results []run.ToolResult `json:"results,omitempty"`

	// plan_* / step_*
	StepID      string `json:"step_id,omitempty"`
	StepTitle   string `json:"step_title,omitempty"`
	StepIndex   int    `json:"step_index,omitempty"`
	TotalSteps  int    `json:"total_steps,omitempty"`
	InitialPlan bool   `json:"initial_plan,omitempty"`

	// unknown passthrough: the wire type and its metadata payload, kept so
	// consumers can interpret vocabulary this library predates.
	RawType string         `json:"raw_type,omitempty"`
	Raw     map[string]any `json:"raw,omitempty"`
}

func (*Event) item() {}

// Execution reports whether the event belongs to the execution trace
// (plan, step, and tool lifecycle) rather than message assembly or run
// bookkeeping.
func (e *Event) Execution() bool {
	switch e.Kind {
	case EventPlanStarted, EventPlanFinished, EventStepStarted, EventStepCompleted,
		EventToolCalls, EventToolResults, EventToolCallStart, EventToolCallArgs,
		EventToolCallEnd, EventToolCallResult:
		return true
	}
	return false
}
