// Package codec converts wire envelopes to conversation items and back.
// Decoding is pure: no I/O, no shared state, one envelope in, one item out.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/port/a2a"
)

// DecodeError reports an envelope that could not be turned into an item.
// Callers log and drop; a single bad envelope never fails the stream.
type DecodeError struct {
	Reason string
	Kind   string
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return "decode: " + e.Reason
	}
	return fmt.Sprintf("decode %s: %s", e.Kind, e.Reason)
}

// Decode turns one raw envelope into a conversation item.
//
// JSON-RPC response wrappers are unwrapped first. Status updates with an
// unrecognized metadata type decode to an EventUnknown carrying the raw
// payload rather than an error, so newer server vocabularies pass through.
func Decode(raw json.RawMessage) (chat.Item, error) {
	var env a2a.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed envelope: " + err.Error()}
	}

	if env.JSONRPC != "" && len(env.Result) > 0 {
		return Decode(env.Result)
	}

	switch env.Kind {
	case a2a.KindMessage:
		return decodeMessage(&env), nil
	case a2a.KindStatusUpdate:
		return decodeStatusUpdate(&env)
	case a2a.KindArtifactUpdate:
		return decodeArtifact(&env)
	}

	// Some servers emit artifacts without a kind field.
	if env.ArtifactID != "" && len(env.Parts) > 0 {
		return decodeArtifact(&env)
	}

	return nil, &DecodeError{Reason: "unrecognized envelope shape"}
}

func decodeStatusUpdate(env *a2a.Envelope) (chat.Item, error) {
	typ, ok := env.Metadata["type"].(string)
	if !ok || typ == "" {
		return nil, &DecodeError{Kind: env.Kind, Reason: "status update without metadata.type"}
	}

	m := env.Metadata
	ev := &chat.Event{TaskID: env.TaskID, RunID: env.RunID}

	switch typ {
	case a2a.TypeRunStarted:
		ev.Kind = chat.EventRunStarted

	case a2a.TypeRunFinished:
		ev.Kind = chat.EventRunFinished
		if success, found := metaBool(m, "success"); found {
			ev.Success = &success
		}

	case a2a.TypeRunError:
		ev.Kind = chat.EventRunError
		ev.ErrorMessage = metaString(m, "message")

	case a2a.TypePlanStarted:
		ev.Kind = chat.EventPlanStarted
		ev.InitialPlan, _ = metaBool(m, "initial_plan")

	case a2a.TypePlanFinished:
		ev.Kind = chat.EventPlanFinished
		ev.TotalSteps = metaInt(m, "total_steps")

	case a2a.TypeStepStarted:
		ev.Kind = chat.EventStepStarted
		ev.StepID = metaString(m, "step_id")
		ev.StepTitle = metaString(m, "step_title")
		ev.StepIndex = metaInt(m, "step_index")

	case a2a.TypeStepCompleted:
		ev.Kind = chat.EventStepCompleted
		ev.StepID = metaString(m, "step_id")
		ev.StepTitle = metaString(m, "step_title")
		ev.StepIndex = metaInt(m, "step_index")

	case a2a.TypeTextMessageStart:
		ev.Kind = chat.EventTextMessageStart
		ev.MessageID = metaString(m, "message_id")
		if metaString(m, "role") == "assistant" {
			ev.Role = chat.RoleAssistant
		} else {
			ev.Role = chat.RoleUser
		}

	case a2a.TypeTextMessageContent:
		ev.Kind = chat.EventTextMessageContent
		ev.MessageID = metaString(m, "message_id")
		ev.Delta = metaString(m, "delta")

	case a2a.TypeTextMessageEnd:
		ev.Kind = chat.EventTextMessageEnd
		ev.MessageID = metaString(m, "message_id")

	case a2a.TypeToolExecutionStart:
		ev.Kind = chat.EventToolCallStart
		ev.ToolCallID = metaString(m, "tool_call_id")
		ev.ToolName = metaString(m, "tool_call_name")

	case a2a.TypeToolExecutionEnd:
		ev.Kind = chat.EventToolCallEnd
		ev.ToolCallID = metaString(m, "tool_call_id")

	case a2a.TypeToolCallArgs:
		ev.Kind = chat.EventToolCallArgs
		ev.ToolCallID = metaString(m, "tool_call_id")
		ev.Delta = metaString(m, "delta")

	case a2a.TypeToolCallResult:
		ev.Kind = chat.EventToolCallResult
		ev.ToolCallID = metaString(m, "tool_call_id")
		ev.Result = metaString(m, "result")

	case a2a.TypeToolCalls:
		ev.Kind = chat.EventToolCalls
		calls, err := metaAs[[]run.ToolCall](m, "tool_calls")
		if err != nil {
			return nil, &DecodeError{Kind: typ, Reason: err.Error()}
		}
		ev.Calls = calls

	case a2a.TypeToolResults:
		ev.Kind = chat.EventToolResults
		results, err := metaAs[[]run.ToolResult](m, "results")
		if err != nil {
			return nil, &DecodeError{Kind: typ, Reason: err.Error()}
		}
		ev.Results = results

	default:
		ev.Kind = chat.EventUnknown
		ev.RawType = typ
		ev.Raw = m
	}

	return ev, nil
}

func decodeMessage(env *a2a.Envelope) *chat.Message {
	role := chat.RoleUser
	if env.Role == "agent" {
		role = chat.RoleAssistant
	}

	parts := make([]chat.Part, 0, len(env.Parts))
	for _, p := range env.Parts {
		parts = append(parts, decodePart(p))
	}

	return &chat.Message{
		ID:    env.MessageID,
		Role:  role,
		Parts: parts,
	}
}

func decodePart(p a2a.Part) chat.Part {
	switch p.Kind {
	case "text":
		return chat.TextPart(p.Text)

	case "file":
		if p.File == nil {
			return chat.TextPart("")
		}
		img := &chat.Image{MimeType: p.File.MimeType, URL: p.File.URI, Bytes: p.File.Bytes}
		if p.File.URI != "" {
			return chat.Part{Type: chat.PartImageURL, Image: img}
		}
		return chat.Part{Type: chat.PartImageBytes, Image: img}

	case "data":
		return decodeDataPart(p.Data)

	default:
		// Unknown part kinds degrade to their JSON text.
		b, err := json.Marshal(p)
		if err != nil {
			return chat.TextPart("")
		}
		return chat.TextPart(string(b))
	}
}

func decodeDataPart(data map[string]any) chat.Part {
	switch data["part_type"] {
	case "tool_call":
		// The call is either nested under "tool_call" or the data object
		// itself; servers emit both shapes.
		src := data
		if nested, ok := data["tool_call"].(map[string]any); ok {
			src = nested
		}
		call, err := asType[run.ToolCall](src)
		if err != nil {
			return dataFallback(data)
		}
		return chat.ToolCallPart(call)

	case "tool_result":
		src := data
		if nested, ok := data["tool_result"].(map[string]any); ok {
			src = nested
		}
		result, err := asType[run.ToolResult](src)
		if err != nil {
			return dataFallback(data)
		}
		return chat.ToolResultPart(result)

	case "code_observation":
		return chat.Part{
			Type:    chat.PartCodeObservation,
			Thought: metaString(data, "thought"),
			Code:    metaString(data, "code"),
		}

	case "plan":
		plan, err := json.Marshal(data["plan"])
		if err != nil {
			return dataFallback(data)
		}
		return chat.Part{Type: chat.PartPlan, Plan: plan}

	default:
		return dataFallback(data)
	}
}

func dataFallback(data map[string]any) chat.Part {
	b, err := json.Marshal(data)
	if err != nil {
		return chat.TextPart("")
	}
	return chat.DataPart(b)
}

func decodeArtifact(env *a2a.Envelope) (chat.Item, error) {
	if len(env.Parts) == 0 {
		return nil, &DecodeError{Kind: env.Kind, Reason: "artifact without parts"}
	}
	first := env.Parts[0]
	if first.Kind != "data" || first.Data == nil {
		return nil, &DecodeError{Kind: env.Kind, Reason: "artifact without data part"}
	}

	data := first.Data
	switch data["type"] {
	case a2a.ArtifactLLMResponse:
		return decodeLLMResponse(env, data)

	case a2a.ArtifactToolResults:
		results, err := metaAs[[]run.ToolResult](data, "results")
		if err != nil {
			return nil, &DecodeError{Kind: a2a.ArtifactToolResults, Reason: err.Error()}
		}
		return &chat.Event{Kind: chat.EventToolResults, TaskID: env.TaskID, Results: results}, nil

	default:
		// Plans and other artifact payloads join the conversation record
		// as debug messages.
		return decodeGenericArtifact(env, data)
	}
}

// decodeLLMResponse turns an llm_response artifact into an assistant
// message: text content plus one tool_call part per requested call.
func decodeLLMResponse(env *a2a.Envelope, data map[string]any) (chat.Item, error) {
	id := metaString(data, "id")
	if id == "" {
		id = env.ArtifactID
	}

	var parts []chat.Part
	if content := metaString(data, "content"); content != "" {
		parts = append(parts, chat.TextPart(content))
	}

	calls, err := metaAs[[]run.ToolCall](data, "tool_calls")
	if err != nil {
		return nil, &DecodeError{Kind: a2a.ArtifactLLMResponse, Reason: err.Error()}
	}
	for _, call := range calls {
		parts = append(parts, chat.ToolCallPart(call))
	}

	return &chat.Message{ID: id, Role: chat.RoleAssistant, Parts: parts}, nil
}

func decodeGenericArtifact(env *a2a.Envelope, data map[string]any) (chat.Item, error) {
	id := metaString(data, "id")
	if id == "" {
		id = env.ArtifactID
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, &DecodeError{Kind: env.Kind, Reason: "artifact data not serializable"}
	}

	part := chat.DataPart(b)
	if data["type"] == "plan" {
		part = chat.Part{Type: chat.PartPlan, Plan: b}
	}

	return &chat.Message{ID: id, Role: chat.RoleDebug, Parts: []chat.Part{part}}, nil
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func metaBool(m map[string]any, key string) (value, found bool) {
	value, found = m[key].(bool)
	return value, found
}

func metaInt(m map[string]any, key string) int {
	// JSON numbers arrive as float64 through map[string]any.
	f, _ := m[key].(float64)
	return int(f)
}

// metaAs re-marshals a metadata value into a typed representation.
func metaAs[T any](m map[string]any, key string) (T, error) {
	var out T
	v, ok := m[key]
	if !ok || v == nil {
		return out, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("field %s not serializable: %w", key, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("field %s has unexpected shape: %w", key, err)
	}
	return out, nil
}

func asType[T any](m map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}
