package chat

import (
	"encoding/json"

	"github.com/Strob0t/AgentWire/domain/run"
)

// PartType discriminates the content variants of a Part.
type PartType string

const (
	PartText            PartType = "text"
	PartToolCall        PartType = "tool_call"
	PartToolResult      PartType = "tool_result"
	PartPlan            PartType = "plan"
	PartImageURL        PartType = "image_url"
	PartImageBytes      PartType = "image_bytes"
	PartCodeObservation PartType = "code_observation"
	PartData            PartType = "data"
)

// Part is one typed content fragment of a message. Only the field selected
// by Type is meaningful.
type Part struct {
	Type       PartType        `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCall   *run.ToolCall   `json:"tool_call,omitempty"`
	ToolResult *run.ToolResult `json:"tool_result,omitempty"`
	Plan       json.RawMessage `json:"plan,omitempty"`
	Image      *Image          `json:"image,omitempty"`
	Thought    string          `json:"thought,omitempty"`
	Code       string          `json:"code,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Image is a reference to image content, either by URI or inline base64.
type Image struct {
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
}

func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

func ToolCallPart(call run.ToolCall) Part {
	return Part{Type: PartToolCall, ToolCall: &call}
}

func ToolResultPart(result run.ToolResult) Part {
	return Part{Type: PartToolResult, ToolResult: &result}
}

func DataPart(data json.RawMessage) Part {
	return Part{Type: PartData, Data: data}
}
