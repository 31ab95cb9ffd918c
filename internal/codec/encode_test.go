package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/internal/codec"
)

func TestEncodeMessageRoleFolding(t *testing.T) {
	tests := []struct {
		role chat.Role
		want string
	}{
		{chat.RoleUser, "user"},
		{chat.RoleAssistant, "agent"},
		{chat.RoleTool, "user"},
		{chat.RoleDebug, "user"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			msg := chat.NewMessage(tt.role, chat.TextPart("x"))
			wire := codec.EncodeMessage(msg, "thread-1", "")
			if wire.Role != tt.want {
				t.Errorf("role = %s, want %s", wire.Role, tt.want)
			}
		})
	}
}

func TestEncodeMessageShape(t *testing.T) {
	msg := chat.NewMessage(chat.RoleUser, chat.TextPart("hello"))
	wire := codec.EncodeMessage(msg, "thread-1", "task-1")

	if wire.Kind != "message" {
		t.Errorf("kind = %s, want message", wire.Kind)
	}
	if wire.MessageID != msg.ID {
		t.Errorf("message id = %s, want %s", wire.MessageID, msg.ID)
	}
	if wire.ContextID != "thread-1" || wire.TaskID != "task-1" {
		t.Errorf("context/task = %s/%s", wire.ContextID, wire.TaskID)
	}
	if len(wire.Parts) != 1 || wire.Parts[0].Kind != "text" || wire.Parts[0].Text != "hello" {
		t.Errorf("parts = %+v", wire.Parts)
	}
}

func TestEncodeToolResultPart(t *testing.T) {
	result := run.ToolResult{
		ToolCallID: "c1",
		ToolName:   "search",
		Result:     json.RawMessage(`{"hits":2}`),
		Success:    true,
	}
	msg := codec.NewToolResultsMessage([]run.ToolResult{result})
	if msg.Role != chat.RoleTool {
		t.Fatalf("role = %s, want tool", msg.Role)
	}

	wire := codec.EncodeMessage(msg, "thread-1", "")
	if len(wire.Parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(wire.Parts))
	}
	part := wire.Parts[0]
	if part.Kind != "data" {
		t.Fatalf("part kind = %s, want data", part.Kind)
	}
	if part.Data["part_type"] != "tool_result" {
		t.Errorf("part_type = %v, want tool_result", part.Data["part_type"])
	}
	if part.Data["tool_call_id"] != "c1" {
		t.Errorf("tool_call_id = %v, want c1", part.Data["tool_call_id"])
	}

	// The whole part must survive JSON marshaling with the result kept
	// as-is.
	b, err := json.Marshal(part)
	if err != nil {
		t.Fatalf("marshal part: %v", err)
	}
	var round struct {
		Data struct {
			Result map[string]any `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &round); err != nil {
		t.Fatalf("unmarshal part: %v", err)
	}
	if round.Data.Result["hits"] != float64(2) {
		t.Errorf("result = %v", round.Data.Result)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := chat.NewMessage(chat.RoleUser,
		chat.TextPart("run this"),
		chat.ToolCallPart(run.ToolCall{ToolCallID: "c1", ToolName: "exec", Input: json.RawMessage(`{"cmd":"ls"}`)}),
	)

	wire := codec.EncodeMessage(original, "thread-1", "")
	b, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("marshal wire: %v", err)
	}

	item, err := codec.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	decoded, ok := item.(*chat.Message)
	if !ok {
		t.Fatalf("expected *chat.Message, got %T", item)
	}

	if decoded.ID != original.ID {
		t.Errorf("id = %s, want %s", decoded.ID, original.ID)
	}
	if decoded.Text() != "run this" {
		t.Errorf("text = %q", decoded.Text())
	}
	calls := decoded.ToolCalls()
	if len(calls) != 1 || calls[0].ToolCallID != "c1" || calls[0].ToolName != "exec" {
		t.Errorf("tool calls = %+v", calls)
	}
}
