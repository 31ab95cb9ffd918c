package codec

import (
	"encoding/json"

	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/port/a2a"
)

// EncodeMessage converts a conversation message to its outbound wire
// shape. The protocol only knows "agent" and "user" authors; tool and
// debug roles fold into user.
func EncodeMessage(m *chat.Message, threadID, taskID string) a2a.Message {
	role := "user"
	if m.Role == chat.RoleAssistant {
		role = "agent"
	}

	parts := make([]a2a.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		parts = append(parts, encodePart(p))
	}

	return a2a.Message{
		MessageID: m.ID,
		Role:      role,
		Parts:     parts,
		Kind:      a2a.KindMessage,
		ContextID: threadID,
		TaskID:    taskID,
	}
}

func encodePart(p chat.Part) a2a.Part {
	switch p.Type {
	case chat.PartText:
		return a2a.Part{Kind: "text", Text: p.Text}

	case chat.PartImageURL:
		return a2a.Part{Kind: "file", File: &a2a.File{MimeType: p.Image.MimeType, URI: p.Image.URL}}

	case chat.PartImageBytes:
		return a2a.Part{Kind: "file", File: &a2a.File{MimeType: p.Image.MimeType, Bytes: p.Image.Bytes}}

	case chat.PartToolCall:
		return dataPart(map[string]any{
			"part_type": "tool_call",
			"tool_call": p.ToolCall,
		})

	case chat.PartToolResult:
		return dataPart(map[string]any{
			"part_type":    "tool_result",
			"tool_call_id": p.ToolResult.ToolCallID,
			"result":       rawOrNil(p.ToolResult.Result),
			"success":      p.ToolResult.Success,
			"error":        p.ToolResult.Error,
		})

	case chat.PartCodeObservation:
		return dataPart(map[string]any{
			"part_type": "code_observation",
			"thought":   p.Thought,
			"code":      p.Code,
		})

	case chat.PartPlan:
		return dataPart(map[string]any{
			"part_type": "plan",
			"plan":      rawOrNil(p.Plan),
		})

	default:
		return dataPart(map[string]any{
			"part_type": "data",
			"data":      rawOrNil(p.Data),
		})
	}
}

func dataPart(data map[string]any) a2a.Part {
	return a2a.Part{Kind: "data", Data: data}
}

// rawOrNil keeps raw JSON raw in the outbound map; a nil RawMessage would
// otherwise marshal as the string "null".
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// NewToolResultsMessage builds the tool-role reply carrying aggregated
// results back to the agent.
func NewToolResultsMessage(results []run.ToolResult) *chat.Message {
	parts := make([]chat.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, chat.ToolResultPart(r))
	}
	return chat.NewMessage(chat.RoleTool, parts...)
}
