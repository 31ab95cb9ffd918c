package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentWire/domain/run"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	// RoleDebug carries diagnostic artifacts (plans, raw agent output) that
	// are part of the conversation record but not authored by either side.
	RoleDebug Role = "debug"
)

// Message is a complete or in-assembly conversation message. Parts are
// ordered by arrival and only ever appended to.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`

	// Sealed records that a text_message_end was observed. Informational:
	// late deltas are still appended.
	Sealed bool `json:"-"`
}

func (*Message) item() {}

// NewMessage creates a message with a fresh id.
func NewMessage(role Role, parts ...Part) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy whose parts slice is independent of the original.
// Used by the assembler so published snapshots never alias mutable state.
func (m *Message) Clone() *Message {
	c := *m
	c.Parts = make([]Part, len(m.Parts))
	copy(c.Parts, m.Parts)
	return &c
}

// Text concatenates the message's text parts in order.
func (m *Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the tool-call requests embedded in the message, in order.
func (m *Message) ToolCalls() []run.ToolCall {
	var calls []run.ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall && p.ToolCall != nil {
			calls = append(calls, *p.ToolCall)
		}
	}
	return calls
}

// ToolResults returns the tool results embedded in the message, in order.
func (m *Message) ToolResults() []run.ToolResult {
	var results []run.ToolResult
	for _, p := range m.Parts {
		if p.Type == PartToolResult && p.ToolResult != nil {
			results = append(results, *p.ToolResult)
		}
	}
	return results
}

// AppendText appends delta to the message's trailing text part, creating
// one if the last part is not text.
func (m *Message) AppendText(delta string) {
	if n := len(m.Parts); n > 0 && m.Parts[n-1].Type == PartText {
		m.Parts[n-1].Text += delta
		return
	}
	m.Parts = append(m.Parts, TextPart(delta))
}
