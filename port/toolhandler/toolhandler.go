// Package toolhandler resolves tool names to client-side execution handlers.
package toolhandler

import (
	"context"
	"errors"

	"github.com/Strob0t/AgentWire/domain/run"
)

// ErrAwaitingUser is returned by handlers whose tool needs user input
// before it can produce a result. The call is parked in
// user_action_required until completed explicitly.
var ErrAwaitingUser = errors.New("tool awaiting user action")

// Handler executes one named tool on behalf of the agent.
//
// Execute may block for the duration of the tool; it runs outside the
// stream-processing loop. Returning ErrAwaitingUser defers completion to
// the caller; any other error marks the call failed.
type Handler interface {
	Name() string
	Execute(ctx context.Context, call run.ToolCall) (*run.ToolResult, error)
}

// Func adapts a function to the Handler interface.
type Func struct {
	ToolName string
	Fn       func(ctx context.Context, call run.ToolCall) (*run.ToolResult, error)
}

func (f Func) Name() string { return f.ToolName }

func (f Func) Execute(ctx context.Context, call run.ToolCall) (*run.ToolResult, error) {
	return f.Fn(ctx, call)
}
