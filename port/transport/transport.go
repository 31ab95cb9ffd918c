// Package transport defines the outbound contract to an agent server.
package transport

import (
	"context"
	"encoding/json"

	"github.com/Strob0t/AgentWire/port/a2a"
	"github.com/Strob0t/AgentWire/port/stream"
)

// Sender delivers messages to an agent and opens event streams for their
// responses.
type Sender interface {
	// Send delivers msg and returns the server's direct result.
	Send(ctx context.Context, msg a2a.Message) (json.RawMessage, error)

	// SendStream delivers msg and returns the envelope stream of the
	// resulting run. The stream ends when the server closes it or ctx is
	// cancelled.
	SendStream(ctx context.Context, msg a2a.Message) (stream.Source, error)

	// CancelTask asks the server to stop a running task.
	CancelTask(ctx context.Context, taskID string) error
}
