// Package stream defines the inbound envelope source contract shared by
// the SSE, WebSocket, and JetStream adapters.
package stream

import (
	"context"
	"encoding/json"
)

// Source yields raw protocol envelopes in arrival order.
//
// Next blocks until an envelope is available, the stream ends (io.EOF), or
// ctx is done. Implementations must be safe to Close concurrently with a
// blocked Next.
type Source interface {
	Next(ctx context.Context) (json.RawMessage, error)
	Close() error
}
