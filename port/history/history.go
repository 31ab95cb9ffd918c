// Package history defines the thread-history retrieval contract.
package history

import (
	"context"
	"encoding/json"
)

// Fetcher returns the stored message envelopes of a thread, oldest first.
// A thread with no history yields an empty slice, not an error.
type Fetcher interface {
	Messages(ctx context.Context, threadID string) ([]json.RawMessage, error)
}
