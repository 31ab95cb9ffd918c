// Package ristretto caches thread history in process using
// dgraph-io/ristretto, fronting any history.Fetcher.
package ristretto

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/AgentWire/config"
	"github.com/Strob0t/AgentWire/port/history"
)

// History is a read-through history cache. Entries are the marshaled
// envelope slice of one thread, costed by byte size.
type History struct {
	c     *ristretto.Cache[string, []byte]
	inner history.Fetcher
	ttl   time.Duration
}

// New wraps inner with an in-process cache sized per cfg.
func New(inner history.Fetcher, cfg config.Cache) (*History, error) {
	maxCost := cfg.MaxSizeMB * 1024 * 1024
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost / 100 * 10, // ~10x expected items
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &History{c: c, inner: inner, ttl: cfg.TTL}, nil
}

// Messages returns the thread's envelopes, from cache when fresh.
func (h *History) Messages(ctx context.Context, threadID string) ([]json.RawMessage, error) {
	if data, found := h.c.Get(threadID); found {
		var msgs []json.RawMessage
		if err := json.Unmarshal(data, &msgs); err == nil {
			return msgs, nil
		}
		// A corrupt entry falls through to a fresh fetch.
		h.c.Del(threadID)
	}

	msgs, err := h.inner.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(msgs); err == nil {
		h.c.SetWithTTL(threadID, data, int64(len(data)), h.ttl)
	}
	return msgs, nil
}

// Invalidate drops one thread's cached history, e.g. after sending a
// message on it.
func (h *History) Invalidate(threadID string) {
	h.c.Del(threadID)
}

// Close shuts down the cache and releases resources.
func (h *History) Close() {
	h.c.Close()
}
