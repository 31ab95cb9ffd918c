// Package assembler reconstructs conversation messages from streamed
// items. All merging keys on message id; sequences are copy-on-write so
// previously published snapshots never observe later mutations.
package assembler

import (
	"fmt"
	"time"

	"github.com/Strob0t/AgentWire/domain/chat"
)

// Error reports an item that could not be merged into the sequence.
// The sequence it was offered to is left untouched.
type Error struct {
	Reason    string
	MessageID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("assemble message %s: %s", e.MessageID, e.Reason)
}

// Apply merges item into items and returns the resulting sequence.
//
// Complete messages merge by id (parts concatenated in arrival order) or
// append. text_message_start opens an empty message, idempotently if one
// with that id already exists. text_message_content appends its delta to
// the identified message; a delta with no open message is rejected.
// All other events append to the sequence as-is.
//
// The input slice is never mutated: changed messages are cloned and the
// slice reallocated before modification.
func Apply(items []chat.Item, item chat.Item) ([]chat.Item, error) {
	switch v := item.(type) {
	case *chat.Message:
		return applyMessage(items, v), nil
	case *chat.Event:
		return applyEvent(items, v)
	default:
		return items, &Error{Reason: "unsupported item type"}
	}
}

func applyMessage(items []chat.Item, msg *chat.Message) []chat.Item {
	idx, existing := findMessage(items, msg.ID)
	if existing == nil {
		return appendItem(items, msg)
	}

	merged := existing.Clone()
	merged.Parts = append(merged.Parts, msg.Parts...)
	return replaceAt(items, idx, merged)
}

func applyEvent(items []chat.Item, ev *chat.Event) ([]chat.Item, error) {
	switch ev.Kind {
	case chat.EventTextMessageStart:
		if _, existing := findMessage(items, ev.MessageID); existing != nil {
			// Duplicate start: the message is already open.
			return items, nil
		}
		role := ev.Role
		if role == "" {
			role = chat.RoleAssistant
		}
		opened := &chat.Message{
			ID:        ev.MessageID,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}
		return appendItem(items, opened), nil

	case chat.EventTextMessageContent:
		idx, existing := findMessage(items, ev.MessageID)
		if existing == nil {
			return items, &Error{MessageID: ev.MessageID, Reason: "delta for unopened message"}
		}
		updated := existing.Clone()
		updated.AppendText(ev.Delta)
		return replaceAt(items, idx, updated), nil

	case chat.EventTextMessageEnd:
		idx, existing := findMessage(items, ev.MessageID)
		if existing == nil {
			// End for a message we never saw: stale, drop.
			return items, nil
		}
		sealed := existing.Clone()
		sealed.Sealed = true
		return replaceAt(items, idx, sealed), nil

	default:
		return appendItem(items, ev), nil
	}
}

func findMessage(items []chat.Item, id string) (int, *chat.Message) {
	for i, it := range items {
		if msg, ok := it.(*chat.Message); ok && msg.ID == id {
			return i, msg
		}
	}
	return -1, nil
}

func appendItem(items []chat.Item, item chat.Item) []chat.Item {
	out := make([]chat.Item, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

func replaceAt(items []chat.Item, idx int, item chat.Item) []chat.Item {
	out := make([]chat.Item, len(items))
	copy(out, items)
	out[idx] = item
	return out
}
