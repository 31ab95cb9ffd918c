// Package state owns the externally observable conversation state and its
// subscriber fan-out.
package state

import (
	"sync"

	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/internal/assembler"
)

// Snapshot is an immutable view of a conversation at one instant. Fields
// are replaced wholesale on every mutation, never edited in place, so two
// snapshots are interchangeable iff their slice headers are equal.
type Snapshot struct {
	// Items is the ordered conversation sequence: messages and events.
	Items []chat.Item
	// Execution is the plan/step/tool subset of events, in arrival order.
	Execution []*chat.Event
	// ToolCalls is the current tool-call state keyed by id.
	ToolCalls map[string]run.ToolCallState
	// Tasks are the running tasks, main first.
	Tasks []run.Task

	// Streaming reports an active response stream; Loading reports an
	// unanswered request. Both drop only when the main task finishes.
	Streaming bool
	Loading   bool

	// Err is the last conversation-fatal error, cleared on the next send.
	Err error
}

// Store serializes mutations to one conversation's state and publishes a
// fresh snapshot to subscribers after each change.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		snap: Snapshot{ToolCalls: map[string]run.ToolCallState{}},
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers a snapshot listener. The channel holds the latest
// unconsumed snapshot; a slow subscriber sees the newest state, not every
// intermediate one. The returned cancel func closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// AppendOrMerge merges item into the conversation sequence. Items that
// cannot be merged (orphan deltas) are rejected without state change.
func (s *Store) AppendOrMerge(item chat.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := assembler.Apply(s.snap.Items, item)
	if err != nil {
		return err
	}
	s.snap.Items = items

	if ev, ok := item.(*chat.Event); ok && ev.Execution() {
		execution := make([]*chat.Event, len(s.snap.Execution), len(s.snap.Execution)+1)
		copy(execution, s.snap.Execution)
		s.snap.Execution = append(execution, ev)
	}

	s.publish()
	return nil
}

// SetFlags sets the streaming and loading indicators.
func (s *Store) SetFlags(streaming, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap.Streaming == streaming && s.snap.Loading == loading {
		return
	}
	s.snap.Streaming = streaming
	s.snap.Loading = loading
	s.publish()
}

// SetError records a conversation-fatal error (or clears it with nil).
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Err = err
	s.publish()
}

// SetToolCalls replaces the published tool-call view. The caller hands
// over ownership of the map.
func (s *Store) SetToolCalls(calls map[string]run.ToolCallState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.ToolCalls = calls
	s.publish()
}

// SetTasks replaces the published task view.
func (s *Store) SetTasks(tasks []run.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Tasks = tasks
	s.publish()
}

// Clear resets the conversation to empty. Subscriptions survive.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = Snapshot{ToolCalls: map[string]run.ToolCallState{}}
	s.publish()
}

// publish fans the current snapshot out to subscribers. Callers hold mu.
func (s *Store) publish() {
	for _, ch := range s.subs {
		select {
		case ch <- s.snap:
		default:
			// Replace the stale pending snapshot with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.snap:
			default:
			}
		}
	}
}
