// Package session drives the streaming conversation pipeline for one
// thread: it sends messages, pumps the response stream through decode,
// assembly, and tracking, dispatches client-side tools, and publishes
// every change through the conversation state store.
package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	otelw "github.com/Strob0t/AgentWire/adapter/otel"
	"github.com/Strob0t/AgentWire/domain/run"
	"github.com/Strob0t/AgentWire/internal/logger"
	"github.com/Strob0t/AgentWire/internal/tracker"
	"github.com/Strob0t/AgentWire/port/history"
	"github.com/Strob0t/AgentWire/port/toolhandler"
	"github.com/Strob0t/AgentWire/port/transport"
	"github.com/Strob0t/AgentWire/state"
)

// Session owns one conversation thread against one agent.
//
// All stream processing happens on a single goroutine per stream (the
// pump); tool handlers run concurrently but feed their outcomes back
// through the tracker and store, which serialize internally. At most one
// stream is live per session: a new send aborts the previous stream.
type Session struct {
	threadID string
	sender   transport.Sender
	history  history.Fetcher
	tools    *toolhandler.Registry
	log      *slog.Logger
	metrics  *otelw.Metrics

	store *state.Store
	calls *tracker.ToolCalls
	tasks *tracker.Tasks

	// toolSem bounds concurrent tool handler executions.
	toolSem *semaphore.Weighted

	mu           sync.Mutex
	agentID      string
	cancelStream context.CancelFunc
	streamGen    uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithHistory sets the thread-history fetcher used by LoadHistory.
func WithHistory(h history.Fetcher) Option {
	return func(s *Session) { s.history = h }
}

// WithTools sets the registry consulted for client-side tool execution.
func WithTools(reg *toolhandler.Registry) Option {
	return func(s *Session) { s.tools = reg }
}

// WithMetrics sets the pipeline instruments. Defaults to none.
func WithMetrics(m *otelw.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithToolConcurrency bounds simultaneous tool handler executions.
// Defaults to 4.
func WithToolConcurrency(n int64) Option {
	return func(s *Session) {
		if n > 0 {
			s.toolSem = semaphore.NewWeighted(n)
		}
	}
}

// New creates a session for one thread against the given agent.
func New(threadID, agentID string, sender transport.Sender, opts ...Option) *Session {
	s := &Session{
		threadID: threadID,
		agentID:  agentID,
		sender:   sender,
		tools:    toolhandler.NewRegistry(),
		log:      slog.Default(),
		store:    state.NewStore(),
		calls:    tracker.NewToolCalls(),
		tasks:    tracker.NewTasks(),
		toolSem:  semaphore.NewWeighted(4),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("thread_id", threadID)
	return s
}

// Store returns the conversation state store for snapshots and
// subscriptions.
func (s *Session) Store() *state.Store {
	return s.store
}

// ThreadID returns the thread this session owns.
func (s *Session) ThreadID() string {
	return s.threadID
}

// AgentID returns the agent currently bound to the session.
func (s *Session) AgentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentID
}

// Cancel aborts the in-flight stream, if any, forgets the turn's tasks,
// and forces the streaming and loading indicators off. The item being
// applied when Cancel arrives finishes; nothing after it is consumed. The
// aborted task never carries into the next turn: the next run_started
// establishes a fresh main task and outbound messages stop referencing
// the cancelled id.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancelStream
	s.cancelStream = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.tasks.Reset()
	s.store.SetTasks(s.tasks.Snapshot())
	s.store.SetFlags(false, false)
}

// CancelTask additionally asks the server to stop the main task before
// aborting the local stream.
func (s *Session) CancelTask(ctx context.Context) error {
	taskID := s.tasks.MainTaskID()
	if taskID != "" {
		if err := s.sender.CancelTask(ctx, taskID); err != nil {
			return err
		}
	}
	s.Cancel()
	return nil
}

// SwitchAgent rebinds the session to another agent. The in-flight stream
// is aborted and all conversation state is cleared; tool-call state from
// the previous agent must not leak into the next.
func (s *Session) SwitchAgent(agentID string) {
	s.Cancel()

	s.mu.Lock()
	s.agentID = agentID
	s.mu.Unlock()

	s.calls.ClearAll()
	s.tasks.Reset()
	s.store.Clear()
	s.log.Info("agent switched", "agent_id", agentID)
}

// beginStream aborts the previous stream and derives the context for a
// new one. The returned generation identifies the stream in endStream.
func (s *Session) beginStream(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	prev := s.cancelStream
	streamCtx, cancel := context.WithCancel(logger.WithThreadID(ctx, s.threadID))
	s.cancelStream = cancel
	s.streamGen++
	gen := s.streamGen
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	return streamCtx, gen
}

// endStream releases the stream's cancel func, unless a newer stream has
// already replaced it.
func (s *Session) endStream(gen uint64) {
	s.mu.Lock()
	if s.streamGen == gen && s.cancelStream != nil {
		s.cancelStream()
		s.cancelStream = nil
	}
	s.mu.Unlock()
}

// publishToolCalls pushes the tracker's current view into the store.
func (s *Session) publishToolCalls() {
	s.store.SetToolCalls(s.calls.States())
}

// Outstanding returns the tool calls still awaiting execution or user
// action, in registration order.
func (s *Session) Outstanding() []run.ToolCallState {
	return s.calls.Outstanding()
}
