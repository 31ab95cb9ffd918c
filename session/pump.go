package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	otelw "github.com/Strob0t/AgentWire/adapter/otel"
	"github.com/Strob0t/AgentWire/domain/chat"
	"github.com/Strob0t/AgentWire/internal/codec"
	"github.com/Strob0t/AgentWire/internal/logger"
	"github.com/Strob0t/AgentWire/port/stream"
)

// Send builds a user message from parts and streams the agent's response
// until the stream ends or is aborted. Any previous stream on this
// session is aborted first.
func (s *Session) Send(ctx context.Context, parts ...chat.Part) error {
	return s.SendMessage(ctx, chat.NewMessage(chat.RoleUser, parts...))
}

// SendText is Send with a single text part.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.Send(ctx, chat.TextPart(text))
}

// SendMessage appends msg to the conversation, delivers it, and pumps the
// response stream. It returns when the stream ends, fails, or is aborted;
// abortion by a newer Send or by Cancel is not an error.
func (s *Session) SendMessage(ctx context.Context, msg *chat.Message) error {
	streamCtx, gen := s.beginStream(ctx)
	defer s.endStream(gen)

	s.store.SetError(nil)
	s.store.SetFlags(true, true)
	if err := s.store.AppendOrMerge(msg); err != nil {
		s.log.Warn("message not recorded", "message_id", msg.ID, "error", err)
	}

	spanCtx, span := otelw.StartTurnSpan(streamCtx, s.threadID, s.AgentID())
	defer span.End()
	started := time.Now()

	wire := codec.EncodeMessage(msg, s.threadID, s.tasks.MainTaskID())
	src, err := s.sender.SendStream(spanCtx, wire)
	if err != nil {
		err = fmt.Errorf("send message: %w", err)
		s.fail(err)
		return err
	}
	defer src.Close()

	err = s.pump(spanCtx, src)
	s.metrics.RecordTurn(spanCtx, time.Since(started).Seconds())
	return err
}

// Attach pumps an externally established envelope stream (for example a
// JetStream or WebSocket subscription) through the same pipeline as a
// response stream. It aborts any previous stream on the session.
func (s *Session) Attach(ctx context.Context, src stream.Source) error {
	streamCtx, gen := s.beginStream(ctx)
	defer s.endStream(gen)

	s.store.SetFlags(true, true)
	return s.pump(streamCtx, src)
}

// pump is the single-writer loop: it consumes envelopes in order and
// applies each one fully before reading the next.
func (s *Session) pump(ctx context.Context, src stream.Source) error {
	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// Aborted by Cancel or a newer Send.
				s.store.SetFlags(false, false)
				return nil
			}
			err = fmt.Errorf("read stream: %w", err)
			s.fail(err)
			return err
		}
		s.apply(ctx, raw)
	}

	// The server closed the stream; whatever the event history said, the
	// turn is over.
	s.store.SetFlags(false, false)
	return nil
}

// fail records a conversation-fatal error: pending tool calls are failed
// so nothing hangs outstanding, and the indicators drop.
func (s *Session) fail(err error) {
	s.log.Error("stream failed", "error", err)
	s.store.SetError(err)
	s.calls.FailAll(err.Error())
	s.publishToolCalls()
	s.store.SetFlags(false, false)
}

// apply runs one envelope through decode, assembly, and tracking. Bad
// envelopes are logged and dropped; they never end the stream.
func (s *Session) apply(ctx context.Context, raw []byte) {
	s.metrics.RecordEnvelope(ctx)

	item, err := codec.Decode(raw)
	if err != nil {
		s.log.Warn("envelope dropped", "error", err)
		s.metrics.RecordDropped(ctx, "decode")
		return
	}

	switch v := item.(type) {
	case *chat.Message:
		s.applyMessage(ctx, v)
	case *chat.Event:
		s.applyEvent(ctx, v)
	}
}

func (s *Session) applyMessage(ctx context.Context, msg *chat.Message) {
	if err := s.store.AppendOrMerge(msg); err != nil {
		s.log.Warn("message dropped", "message_id", msg.ID, "error", err)
		s.metrics.RecordDropped(ctx, "assemble")
		return
	}

	if calls := msg.ToolCalls(); len(calls) > 0 {
		s.registerCalls(ctx, calls)
	}
	if results := msg.ToolResults(); len(results) > 0 {
		s.applyResults(ctx, results)
	}
}

func (s *Session) applyEvent(ctx context.Context, ev *chat.Event) {
	switch ev.Kind {
	case chat.EventRunStarted:
		parent := s.tasks.Start(ev.TaskID, ev.RunID)
		s.store.SetTasks(s.tasks.Snapshot())
		s.store.SetFlags(true, true)
		s.log.Debug("task started", "task_id", ev.TaskID, "parent", parent)

	case chat.EventRunFinished:
		if s.tasks.Finish(ev.TaskID) {
			s.store.SetFlags(false, false)
			s.log.Debug("main task finished", "task_id", ev.TaskID)
		} else {
			s.log.Debug("sub-task finished", "task_id", ev.TaskID)
		}
		s.store.SetTasks(s.tasks.Snapshot())

	case chat.EventRunError:
		s.fail(fmt.Errorf("run error: %s", ev.ErrorMessage))

	case chat.EventTextMessageStart, chat.EventTextMessageContent, chat.EventTextMessageEnd:
		if err := s.store.AppendOrMerge(ev); err != nil {
			s.log.Warn("delta dropped", "message_id", ev.MessageID, "error", err)
			s.metrics.RecordDropped(ctx, "assemble")
		}

	case chat.EventToolCalls:
		s.recordExecution(ctx, ev)
		s.registerCalls(ctx, ev.Calls)

	case chat.EventToolResults:
		s.recordExecution(ctx, ev)
		s.applyResults(ctx, ev.Results)

	case chat.EventToolCallStart:
		s.recordExecution(ctx, ev)
		s.startServerCall(ev)

	case chat.EventToolCallArgs:
		s.recordExecution(ctx, ev)
		s.calls.AppendInput(ev.ToolCallID, ev.Delta)
		s.publishToolCalls()

	case chat.EventToolCallEnd:
		s.recordExecution(ctx, ev)
		s.finishServerCall(ev)

	case chat.EventToolCallResult:
		s.recordExecution(ctx, ev)
		s.resolveServerCall(ev)

	case chat.EventPlanStarted, chat.EventPlanFinished, chat.EventStepStarted, chat.EventStepCompleted:
		s.recordExecution(ctx, ev)

	default:
		// Unknown vocabulary stays visible in the conversation record.
		if err := s.store.AppendOrMerge(ev); err != nil {
			s.log.Warn("event dropped", "raw_type", ev.RawType, "error", err)
		}
		s.log.Debug("unknown event passed through", "raw_type", ev.RawType, "task_id", ev.TaskID)
	}
}

// recordExecution appends an execution-trace event to the conversation
// sequence.
func (s *Session) recordExecution(ctx context.Context, ev *chat.Event) {
	if err := s.store.AppendOrMerge(ev); err != nil {
		s.log.Warn("event dropped", "kind", ev.Kind, "error", err)
		s.metrics.RecordDropped(ctx, "assemble")
	}
}

// LoadHistory fetches the thread's stored messages, decodes them through
// the same codec as live traffic, and merges them into the conversation.
func (s *Session) LoadHistory(ctx context.Context) error {
	if s.history == nil {
		return nil
	}

	ctx = logger.WithThreadID(ctx, s.threadID)
	spanCtx, span := otelw.StartHistorySpan(ctx, s.threadID)
	defer span.End()

	s.store.SetFlags(s.store.Snapshot().Streaming, true)
	defer func() {
		s.store.SetFlags(s.store.Snapshot().Streaming, false)
	}()

	raws, err := s.history.Messages(spanCtx, s.threadID)
	if err != nil {
		err = fmt.Errorf("load history: %w", err)
		s.store.SetError(err)
		return err
	}

	for _, raw := range raws {
		item, err := codec.Decode(raw)
		if err != nil {
			s.log.Warn("history envelope dropped", "error", err)
			continue
		}
		if err := s.store.AppendOrMerge(item); err != nil {
			s.log.Warn("history item dropped", "error", err)
		}
	}
	return nil
}
