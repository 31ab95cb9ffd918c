// Package nats implements an envelope stream source over NATS JetStream,
// for deployments that fan conversation events out through a broker
// instead of per-request SSE.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/AgentWire/config"
	"github.com/Strob0t/AgentWire/port/stream"
)

// Conn is a JetStream connection scoped to the conversation event stream.
type Conn struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	buffer int
}

// Connect establishes a connection to NATS and ensures the event stream
// exists with per-thread subjects.
func Connect(ctx context.Context, cfg config.NATS, buffer int) (*Conn, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{"threads.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", cfg.URL, "stream", cfg.Stream)
	return &Conn{nc: nc, js: js, stream: cfg.Stream, buffer: buffer}, nil
}

// ThreadSource opens an envelope source over one thread's event subject.
// The source ends with io.EOF when closed.
func (c *Conn) ThreadSource(ctx context.Context, threadID string) (stream.Source, error) {
	subject := "threads." + threadID + ".events"

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.stream, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	src := &source{
		ch:   make(chan json.RawMessage, c.buffer),
		done: make(chan struct{}),
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case src.ch <- json.RawMessage(msg.Data()):
			if ackErr := msg.Ack(); ackErr != nil {
				slog.Error("nats ack failed", "subject", subject, "error", ackErr)
			}
		case <-src.done:
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "subject", subject, "error", nakErr)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume %s: %w", subject, err)
	}

	src.stop = cons.Stop
	return src, nil
}

// Close shuts down the NATS connection.
func (c *Conn) Close() error {
	c.nc.Close()
	return nil
}

// source adapts a JetStream consumer to the stream.Source port.
type source struct {
	ch   chan json.RawMessage
	stop func()

	once sync.Once
	done chan struct{}
}

func (s *source) Next(ctx context.Context) (json.RawMessage, error) {
	select {
	case raw := <-s.ch:
		return raw, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *source) Close() error {
	s.once.Do(func() {
		s.stop()
		close(s.done)
	})
	return nil
}
