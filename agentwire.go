// Package agentwire is a client library for streaming agent
// conversations. It assembles the configured transport, cache, logging,
// and telemetry, and hands out one Session per conversation thread.
//
// Typical use:
//
//	cfg, err := config.Load()
//	client, err := agentwire.New(ctx, cfg)
//	defer client.Close(ctx)
//
//	sess, err := client.Session("thread-1", "my-agent")
//	snapshots, stop := sess.Store().Subscribe()
//	defer stop()
//	err = sess.SendText(ctx, "hello")
package agentwire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/AgentWire/adapter/jsonrpc"
	otelw "github.com/Strob0t/AgentWire/adapter/otel"
	"github.com/Strob0t/AgentWire/adapter/ristretto"
	"github.com/Strob0t/AgentWire/config"
	"github.com/Strob0t/AgentWire/internal/logger"
	"github.com/Strob0t/AgentWire/port/history"
	"github.com/Strob0t/AgentWire/session"
)

// Client is the entry point: shared infrastructure plus a session per
// thread.
type Client struct {
	cfg       *config.Config
	log       *slog.Logger
	logCloser logger.Closer
	metrics   *otelw.Metrics
	shutdown  otelw.ShutdownFunc
	cache     *ristretto.History

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// New builds a client from cfg: logger, optional OTLP telemetry, and the
// optional history cache. Transports are built per session.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	log, logCloser := logger.New(cfg.Logging)

	shutdown, err := otelw.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	var metrics *otelw.Metrics
	if cfg.Telemetry.Endpoint != "" {
		if metrics, err = otelw.NewMetrics(); err != nil {
			logCloser.Close()
			return nil, errors.Join(fmt.Errorf("create metrics: %w", err), shutdown(ctx))
		}
	}

	return &Client{
		cfg:       cfg,
		log:       log,
		logCloser: logCloser,
		metrics:   metrics,
		shutdown:  shutdown,
		sessions:  make(map[string]*session.Session),
	}, nil
}

// Session returns the session for threadID, creating it bound to agentID
// on first use. Extra options (a tool registry, usually) apply only on
// creation; subsequent calls return the existing session unchanged.
func (c *Client) Session(threadID, agentID string, opts ...session.Option) (*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[threadID]; ok {
		return sess, nil
	}

	transport := jsonrpc.New(c.cfg.Server, c.cfg.Breaker, agentID,
		jsonrpc.WithLogger(c.log))

	fetcher, err := c.historyFetcher(transport)
	if err != nil {
		return nil, err
	}

	base := []session.Option{
		session.WithLogger(c.log),
		session.WithHistory(fetcher),
		session.WithMetrics(c.metrics),
		session.WithToolConcurrency(c.cfg.Tools.MaxConcurrent),
	}
	sess := session.New(threadID, agentID, transport, append(base, opts...)...)
	c.sessions[threadID] = sess
	return sess, nil
}

// historyFetcher wraps the transport's history endpoint with the
// configured cache. The cache is shared across sessions.
func (c *Client) historyFetcher(inner history.Fetcher) (history.Fetcher, error) {
	if !c.cfg.Cache.Enabled {
		return inner, nil
	}
	if c.cache == nil {
		cache, err := ristretto.New(inner, c.cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("create history cache: %w", err)
		}
		c.cache = cache
	}
	return c.cache, nil
}

// Close aborts every session and releases shared resources.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*session.Session)
	c.mu.Unlock()

	for _, sess := range sessions {
		sess.Cancel()
	}
	if c.cache != nil {
		c.cache.Close()
	}

	err := c.shutdown(ctx)
	c.logCloser.Close()
	return err
}
