// Package jsonrpc implements the agent transport over HTTP: JSON-RPC for
// sends and cancels, server-sent events for response streams, and plain
// REST for thread history.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/AgentWire/config"
	"github.com/Strob0t/AgentWire/internal/logger"
	"github.com/Strob0t/AgentWire/internal/resilience"
	"github.com/Strob0t/AgentWire/port/a2a"
	"github.com/Strob0t/AgentWire/port/stream"
)

// Client talks JSON-RPC to one agent endpoint. It implements the
// transport.Sender and history.Fetcher ports.
type Client struct {
	baseURL       string
	agentID       string
	hc            *http.Client
	breaker       *resilience.Breaker
	log           *slog.Logger
	retryAttempts int
	retryDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithHTTPClient replaces the default instrumented HTTP client. The
// client must not enforce an overall timeout: it carries SSE streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New creates a client for the given agent. Request timeouts come from
// cfg and apply per call, not to the lifetime of a stream.
func New(cfg config.Server, breaker config.Breaker, agentID string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		agentID: agentID,
		hc: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:       resilience.NewBreaker(breaker.MaxFailures, breaker.Timeout),
		log:           slog.Default(),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) agentURL() string {
	return c.baseURL + "/api/v1/agents/" + c.agentID
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Send delivers msg with message/send and returns the call result.
func (c *Client) Send(ctx context.Context, msg a2a.Message) (json.RawMessage, error) {
	params := a2a.SendParams{
		Message: msg,
		Configuration: &a2a.SendConfiguration{
			AcceptedOutputModes: []string{"text/plain"},
			Blocking:            true,
		},
	}

	var result json.RawMessage
	err := c.breaker.Execute(func() error {
		resp, err := c.call(ctx, "message/send", params, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var rpc rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if rpc.Error != nil {
			return rpc.Error
		}
		result = rpc.Result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("message/send: %w", err)
	}
	return result, nil
}

// SendStream delivers msg with message/stream and returns the SSE
// envelope stream of the resulting run.
func (c *Client) SendStream(ctx context.Context, msg a2a.Message) (stream.Source, error) {
	params := a2a.SendParams{
		Message: msg,
		Configuration: &a2a.SendConfiguration{
			AcceptedOutputModes: []string{"text/plain"},
			Blocking:            false,
		},
	}

	var src stream.Source
	err := c.breaker.Execute(func() error {
		resp, err := c.call(ctx, "message/stream", params, "text/event-stream")
		if err != nil {
			return err
		}
		src = newSSESource(resp.Body)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("message/stream: %w", err)
	}
	return src, nil
}

// CancelTask asks the server to stop a running task.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	err := c.breaker.Execute(func() error {
		resp, err := c.call(ctx, "tasks/cancel", a2a.TaskIDParams{ID: taskID}, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var rpc rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if rpc.Error != nil {
			return rpc.Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tasks/cancel %s: %w", taskID, err)
	}
	return nil
}

// call performs one JSON-RPC POST. The response body is returned open;
// non-2xx statuses are drained, closed, and reported as errors.
func (c *Client) call(ctx context.Context, method string, params any, accept string) (*http.Response, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.agentURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	c.log.Debug("rpc call", "method", method, "thread_id", logger.ThreadID(ctx))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	return resp, nil
}

// Messages fetches the stored envelopes of a thread over REST. An
// unknown thread is empty history, not an error. Transient failures are
// retried per the server config.
func (c *Client) Messages(ctx context.Context, threadID string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/v1/threads/%s/messages", c.baseURL, threadID)

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying history fetch", "thread_id", threadID, "attempt", attempt)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		msgs, retryable, err := c.fetchMessages(ctx, url)
		if err == nil {
			return msgs, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("fetch thread %s messages: %w", threadID, lastErr)
}

func (c *Client) fetchMessages(ctx context.Context, url string) (msgs []json.RawMessage, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, resp.StatusCode >= 500, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, false, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, false, nil
}
