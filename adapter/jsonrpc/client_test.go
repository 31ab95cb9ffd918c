package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/AgentWire/config"
	"github.com/Strob0t/AgentWire/port/a2a"
)

func serverConfig(baseURL string) config.Server {
	return config.Server{
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    10 * time.Millisecond,
	}
}

func breakerConfig() config.Breaker {
	return config.Breaker{MaxFailures: 5, Timeout: time.Second}
}

func newTestClient(baseURL string) *Client {
	return New(serverConfig(baseURL), breakerConfig(), "coder")
}

func userMessage(text string) a2a.Message {
	return a2a.Message{
		MessageID: "m1",
		Role:      "user",
		Kind:      a2a.KindMessage,
		ContextID: "thread-1",
		Parts:     []a2a.Part{{Kind: "text", Text: text}},
	}
}

func TestSendReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/agents/coder" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.JSONRPC != "2.0" || req.Method != "message/send" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  json.RawMessage(`{"taskId":"t1"}`),
		})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Send(context.Background(), userMessage("hi"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(result) != `{"taskId":"t1"}` {
		t.Errorf("result = %s", result)
	}
}

func TestSendSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32001, Message: "agent not found"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Send(context.Background(), userMessage("hi"))
	if err == nil || !strings.Contains(err.Error(), "agent not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendStreamParsesSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("accept = %s", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, ": keep-alive\n\n")
		io.WriteString(w, "data: {\"kind\":\"status-update\",\"taskId\":\"t1\"}\n\n")
		io.WriteString(w, "event: message\n")
		io.WriteString(w, "data: {\"kind\":\n")
		io.WriteString(w, "data: \"message\"}\n\n")
	}))
	defer srv.Close()

	src, err := newTestClient(srv.URL).SendStream(context.Background(), userMessage("hi"))
	if err != nil {
		t.Fatalf("SendStream: %v", err)
	}
	defer src.Close()

	ctx := context.Background()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(first) != `{"kind":"status-update","taskId":"t1"}` {
		t.Errorf("first event = %s", first)
	}

	// Multi-line data joins with newlines and must still be valid JSON.
	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !json.Valid(second) {
		t.Errorf("second event not valid JSON: %s", second)
	}

	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestSendStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	src, err := newTestClient(srv.URL).SendStream(ctx, userMessage("hi"))
	if err != nil {
		t.Fatalf("SendStream: %v", err)
	}
	defer src.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = src.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCancelTask(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotMethod = req.Method
		json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: req.ID})
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).CancelTask(context.Background(), "t1"); err != nil {
		t.Fatalf("CancelTask: %v", err)
	}
	if gotMethod != "tasks/cancel" {
		t.Errorf("method = %s", gotMethod)
	}
}

func TestMessagesUnknownThreadIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv.URL).Messages(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if msgs != nil {
		t.Errorf("messages = %v, want nil", msgs)
	}
}

func TestMessagesRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[{"kind":"message","messageId":"m1"}]`)
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv.URL).Messages(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("messages = %d, want 1", len(msgs))
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestMessagesDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Messages(context.Background(), "t1"); err == nil {
		t.Fatal("expected error")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(serverConfig(srv.URL), config.Breaker{MaxFailures: 2, Timeout: time.Minute}, "coder")

	for range 2 {
		if _, err := c.Send(context.Background(), userMessage("x")); err == nil {
			t.Fatal("expected error from failing server")
		}
	}

	// The breaker is now open; calls fail fast without hitting the server.
	_, err := c.Send(context.Background(), userMessage("x"))
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("err = %v, want open breaker", err)
	}
}
