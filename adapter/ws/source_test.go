package ws_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/AgentWire/adapter/ws"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestTextFramesBecomeEnvelopes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		ctx := r.Context()
		conn.Write(ctx, websocket.MessageText, []byte(`{"kind":"status-update","taskId":"t1"}`))
		conn.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02})
		conn.Write(ctx, websocket.MessageText, []byte(`{"kind":"message","messageId":"m1"}`))
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := ws.Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer src.Close()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(first) != `{"kind":"status-update","taskId":"t1"}` {
		t.Errorf("first = %s", first)
	}

	// The binary frame in between is skipped.
	second, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(second) != `{"kind":"message","messageId":"m1"}` {
		t.Errorf("second = %s", second)
	}

	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF on normal closure", err)
	}
}

func TestNextHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		// Hold the connection open without sending anything.
		<-r.Context().Done()
		conn.Close(websocket.StatusGoingAway, "")
	}))
	defer srv.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()

	src, err := ws.Dial(dialCtx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer src.Close()

	readCtx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if _, err := src.Next(readCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := ws.Dial(ctx, "ws://127.0.0.1:1/nope"); err == nil {
		t.Fatal("expected dial error")
	}
}
