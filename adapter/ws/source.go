// Package ws implements an envelope stream source over a WebSocket
// connection, for servers that push conversation events instead of
// serving SSE.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/coder/websocket"

	"github.com/Strob0t/AgentWire/port/stream"
)

// Dial connects to url and returns the envelope source carried by the
// socket. Each text frame is one envelope.
func Dial(ctx context.Context, url string) (stream.Source, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}

	slog.Debug("websocket connected", "url", url)
	return &source{conn: conn}, nil
}

type source struct {
	conn *websocket.Conn
}

func (s *source) Next(ctx context.Context) (json.RawMessage, error) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil, io.EOF
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("websocket read: %w", err)
		}
		if typ != websocket.MessageText {
			// Binary frames are not part of the dialect.
			continue
		}
		return json.RawMessage(data), nil
	}
}

func (s *source) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
