package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// sseSource parses a text/event-stream body into raw envelopes. One SSE
// event may spread its data over several "data:" lines, which concatenate
// with newlines. Cancellation rides on the request context:
// when it fires the body read fails and Next surfaces the error.
type sseSource struct {
	body io.ReadCloser
	r    *bufio.Reader
}

func newSSESource(body io.ReadCloser) *sseSource {
	return &sseSource{
		body: body,
		r:    bufio.NewReader(body),
	}
}

// Next returns the data of the next SSE event. io.EOF marks a cleanly
// closed stream.
func (s *sseSource) Next(ctx context.Context) (json.RawMessage, error) {
	var data bytes.Buffer

	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && data.Len() > 0 {
				return json.RawMessage(data.Bytes()), nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if data.Len() > 0 {
				return json.RawMessage(data.Bytes()), nil
			}
			// Keep-alive separator before any data.
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// Comment / heartbeat.
		default:
			// event:, id:, retry: fields are irrelevant to this dialect.
		}
	}
}

// Close releases the response body. A blocked Next unblocks with an
// error.
func (s *sseSource) Close() error {
	return s.body.Close()
}
