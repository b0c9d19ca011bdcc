package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/getmockd/echod/pkg/message"
)

// connHandler owns one accepted connection for its whole lifetime.
type connHandler struct {
	conn       net.Conn
	timeout    time.Duration
	bufferSize int
	log        *slog.Logger
	metrics    *serverMetrics
	release    func() // frees the connection's admission slot
}

// serve is the goroutine entry point. It runs handle, logs how it ended and
// closes the connection.
func (h *connHandler) serve() {
	start := time.Now()
	defer func() {
		_ = h.conn.Close()
		h.metrics.connClosed(time.Since(start))
		h.release()
	}()

	err := h.handle()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrDeadlineExceeded):
		h.log.Warn("client timed out", "timeout", h.timeout)
	default:
		h.log.Error("error handling client", "error", err)
	}
}

// handle runs the read/decode/reply loop. It returns nil when the client
// disconnects and the first I/O error otherwise, including a read timeout.
//
// Each read is treated as exactly one encoded envelope: bytes are never
// carried over between reads, so a message split across reads or several
// messages in one read will not decode.
func (h *connHandler) handle() error {
	buf := make([]byte, h.bufferSize)
	for {
		if err := h.conn.SetReadDeadline(time.Now().Add(h.timeout)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		n, err := h.conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.log.Info("client disconnected")
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}

		msg, err := message.DecodeClient(buf[:n])
		if err != nil {
			_ = h.metrics.decodeErrors.Inc()
			h.log.Error("failed to decode message", "error", err, "bytes", n)
			continue
		}

		payload, err := message.EncodeServer(h.reply(msg))
		if err != nil {
			return fmt.Errorf("encoding reply: %w", err)
		}
		if _, err := h.conn.Write(payload); err != nil {
			return fmt.Errorf("writing: %w", err)
		}
	}
}

// reply builds the server envelope answering msg. DecodeClient guarantees
// exactly one variant is set.
func (h *connHandler) reply(msg message.ClientMessage) message.ServerMessage {
	kind := msg.Kind()
	h.metrics.answered(kind)

	switch kind {
	case message.KindAddRequest:
		// int32 addition wraps on overflow, matching the wire type.
		sum := msg.AddRequest.A + msg.AddRequest.B
		h.log.Info("received add request", "a", msg.AddRequest.A, "b", msg.AddRequest.B, "result", sum)
		return message.ServerMessage{AddResponse: &message.AddResponse{Result: sum}}
	default:
		h.log.Info("received", "content", msg.EchoMessage.Content)
		return message.ServerMessage{EchoMessage: &message.EchoMessage{Content: msg.EchoMessage.Content}}
	}
}
