// Package client is a minimal echod client: it dials the server, writes one
// encoded ClientMessage per Send and decodes one ServerMessage per Receive.
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/getmockd/echod/pkg/logging"
	"github.com/getmockd/echod/pkg/message"
)

// ReceiveBufferSize is the largest reply Receive can read in one call.
const ReceiveBufferSize = 1024

var (
	// ErrNotConnected is returned by Send and Receive before Connect.
	ErrNotConnected = errors.New("client: no active connection")

	// ErrInvalidAddress is returned by Connect when host and port do not
	// resolve to a TCP address.
	ErrInvalidAddress = errors.New("client: invalid IP or port")

	// ErrServerDisconnected is returned by Receive when the server closed
	// the connection.
	ErrServerDisconnected = errors.New("client: server disconnected")
)

// Client holds at most one connection to an echod server.
// It is not safe for concurrent use.
type Client struct {
	host    string
	port    int
	timeout time.Duration
	conn    net.Conn
	log     *slog.Logger
}

// New returns an unconnected client. timeout bounds the dial in Connect and
// each read in Receive; zero means no limit.
func New(host string, port int, timeout time.Duration) *Client {
	return &Client{
		host:    host,
		port:    port,
		timeout: timeout,
		log:     logging.Nop(),
	}
}

// SetLogger sets the client's logger.
func (c *Client) SetLogger(log *slog.Logger) {
	c.log = logging.OrNop(log)
}

// Address returns the host:port the client dials.
func (c *Client) Address() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Connect dials the server. Calling Connect while connected replaces the
// existing connection.
func (c *Client) Connect() error {
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, c.port)
	}
	addr := c.Address()
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	c.log.Debug("connecting", "addr", addr)
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}

	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.log.Info("connected to the server", "addr", addr, "local", conn.LocalAddr().String())
	return nil
}

// Disconnect shuts down both directions of the connection and closes it.
// It is a no-op when not connected.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil

	if tcp, ok := conn.(*net.TCPConn); ok {
		// Best effort: shutdown fails once the peer has reset the connection,
		// and Close below still releases the socket.
		if err := tcp.CloseWrite(); err != nil {
			c.log.Debug("shutdown write side", "error", err)
		}
		if err := tcp.CloseRead(); err != nil {
			c.log.Debug("shutdown read side", "error", err)
		}
	}
	err := conn.Close()
	c.log.Info("disconnected from the server")
	return err
}

// Connected reports whether Connect has succeeded and Disconnect has not been
// called since.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Send encodes msg and writes it as a single write.
func (c *Client) Send(msg message.ClientMessage) error {
	payload, err := message.EncodeClient(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if err := c.SendRaw(payload); err != nil {
		return err
	}
	c.log.Debug("sent message", "kind", msg.Kind(), "bytes", len(payload))
	return nil
}

// SendRaw writes payload unmodified. It exists so callers can exercise the
// server with bytes that are not a valid envelope.
func (c *Client) SendRaw(payload []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	_, err := c.conn.Write(payload)
	return err
}

// Receive performs one read of up to ReceiveBufferSize bytes and decodes it
// as a ServerMessage.
func (c *Client) Receive() (message.ServerMessage, error) {
	if c.conn == nil {
		c.log.Error("no active connection")
		return message.ServerMessage{}, ErrNotConnected
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return message.ServerMessage{}, err
		}
	}

	buf := make([]byte, ReceiveBufferSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.log.Info("server disconnected")
			return message.ServerMessage{}, ErrServerDisconnected
		}
		return message.ServerMessage{}, err
	}
	c.log.Debug("received bytes from the server", "bytes", n)

	msg, err := message.DecodeServer(buf[:n])
	if err != nil {
		return message.ServerMessage{}, fmt.Errorf("decoding server message: %w", err)
	}
	return msg, nil
}
