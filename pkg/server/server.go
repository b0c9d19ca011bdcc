package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/getmockd/echod/pkg/logging"
	"github.com/getmockd/echod/pkg/metrics"
)

// Server accepts TCP connections and echoes protobuf envelopes back to each
// client on its own goroutine.
//
// A Server is bound by New, runs in Run until Stop is called, and releases
// its socket in Close. Stop only ends accepting: connections already handed
// to a handler keep being served until the client disconnects, an I/O error
// occurs, or the read timeout expires.
type Server struct {
	tcp     *net.TCPListener
	slots   *semaphore.Weighted // nil when connections are unbounded
	running runFlag
	closed  atomic.Bool
	opts    options
	log     *slog.Logger
	metrics *serverMetrics
}

// New binds a TCP listener on addr. It does not start accepting; call Run.
// Binding failures are returned as *BindError.
func New(addr string, opts ...Option) (*Server, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		_ = ln.Close()
		return nil, &BindError{Addr: addr, Err: errors.New("not a TCP listener")}
	}

	reg := o.registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	s := &Server{
		tcp:     tcp,
		opts:    o,
		log:     logging.OrNop(o.log),
		metrics: newServerMetrics(reg),
	}
	if o.maxConnections > 0 {
		s.slots = semaphore.NewWeighted(int64(o.maxConnections))
	}
	return s, nil
}

// Addr returns the bound address, which resolves port 0 to the real port.
func (s *Server) Addr() net.Addr {
	return s.tcp.Addr()
}

// IsRunning reports whether the accept loop is active.
func (s *Server) IsRunning() bool {
	return s.running.running()
}

// Stats returns a snapshot of the server's counters.
func (s *Server) Stats() Stats {
	return s.metrics.snapshot()
}

// Run accepts connections until Stop is called, spawning one handler
// goroutine per connection. It returns nil once stopped, without waiting for
// handlers to finish, or ErrServerClosed if the listener is closed.
//
// Each accept attempt waits at most the poll interval for a pending
// connection, and at most the same interval for a free slot when
// WithMaxConnections is set, so Stop takes effect within one interval.
func (s *Server) Run() error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	s.running.start()
	s.log.Info("server is running", "addr", s.Addr().String())

	for s.running.running() {
		if !s.acquireSlot() {
			// At the connection cap.
			if s.closed.Load() {
				s.running.stop()
				return ErrServerClosed
			}
			continue
		}

		if err := s.tcp.SetDeadline(time.Now().Add(s.opts.pollInterval)); err != nil {
			if s.closed.Load() {
				s.releaseSlot()
				s.running.stop()
				return ErrServerClosed
			}
			s.log.Error("error arming accept deadline", "error", err)
		}

		conn, err := s.tcp.Accept()
		if err != nil {
			s.releaseSlot()
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				// No pending connection.
			case errors.Is(err, net.ErrClosed):
				s.running.stop()
				s.log.Info("server stopped", "reason", "listener closed")
				return ErrServerClosed
			default:
				_ = s.metrics.acceptErrors.Inc()
				s.log.Error("error accepting connection", "error", err)
				time.Sleep(s.opts.pollInterval)
			}
			continue
		}

		s.spawn(conn)
	}

	s.log.Info("server stopped")
	return nil
}

// acquireSlot reserves room for one more connection. It gives up after one
// poll interval so the caller can re-check the run flag.
func (s *Server) acquireSlot() bool {
	if s.slots == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.pollInterval)
	defer cancel()
	return s.slots.Acquire(ctx, 1) == nil
}

func (s *Server) releaseSlot() {
	if s.slots != nil {
		s.slots.Release(1)
	}
}

// spawn hands conn to a new handler goroutine. The server keeps no reference
// to it afterwards.
func (s *Server) spawn(conn net.Conn) {
	id := uuid.NewString()
	log := s.log.With("conn", id, "remote", conn.RemoteAddr().String())
	log.Info("new client connected")

	s.metrics.connOpened()
	h := &connHandler{
		conn:       conn,
		timeout:    s.opts.readTimeout,
		bufferSize: s.opts.bufferSize,
		log:        log,
		metrics:    s.metrics,
		release:    s.releaseSlot,
	}
	go h.serve()
}

// Stop asks Run to return. It reports true if the server was running and is
// now stopping, and false if it was already stopped or never started, which
// is not an error.
func (s *Server) Stop() bool {
	if s.running.stop() {
		s.log.Info("shutdown signal sent")
		return true
	}
	s.log.Warn("server was already stopped or not running")
	return false
}

// Close releases the listening socket. Connections already accepted are not
// affected. Close is safe to call more than once.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.tcp.Close()
}
