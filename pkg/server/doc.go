// Package server implements the echod TCP server.
//
// # Lifecycle
//
// New binds the listening socket. Run flips an atomic run flag on and polls
// for connections until Stop flips it off; each poll waits at most the poll
// interval, so shutdown latency is bounded by it. Stop never waits for or
// cancels connections already being served. Close releases the socket.
//
//	srv, err := server.New("localhost:8080", server.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//
//	go func() {
//	    <-ctx.Done()
//	    srv.Stop()
//	}()
//	return srv.Run()
//
// # Connections
//
// Every accepted connection gets its own goroutine and is unbounded in number
// unless WithMaxConnections is set. A handler reads up to the buffer size,
// decodes one ClientMessage, and writes one ServerMessage back. Bytes that do
// not decode are logged and dropped without reply; the connection stays open.
// A read timeout, write failure or other I/O error closes the connection.
package server
