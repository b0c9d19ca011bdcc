package server

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by Run when the listening socket has been
// closed, either before Run was called or while it was polling.
var ErrServerClosed = errors.New("server: listener closed")

// BindError reports a failure to bind the listening socket in New.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("server: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
