package server

import "sync/atomic"

// runFlag is the only state the accept loop shares with Stop callers.
// false means stopped or not yet started; true means accepting.
type runFlag struct {
	v atomic.Bool
}

func (f *runFlag) start() {
	f.v.Store(true)
}

// stop flips true to false and reports whether it did.
func (f *runFlag) stop() bool {
	return f.v.CompareAndSwap(true, false)
}

func (f *runFlag) running() bool {
	return f.v.Load()
}
