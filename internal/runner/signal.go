package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Signal is a one-way stop flag. The scheduler polls it between batches;
// triggering it never aborts a request that is already in flight.
type Signal struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSignal(parent context.Context) *Signal {
	ctx, cancel := context.WithCancel(parent)
	return &Signal{ctx: ctx, cancel: cancel}
}

// Trigger sets the flag. Safe to call more than once and from any goroutine.
func (s *Signal) Trigger() {
	s.cancel()
}

func (s *Signal) IsSet() bool {
	return s.ctx.Err() != nil
}

// Context is done once the signal is set.
func (s *Signal) Context() context.Context {
	return s.ctx
}

func (s *Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// NotifyInterrupt triggers s on SIGINT or SIGTERM. onInterrupt, if not nil,
// runs once on the first signal. The returned func stops listening.
func (s *Signal) NotifyInterrupt(onInterrupt func()) (stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	quit := make(chan struct{})
	go func() {
		select {
		case <-c:
			if onInterrupt != nil {
				onInterrupt()
			}
			s.Trigger()
		case <-quit:
		}
	}()

	return func() {
		signal.Stop(c)
		close(quit)
	}
}
