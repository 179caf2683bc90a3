// Package eventloop runs every user-visible state transition on a single
// goroutine, the way a UI main thread would.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is submitted to a loop that is no longer running
var ErrStopped = errors.New("event loop stopped")

// Poster accepts work for the loop goroutine
type Poster interface {
	Post(fn func()) bool
}

// Loop is a FIFO queue of closures drained by one goroutine
type Loop struct {
	queue   chan func()
	stopped chan struct{}
	once    sync.Once
}

// New creates a loop whose queue holds up to size pending closures
func New(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue:   make(chan func(), size),
		stopped: make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. Closures run in submission order.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stopped) })
	slog.Debug("Event loop started")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Event loop stopped")
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic on event loop", "panic", r)
		}
	}()
	fn()
}

// Post enqueues fn without waiting for it to run. It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// fn may have been queued behind the shutdown
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Inline runs posted closures immediately on the caller's goroutine
type Inline struct{}

// Post runs fn right away
func (Inline) Post(fn func()) bool {
	fn()
	return true
}
