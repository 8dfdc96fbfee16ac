// Package dispatch runs a window session on a single goroutine. Compositor
// events, timer expiries and inspection calls are serialized through one
// loop, so the session itself needs no locking. Events and calls share one
// queue and run in the order they were submitted.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/1broseidon/wlframe/internal/window"
)

// ErrStopped is returned by Post and Call once the loop has exited.
var ErrStopped = errors.New("dispatch loop stopped")

// DefaultQueueSize is the queue length used when none is configured.
const DefaultQueueSize = 256

// Config holds configuration for a Loop.
type Config struct {
	QueueSize int
	Logger    *slog.Logger
}

// item is a queued event, or a call when fn is set.
type item struct {
	ev   window.Event
	fn   func(*window.Session)
	done chan struct{}
}

// Loop owns a session and the timer table it schedules on.
type Loop struct {
	session *window.Session
	logger  *slog.Logger

	queue chan item
	done  chan struct{}

	err error
}

// New creates a loop for session. Run must be called to start it.
func New(session *window.Session, cfg Config) *Loop {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		session: session,
		logger:  logger,
		queue:   make(chan item, size),
		done:    make(chan struct{}),
	}
}

// Post queues ev for the loop goroutine. It may be called from any
// goroutine and blocks while the queue is full.
func (l *Loop) Post(ctx context.Context, ev window.Event) error {
	return l.enqueue(ctx, item{ev: ev})
}

// Call runs fn on the loop goroutine after everything queued before it and
// waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func(*window.Session)) error {
	c := item{fn: fn, done: make(chan struct{})}
	if err := l.enqueue(ctx, c); err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	case <-l.done:
		// The loop may have run fn just before exiting.
		select {
		case <-c.done:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) enqueue(ctx context.Context, it item) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- it:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Err returns the error Run exited with, once Done is closed.
func (l *Loop) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Run processes events, calls and timers until ctx is cancelled or the
// session fails. It returns nil on cancellation and the session error on a
// compositor failure.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	timers := l.session.Timers()
	wake := time.NewTimer(time.Hour)
	defer wake.Stop()

	l.logger.Info("dispatch loop started")
	for {
		l.rearm(wake)

		select {
		case <-ctx.Done():
			l.drain()
			l.logger.Info("dispatch loop stopped")
			return nil
		case it := <-l.queue:
			if it.fn != nil {
				l.run(it)
				continue
			}
			if err := l.handle(it.ev); err != nil {
				l.err = err
				l.logger.Error("dispatch loop stopped on compositor error", "error", err)
				return err
			}
		case <-wake.C:
			l.fire(timers.Now())
		}
	}
}

// rearm points wake at the earliest timer, or far in the future when no
// timer is scheduled.
func (l *Loop) rearm(wake *time.Timer) {
	d := time.Hour
	timers := l.session.Timers()
	if next, ok := timers.Next(); ok {
		d = next.Sub(timers.Now())
		if d < 0 {
			d = 0
		}
	}
	if !wake.Stop() {
		select {
		case <-wake.C:
		default:
		}
	}
	wake.Reset(d)
}

// handle dispatches one event. Panics are recovered and reported; the loop
// keeps running.
func (l *Loop) handle(ev window.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.session.Recovered(ev.Kind(), r)
			err = nil
		}
	}()
	return l.session.Dispatch(ev)
}

func (l *Loop) run(c item) {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			l.session.Recovered("call", r)
		}
	}()
	c.fn(l.session)
}

func (l *Loop) fire(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.session.Recovered("timer", r)
		}
	}()
	if n := l.session.Timers().Dispatch(now); n > 0 {
		l.logger.Debug("timers fired", "count", n)
	}
}

// drain discards queued work on shutdown. Pending calls see ErrStopped.
func (l *Loop) drain() {
	n := 0
	for {
		select {
		case <-l.queue:
			n++
		default:
			if n > 0 {
				l.logger.Debug("discarded queued events", "count", n)
			}
			return
		}
	}
}
