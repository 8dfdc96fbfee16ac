// Package activation correlates activation token requests with the
// compositor's asynchronous replies.
package activation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/timer"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// Callback receives the token for a request. The token is empty when the
// compositor has no activation support or the request timed out.
type Callback func(window platform.WindowID, token string, data any)

// TokenRequester issues activation token requests.
type TokenRequester interface {
	RequestActivationToken(surface platform.SurfaceID, requestID uint64, serial uint32, appID string) error
}

// Request is one outstanding token request.
type Request struct {
	WindowID  platform.WindowID
	Callback  Callback
	Data      any
	RequestID uint64
	Token     string
	Created   time.Time

	timer timer.ID
}

type slot struct {
	gen  uint32
	used bool
	req  Request
}

// Table holds outstanding requests in generation-checked slots. A request id
// encodes its slot and generation, so a reply for a removed request can
// never reach a newer request reusing the slot.
type Table struct {
	comp      TokenRequester
	supported bool
	timers    *timer.Table
	timeout   time.Duration
	logger    *slog.Logger

	slots []slot
	free  []int
}

// NewTable creates a table. When supported is false every request completes
// immediately with an empty token.
func NewTable(comp TokenRequester, supported bool, timers *timer.Table, timeout time.Duration, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		comp:      comp,
		supported: supported,
		timers:    timers,
		timeout:   timeout,
		logger:    logger,
	}
}

func makeRequestID(index int, gen uint32) uint64 {
	return uint64(gen)<<32 | uint64(index)
}

func splitRequestID(id uint64) (int, uint32) {
	return int(id & 0xffffffff), uint32(id >> 32)
}

// Request asks the compositor for an activation token on behalf of window.
// It returns the request id, or zero when the request completed immediately.
func (t *Table) Request(window platform.WindowID, surface platform.SurfaceID, serial uint32, appID string, cb Callback, data any) (uint64, error) {
	if !t.supported {
		t.logger.Debug("activation unsupported, completing with empty token", "window", window)
		if cb != nil {
			cb(window, "", data)
		}
		return 0, nil
	}

	index := t.alloc()
	s := &t.slots[index]
	s.gen++
	s.used = true
	id := makeRequestID(index, s.gen)
	s.req = Request{
		WindowID:  window,
		Callback:  cb,
		Data:      data,
		RequestID: id,
		Created:   t.timers.Now(),
	}

	if err := t.comp.RequestActivationToken(surface, id, serial, appID); err != nil {
		t.release(index)
		return 0, wlerr.Compositor("request activation token", fmt.Errorf("window %d: %w", window, err))
	}
	if _, live := t.lookup(id); !live {
		// Answered synchronously.
		return id, nil
	}
	if t.timeout > 0 {
		s.req.timer = t.timers.Add("activation-timeout", t.timeout, 0, func() {
			t.logger.Warn("activation token request timed out", "window", window, "request_id", id)
			t.Done(id, "")
		})
	}
	return id, nil
}

func (t *Table) alloc() int {
	if n := len(t.free); n > 0 {
		index := t.free[n-1]
		t.free = t.free[:n-1]
		return index
	}
	t.slots = append(t.slots, slot{})
	return len(t.slots) - 1
}

func (t *Table) lookup(id uint64) (int, bool) {
	index, gen := splitRequestID(id)
	if index < 0 || index >= len(t.slots) {
		return 0, false
	}
	s := t.slots[index]
	if !s.used || s.gen != gen {
		return 0, false
	}
	return index, true
}

func (t *Table) release(index int) Request {
	s := &t.slots[index]
	req := s.req
	if req.timer != 0 {
		t.timers.Remove(req.timer)
	}
	s.used = false
	s.req = Request{}
	t.free = append(t.free, index)
	return req
}

// Done delivers the compositor's token. It invokes and removes the request
// and reports false for unknown or stale request ids.
func (t *Table) Done(requestID uint64, token string) bool {
	index, ok := t.lookup(requestID)
	if !ok {
		t.logger.Debug("activation token for unknown request", "request_id", requestID)
		return false
	}
	req := t.release(index)
	req.Token = token
	if req.Callback != nil {
		req.Callback(req.WindowID, token, req.Data)
	}
	return true
}

// RemoveWindow drops every request of window without invoking callbacks.
func (t *Table) RemoveWindow(window platform.WindowID) int {
	removed := 0
	for i := range t.slots {
		if t.slots[i].used && t.slots[i].req.WindowID == window {
			t.release(i)
			removed++
		}
	}
	return removed
}

// Len returns the number of outstanding requests.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.slots {
		if s.used {
			n++
		}
	}
	return n
}

// Pending returns the outstanding requests in slot order.
func (t *Table) Pending() []Request {
	var out []Request
	for _, s := range t.slots {
		if s.used {
			out = append(out, s.req)
		}
	}
	return out
}

// Supported reports whether the compositor offers activation.
func (t *Table) Supported() bool {
	return t.supported
}
