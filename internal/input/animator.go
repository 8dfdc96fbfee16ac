// Package input drives the pointer cursor animation and key repeat timers.
package input

import (
	"log/slog"
	"time"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/timer"
)

// defaultFrameDelay is used for animated frames that carry no delay.
const defaultFrameDelay = 100 * time.Millisecond

// SurfaceCommitter is the part of the compositor needed to show cursor frames.
type SurfaceCommitter interface {
	Attach(surface platform.SurfaceID, buffer platform.BufferID)
	Damage(surface platform.SurfaceID, r platform.Rect)
	Commit(surface platform.SurfaceID)
}

// CursorAnimator shows the frames of the active cursor on the cursor
// surface. At most one animation timer is live.
type CursorAnimator struct {
	comp   SurfaceCommitter
	timers *timer.Table
	logger *slog.Logger

	cursor  *cursor.Cursor
	surface platform.SurfaceID
	current int
	timer   timer.ID
	running bool
}

// NewCursorAnimator creates an idle animator.
func NewCursorAnimator(comp SurfaceCommitter, timers *timer.Table, logger *slog.Logger) *CursorAnimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CursorAnimator{comp: comp, timers: timers, logger: logger}
}

// Start shows the first frame of c on surface and animates it when it has
// more than one frame. Any previous animation is cancelled first.
func (a *CursorAnimator) Start(c *cursor.Cursor, surface platform.SurfaceID) {
	a.Stop()
	if c == nil || len(c.Images) == 0 {
		return
	}
	a.cursor = c
	a.surface = surface
	a.current = 0
	a.show()
	if c.Animated() {
		a.running = true
		a.schedule()
	}
}

// Tick advances to the next frame and shows it.
func (a *CursorAnimator) Tick() {
	if a.cursor == nil || len(a.cursor.Images) == 0 {
		return
	}
	a.current = (a.current + 1) % len(a.cursor.Images)
	a.show()
	if a.running {
		a.schedule()
	}
}

// Stop cancels the animation. It is safe to call when idle.
func (a *CursorAnimator) Stop() {
	if a.running {
		a.timers.Remove(a.timer)
		a.running = false
	}
	a.cursor = nil
	a.current = 0
}

// Running reports whether an animation timer is live.
func (a *CursorAnimator) Running() bool {
	return a.running
}

// Current returns the index of the frame on screen.
func (a *CursorAnimator) Current() int {
	return a.current
}

// Cursor returns the cursor being shown, or nil.
func (a *CursorAnimator) Cursor() *cursor.Cursor {
	return a.cursor
}

func (a *CursorAnimator) show() {
	img := a.cursor.Frame(a.current)
	a.comp.Attach(a.surface, img.Buffer)
	a.comp.Damage(a.surface, platform.Rect{Width: img.Width, Height: img.Height})
	a.comp.Commit(a.surface)
}

func (a *CursorAnimator) schedule() {
	a.timers.Remove(a.timer)
	delay := a.cursor.Frame(a.current).Delay
	if delay <= 0 {
		delay = defaultFrameDelay
	}
	a.timer = a.timers.Add("cursor-animation", delay, 0, a.Tick)
	a.logger.Debug("cursor frame scheduled", "shape", a.cursor.Shape.String(), "frame", a.current, "delay", delay)
}
