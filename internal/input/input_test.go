package input

import (
	"testing"
	"time"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/timer"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func newTimers() (*timer.Table, *clock) {
	c := &clock{t: time.Unix(0, 0)}
	return timer.NewTable(c.now), c
}

type attachRecorder struct {
	attached []platform.BufferID
	commits  int
}

func (r *attachRecorder) Attach(_ platform.SurfaceID, b platform.BufferID) {
	r.attached = append(r.attached, b)
}
func (r *attachRecorder) Damage(platform.SurfaceID, platform.Rect) {}
func (r *attachRecorder) Commit(platform.SurfaceID)                { r.commits++ }

func animatedCursor(frames int) *cursor.Cursor {
	c := &cursor.Cursor{Shape: cursor.ShapeWait, Size: 24}
	for i := 0; i < frames; i++ {
		c.Images = append(c.Images, cursor.Image{
			Width: 24, Height: 24, Delay: 50 * time.Millisecond, Buffer: platform.BufferID(100 + i),
		})
	}
	return c
}

func TestCursorAnimator_TickWrapsAround(t *testing.T) {
	timers, clk := newTimers()
	rec := &attachRecorder{}
	a := NewCursorAnimator(rec, timers, nil)
	a.Start(animatedCursor(3), 7)

	for i := 0; i < 4; i++ {
		timers.Dispatch(clk.advance(50 * time.Millisecond))
	}
	want := []platform.BufferID{100, 101, 102, 100, 101}
	if len(rec.attached) != len(want) {
		t.Fatalf("attached %v, want %v", rec.attached, want)
	}
	for i := range want {
		if rec.attached[i] != want[i] {
			t.Fatalf("attached %v, want %v", rec.attached, want)
		}
	}
	if a.Current() != 1 {
		t.Fatalf("expected frame 1, got %d", a.Current())
	}
	if timers.Len() != 1 {
		t.Fatalf("expected one live timer, got %d", timers.Len())
	}
}

func TestCursorAnimator_StopIsIdempotent(t *testing.T) {
	timers, clk := newTimers()
	rec := &attachRecorder{}
	a := NewCursorAnimator(rec, timers, nil)
	a.Start(animatedCursor(2), 1)
	a.Stop()
	a.Stop()
	if a.Running() || timers.Len() != 0 {
		t.Fatalf("expected no live timer after stop")
	}
	timers.Dispatch(clk.advance(time.Second))
	if len(rec.attached) != 1 {
		t.Fatalf("expected no frames after stop, got %v", rec.attached)
	}
}

func TestCursorAnimator_StaticCursorHasNoTimer(t *testing.T) {
	timers, _ := newTimers()
	rec := &attachRecorder{}
	a := NewCursorAnimator(rec, timers, nil)
	a.Start(animatedCursor(1), 1)
	if a.Running() || timers.Len() != 0 {
		t.Fatalf("static cursor must not start a timer")
	}
	if len(rec.attached) != 1 || rec.commits != 1 {
		t.Fatalf("expected the single frame shown once")
	}
}

func TestCursorAnimator_RestartReplacesTimer(t *testing.T) {
	timers, _ := newTimers()
	a := NewCursorAnimator(&attachRecorder{}, timers, nil)
	a.Start(animatedCursor(2), 1)
	a.Start(animatedCursor(4), 1)
	if timers.Len() != 1 {
		t.Fatalf("expected one live timer, got %d", timers.Len())
	}
}

func TestKeyRepeater_SecondKeyCancelsFirst(t *testing.T) {
	timers, clk := newTimers()
	var got []uint32
	r := NewKeyRepeater(timers, 25, 600*time.Millisecond, func(key uint32, _ platform.WindowID) {
		got = append(got, key)
	})

	r.KeyDown(30, 1)
	firstTimer := r.timer
	r.KeyDown(48, 1)
	if timers.Active(firstTimer) {
		t.Fatalf("first key timer still active")
	}
	if r.ActiveTimers() != 1 || timers.Len() != 1 {
		t.Fatalf("expected exactly one active timer, got %d", timers.Len())
	}

	timers.Dispatch(clk.advance(600 * time.Millisecond))
	timers.Dispatch(clk.advance(40 * time.Millisecond))
	if len(got) != 2 || got[0] != 48 || got[1] != 48 {
		t.Fatalf("expected two repeats of key 48, got %v", got)
	}
}

func TestKeyRepeater_Cancellation(t *testing.T) {
	tests := []struct {
		name       string
		act        func(r *KeyRepeater)
		wantActive int
	}{
		{"key up of repeating key", func(r *KeyRepeater) { r.KeyUp(30) }, 0},
		{"key up of other key", func(r *KeyRepeater) { r.KeyUp(31) }, 1},
		{"focus moved", func(r *KeyRepeater) { r.FocusChanged(2) }, 0},
		{"focus unchanged", func(r *KeyRepeater) { r.FocusChanged(1) }, 1},
		{"rate zero", func(r *KeyRepeater) { r.SetRepeatInfo(0, time.Second) }, 0},
		{"stop twice", func(r *KeyRepeater) { r.Stop(); r.Stop() }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timers, _ := newTimers()
			r := NewKeyRepeater(timers, 25, 600*time.Millisecond, nil)
			r.KeyDown(30, 1)
			tt.act(r)
			if r.ActiveTimers() != tt.wantActive {
				t.Fatalf("active timers = %d, want %d", r.ActiveTimers(), tt.wantActive)
			}
			if timers.Len() != tt.wantActive {
				t.Fatalf("table holds %d timers, want %d", timers.Len(), tt.wantActive)
			}
		})
	}
}

func TestKeyRepeater_DisabledRateStartsNothing(t *testing.T) {
	timers, _ := newTimers()
	r := NewKeyRepeater(timers, 0, time.Second, nil)
	r.KeyDown(30, 1)
	if r.ActiveTimers() != 0 {
		t.Fatalf("repeat disabled, expected no timer")
	}
}
