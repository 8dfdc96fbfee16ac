package input

import (
	"time"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/timer"
)

// RepeatFunc receives one synthesized key repeat.
type RepeatFunc func(key uint32, focus platform.WindowID)

// KeyRepeater repeats the last pressed key while it is held. At most one
// repeat timer is live.
type KeyRepeater struct {
	timers *timer.Table
	emit   RepeatFunc

	rate  int
	delay time.Duration

	key    uint32
	focus  platform.WindowID
	timer  timer.ID
	active bool
}

// NewKeyRepeater creates a repeater with rate repeats per second after delay.
func NewKeyRepeater(timers *timer.Table, rate int, delay time.Duration, emit RepeatFunc) *KeyRepeater {
	return &KeyRepeater{timers: timers, emit: emit, rate: rate, delay: delay}
}

// SetRepeatInfo applies the compositor's repeat settings. A rate of zero
// disables repeat and cancels a running one.
func (r *KeyRepeater) SetRepeatInfo(rate int, delay time.Duration) {
	r.rate = rate
	r.delay = delay
	if rate <= 0 {
		r.Stop()
	}
}

// RepeatInfo returns the current rate and delay.
func (r *KeyRepeater) RepeatInfo() (int, time.Duration) {
	return r.rate, r.delay
}

// KeyDown cancels any running repeat and starts repeating key for the window
// holding keyboard focus.
func (r *KeyRepeater) KeyDown(key uint32, focus platform.WindowID) {
	r.Stop()
	if r.rate <= 0 {
		return
	}
	r.key = key
	r.focus = focus
	interval := time.Second / time.Duration(r.rate)
	r.timer = r.timers.Add("key-repeat", r.delay, interval, func() {
		if r.emit != nil {
			r.emit(key, focus)
		}
	})
	r.active = true
}

// KeyUp stops the repeat when key is the repeating key.
func (r *KeyRepeater) KeyUp(key uint32) {
	if r.active && key == r.key {
		r.Stop()
	}
}

// FocusChanged stops the repeat when keyboard focus moved away from the
// window it was started for.
func (r *KeyRepeater) FocusChanged(focus platform.WindowID) {
	if r.active && focus != r.focus {
		r.Stop()
	}
}

// Stop cancels the repeat timer. It is idempotent.
func (r *KeyRepeater) Stop() {
	if !r.active {
		return
	}
	r.timers.Remove(r.timer)
	r.active = false
}

// Active returns the repeating key and focus.
func (r *KeyRepeater) Active() (uint32, platform.WindowID, bool) {
	return r.key, r.focus, r.active
}

// ActiveTimers returns the number of live repeat timers, zero or one.
func (r *KeyRepeater) ActiveTimers() int {
	if r.active && r.timers.Active(r.timer) {
		return 1
	}
	return 0
}
