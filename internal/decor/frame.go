package decor

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
)

// Window state bits reported by the frame library.
const (
	FrameStateActive      uint32 = 1
	FrameStateMaximized   uint32 = 2
	FrameStateFullscreen  uint32 = 4
	FrameStateTiledLeft   uint32 = 8
	FrameStateTiledRight  uint32 = 16
	FrameStateTiledTop    uint32 = 32
	FrameStateTiledBottom uint32 = 64
)

var frameStates = []struct {
	bit   uint32
	state toplevel.State
}{
	{FrameStateActive, toplevel.StateActivated},
	{FrameStateMaximized, toplevel.StateMaximized},
	{FrameStateFullscreen, toplevel.StateFullscreen},
	{FrameStateTiledLeft, toplevel.StateTiledLeft},
	{FrameStateTiledRight, toplevel.StateTiledRight},
	{FrameStateTiledTop, toplevel.StateTiledTop},
	{FrameStateTiledBottom, toplevel.StateTiledBottom},
}

// TranslateFrameState maps frame library state bits onto toplevel state.
// Unknown bits are ignored.
func TranslateFrameState(bits uint32) toplevel.State {
	var s toplevel.State
	for _, f := range frameStates {
		if bits&f.bit != 0 {
			s |= f.state
		}
	}
	return s
}

// FrameStateBits is the inverse of TranslateFrameState for the states the
// library knows.
func FrameStateBits(s toplevel.State) uint32 {
	var bits uint32
	for _, f := range frameStates {
		if s&f.state != 0 {
			bits |= f.bit
		}
	}
	return bits
}

// FrameBridge owns the frame library handle of one window. Each frame gets
// a new generation so events queued for a torn-down frame can be told apart.
type FrameBridge struct {
	lib    platform.FrameLibrary
	logger *slog.Logger

	frame platform.Frame
	gen   uint64
}

// NewFrameBridge creates a bridge over lib.
func NewFrameBridge(lib platform.FrameLibrary, logger *slog.Logger) *FrameBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameBridge{lib: lib, logger: logger}
}

// Create decorates surface and returns the frame generation.
func (b *FrameBridge) Create(surface platform.SurfaceID, title, appID string) (uint64, error) {
	if b.frame != nil {
		b.Destroy()
	}
	f, err := b.lib.Decorate(surface, title, appID)
	if err != nil {
		return 0, fmt.Errorf("decorate surface %d: %w", surface, err)
	}
	b.gen++
	b.frame = f
	f.Map()
	return b.gen, nil
}

// Destroy tears the frame down. Later events carrying its generation are
// rejected by Accept.
func (b *FrameBridge) Destroy() {
	if b.frame == nil {
		return
	}
	b.frame.Destroy()
	b.frame = nil
	b.gen++
}

// Active reports whether a frame exists.
func (b *FrameBridge) Active() bool {
	return b.frame != nil
}

// Generation returns the generation of the live frame.
func (b *FrameBridge) Generation() uint64 {
	return b.gen
}

// Accept reports whether an event for generation gen belongs to the live
// frame.
func (b *FrameBridge) Accept(gen uint64) bool {
	if b.frame == nil || gen != b.gen {
		b.logger.Debug("discarding event for stale frame", "generation", gen, "live", b.gen)
		return false
	}
	return true
}

// Commit forwards committed geometry and the configure serial to the
// library, which acknowledges on the window's behalf.
func (b *FrameBridge) Commit(width, height int, serial uint32) {
	if b.frame != nil {
		b.frame.Commit(width, height, serial)
	}
}

// Frame returns the live frame, or nil.
func (b *FrameBridge) Frame() platform.Frame {
	return b.frame
}
