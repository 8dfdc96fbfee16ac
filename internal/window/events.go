package window

import (
	"io"
	"time"

	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
)

// Event is one inbound compositor event. Events are handled by
// Session.Dispatch on the dispatch goroutine.
type Event interface {
	// Kind names the event for logs and traces.
	Kind() string
}

// ToplevelConfigure proposes a size and state for a window. A zero dimension
// leaves the choice to the client.
type ToplevelConfigure struct {
	Window platform.WindowID
	Width  int
	Height int
	State  toplevel.State
}

// SurfaceConfigure closes a configure sequence with the serial to ack.
type SurfaceConfigure struct {
	Window platform.WindowID
	Serial uint32
}

// DecorationConfigure carries the decoration mode the compositor chose.
type DecorationConfigure struct {
	Window platform.WindowID
	Mode   toplevel.DecorationMode
}

// ToplevelClose is the compositor asking the window to close.
type ToplevelClose struct {
	Window platform.WindowID
}

// FrameDone is a fired frame callback.
type FrameDone struct {
	Surface platform.SurfaceID
}

// BufferRelease means the compositor no longer reads a buffer.
type BufferRelease struct {
	Buffer platform.BufferID
}

// FrameConfigure is a configure delivered by the frame library. State holds
// the library's window-state bits.
type FrameConfigure struct {
	Window     platform.WindowID
	Generation uint64
	Width      int
	Height     int
	State      uint32
	Serial     uint32
}

// FrameCommit is the frame library asking for a surface commit.
type FrameCommit struct {
	Window     platform.WindowID
	Generation uint64
}

// FrameClose is the frame library's close request.
type FrameClose struct {
	Window     platform.WindowID
	Generation uint64
}

// OfferCreated introduces a data offer. Mime types follow.
type OfferCreated struct {
	Offer   platform.OfferID
	Primary bool
}

// OfferMime advertises one mime type of an offer.
type OfferMime struct {
	Offer platform.OfferID
	Mime  string
}

// OfferSourceActions lists the drag actions the source supports.
type OfferSourceActions struct {
	Offer   platform.OfferID
	Actions offer.Action
}

// OfferAction is the drag action the compositor selected.
type OfferAction struct {
	Offer  platform.OfferID
	Action offer.Action
}

// Selection sets the clipboard or primary selection offer. A zero offer
// clears it.
type Selection struct {
	Offer   platform.OfferID
	Primary bool
}

// DragEnter starts a drag over a surface.
type DragEnter struct {
	Offer   platform.OfferID
	Serial  uint32
	Surface platform.SurfaceID
	X, Y    float64
}

// DragMotion moves the current drag.
type DragMotion struct {
	X, Y float64
}

// DragLeave ends the current drag without a drop.
type DragLeave struct{}

// Drop drops the current drag.
type Drop struct{}

// SourceSend asks a local data source to write mime into Writer. The writer
// is closed after the write.
type SourceSend struct {
	Source platform.SourceID
	Mime   string
	Writer io.WriteCloser
}

// SourceCancelled means a local data source was replaced.
type SourceCancelled struct {
	Source platform.SourceID
}

// ActivationDone delivers an activation token.
type ActivationDone struct {
	RequestID uint64
	Token     string
}

// OutputEnter means a surface became visible on an output.
type OutputEnter struct {
	Surface platform.SurfaceID
	Output  platform.OutputID
}

// OutputLeave means a surface left an output.
type OutputLeave struct {
	Surface platform.SurfaceID
	Output  platform.OutputID
}

// OutputScale announces the scale factor of an output.
type OutputScale struct {
	Output platform.OutputID
	Scale  int
}

// PointerEnter moves pointer focus onto a surface.
type PointerEnter struct {
	Surface platform.SurfaceID
	Serial  uint32
	X, Y    float64
}

// PointerLeave removes pointer focus from a surface.
type PointerLeave struct {
	Surface platform.SurfaceID
	Serial  uint32
}

// PointerMotion moves the pointer in surface-local coordinates.
type PointerMotion struct {
	X, Y float64
}

// PointerButton is a button press or release.
type PointerButton struct {
	Serial  uint32
	Button  uint32
	Pressed bool
}

// KeyboardEnter moves keyboard focus onto a surface.
type KeyboardEnter struct {
	Surface platform.SurfaceID
	Serial  uint32
}

// KeyboardLeave removes keyboard focus from a surface.
type KeyboardLeave struct {
	Surface platform.SurfaceID
}

// Key is a key press or release.
type Key struct {
	Serial  uint32
	Key     uint32
	Pressed bool
}

// RepeatInfo carries the compositor's key repeat settings.
type RepeatInfo struct {
	Rate  int
	Delay time.Duration
}

// CompositorError is a fatal error on the compositor connection.
type CompositorError struct {
	Err error
}

func (ToplevelConfigure) Kind() string   { return "toplevel_configure" }
func (SurfaceConfigure) Kind() string    { return "surface_configure" }
func (DecorationConfigure) Kind() string { return "decoration_configure" }
func (ToplevelClose) Kind() string       { return "toplevel_close" }
func (FrameDone) Kind() string           { return "frame_done" }
func (BufferRelease) Kind() string       { return "buffer_release" }
func (FrameConfigure) Kind() string      { return "frame_configure" }
func (FrameCommit) Kind() string         { return "frame_commit" }
func (FrameClose) Kind() string          { return "frame_close" }
func (OfferCreated) Kind() string        { return "offer_created" }
func (OfferMime) Kind() string           { return "offer_mime" }
func (OfferSourceActions) Kind() string  { return "offer_source_actions" }
func (OfferAction) Kind() string         { return "offer_action" }
func (Selection) Kind() string           { return "selection" }
func (DragEnter) Kind() string           { return "drag_enter" }
func (DragMotion) Kind() string          { return "drag_motion" }
func (DragLeave) Kind() string           { return "drag_leave" }
func (Drop) Kind() string                { return "drop" }
func (SourceSend) Kind() string          { return "source_send" }
func (SourceCancelled) Kind() string     { return "source_cancelled" }
func (ActivationDone) Kind() string      { return "activation_done" }
func (OutputEnter) Kind() string         { return "output_enter" }
func (OutputLeave) Kind() string         { return "output_leave" }
func (OutputScale) Kind() string         { return "output_scale" }
func (PointerEnter) Kind() string        { return "pointer_enter" }
func (PointerLeave) Kind() string        { return "pointer_leave" }
func (PointerMotion) Kind() string       { return "pointer_motion" }
func (PointerButton) Kind() string       { return "pointer_button" }
func (KeyboardEnter) Kind() string       { return "keyboard_enter" }
func (KeyboardLeave) Kind() string       { return "keyboard_leave" }
func (Key) Kind() string                 { return "key" }
func (RepeatInfo) Kind() string          { return "repeat_info" }
func (CompositorError) Kind() string     { return "compositor_error" }
