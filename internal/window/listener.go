package window

import (
	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/toplevel"
)

// Listener receives the upward notifications of a session. Methods run on
// the dispatch goroutine and must not block.
type Listener interface {
	OnResize(w *Window, s toplevel.Snapshot)
	OnStateChange(w *Window, s toplevel.Snapshot)
	OnClipboardDataAvailable(o offer.Offer)
	// OnDragEnter returns the drop actions the window accepts for the offer;
	// ActionNone rejects the drag.
	OnDragEnter(w *Window, o offer.Offer, x, y float64) offer.Action
	OnDrop(w *Window, o offer.Offer, x, y float64)
	OnCursorShapeChanged(w *Window, shape cursor.Shape)
	OnClose(w *Window)
	OnKey(w *Window, key uint32, pressed, repeat bool)
	// OnError reports a non-fatal error. w is nil for session-wide errors.
	OnError(w *Window, err error)
}

// NopListener ignores every notification and accepts drags as copies.
type NopListener struct{}

var _ Listener = NopListener{}

func (NopListener) OnResize(*Window, toplevel.Snapshot)           {}
func (NopListener) OnStateChange(*Window, toplevel.Snapshot)      {}
func (NopListener) OnClipboardDataAvailable(offer.Offer)          {}
func (NopListener) OnDrop(*Window, offer.Offer, float64, float64) {}
func (NopListener) OnCursorShapeChanged(*Window, cursor.Shape)    {}
func (NopListener) OnClose(*Window)                               {}
func (NopListener) OnKey(*Window, uint32, bool, bool)             {}
func (NopListener) OnError(*Window, error)                        {}
func (NopListener) OnDragEnter(*Window, offer.Offer, float64, float64) offer.Action {
	return offer.ActionCopy
}
