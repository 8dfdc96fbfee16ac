package window

import (
	"fmt"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// Dispatch handles one inbound event. It returns an error only when the
// session can no longer continue; other failures go to Listener.OnError.
func (s *Session) Dispatch(ev Event) error {
	if s.err != nil {
		return s.err
	}
	switch e := ev.(type) {
	case ToplevelConfigure:
		if w := s.lookup(e.Window, e.Kind()); w != nil && !w.usingFrame() {
			w.machine.OnConfigure(e.Width, e.Height, e.State)
		}
	case SurfaceConfigure:
		if w := s.lookup(e.Window, e.Kind()); w != nil && !w.usingFrame() {
			w.machine.OnSurfaceConfigure(e.Serial)
			w.autoCommit()
		}
	case DecorationConfigure:
		s.onDecorationConfigure(e)
	case ToplevelClose:
		if w := s.lookup(e.Window, e.Kind()); w != nil {
			s.listener.OnClose(w)
		}
	case FrameDone:
		if w, onEdge := s.windowForSurface(e.Surface); w != nil && !onEdge {
			w.onFrame()
		}
	case BufferRelease:
		s.onBufferRelease(e)
	case FrameConfigure:
		s.onFrameConfigure(e)
	case FrameCommit:
		s.onFrameCommit(e)
	case FrameClose:
		s.onFrameClose(e)
	case OfferCreated:
		s.onOfferCreated(e)
	case OfferMime:
		s.onOfferMime(e)
	case OfferSourceActions:
		if err := s.offers.SetSourceActions(e.Offer, e.Actions); err != nil {
			s.report(nil, err)
		}
	case OfferAction:
		if err := s.offers.ConfirmAction(e.Offer, e.Action); err != nil {
			s.report(nil, err)
		}
	case Selection:
		s.onSelection(e)
	case DragEnter:
		s.onDragEnter(e)
	case DragMotion:
		s.offers.Motion(e.X, e.Y)
	case DragLeave:
		s.offers.Leave()
	case Drop:
		s.onDrop()
	case SourceSend:
		s.onSourceSend(e)
	case SourceCancelled:
		s.sources.Cancelled(e.Source)
	case ActivationDone:
		s.onActivationDone(e)
	case OutputEnter:
		s.onOutputEnter(e)
	case OutputLeave:
		s.onOutputLeave(e)
	case OutputScale:
		s.onOutputScale(e)
	case PointerEnter:
		s.onPointerEnter(e)
	case PointerLeave:
		s.onPointerLeave(e)
	case PointerMotion:
		s.onPointerMotion(e)
	case PointerButton:
		s.onPointerButton(e)
	case KeyboardEnter:
		s.onKeyboardEnter(e)
	case KeyboardLeave:
		s.onKeyboardLeave(e)
	case Key:
		s.onKey(e)
	case RepeatInfo:
		s.repeater.SetRepeatInfo(e.Rate, e.Delay)
	case CompositorError:
		return s.fail(wlerr.Compositor("dispatch", e.Err))
	default:
		s.report(nil, fmt.Errorf("unhandled event %T", ev))
	}
	return nil
}

func (s *Session) lookup(id platform.WindowID, kind string) *Window {
	w, ok := s.windows[id]
	if !ok {
		s.logger.Debug("event for unknown window", "event", kind, "window", id)
		return nil
	}
	return w
}

// onBufferRelease routes a release to the pair owning the buffer and lets
// its decorations redraw an edge whose drawing was refused.
func (s *Session) onBufferRelease(ev BufferRelease) {
	pair := s.tracker.Release(ev.Buffer)
	if pair == nil {
		return
	}
	for _, w := range s.windows {
		if w.csd == nil {
			continue
		}
		redrawn, err := w.csd.OnRelease(pair)
		if err != nil {
			s.report(w, err)
			continue
		}
		if redrawn {
			w.presentDecorations()
			return
		}
	}
}
