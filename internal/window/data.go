package window

import (
	"fmt"
	"io"

	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// SetClipboard offers data on the clipboard, or on the primary selection
// when primary is set. data maps mime types to bytes.
func (s *Session) SetClipboard(primary bool, data map[string][]byte) (*offer.Source, error) {
	if s.err != nil {
		return nil, s.err
	}
	if primary && !s.comp.Capabilities().PrimarySelection {
		return nil, wlerr.Unsupported("set primary selection", fmt.Errorf("compositor has no primary selection"))
	}
	return s.sources.Set(primary, s.serial, data)
}

// Receive opens a reader for mime on the offer behind h.
func (s *Session) Receive(h offer.Handle, mime string) (io.ReadCloser, error) {
	rc, err := s.offers.Receive(h, mime)
	if err != nil {
		if wlerr.Is(err, wlerr.KindStale) {
			s.logger.Error("read from expired offer", "slot", h.Slot, "error", err, "stack", wlerr.StackTrace(err))
		}
		return nil, err
	}
	return rc, nil
}

// ReadOffer reads all of mime from the offer behind h.
func (s *Session) ReadOffer(h offer.Handle, mime string) ([]byte, error) {
	rc, err := s.Receive(h, mime)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read offer %q: %w", mime, err)
	}
	return b, nil
}

// ReleaseOffer finishes a drop or paste and expires its offer.
func (s *Session) ReleaseOffer(h offer.Handle) error {
	return s.offers.Release(h)
}

func (s *Session) onOfferCreated(ev OfferCreated) {
	if _, err := s.offers.Create(ev.Offer, ev.Primary); err != nil {
		s.report(nil, err)
	}
}

func (s *Session) onOfferMime(ev OfferMime) {
	if err := s.offers.AddMime(ev.Offer, ev.Mime); err != nil {
		s.report(nil, err)
	}
}

func (s *Session) onSelection(ev Selection) {
	h, ok, err := s.offers.Selection(ev.Offer, ev.Primary)
	if err != nil {
		s.report(nil, err)
		return
	}
	if !ok {
		return
	}
	o, err := s.offers.Get(h)
	if err != nil {
		s.report(nil, err)
		return
	}
	s.logger.Debug("selection offer available", "offer", o.ID, "primary", o.Primary, "self", o.SelfOffer, "mimes", len(o.Mimes))
	s.listener.OnClipboardDataAvailable(o)
}

func (s *Session) onDragEnter(ev DragEnter) {
	s.serial = ev.Serial
	h, err := s.offers.Enter(ev.Offer, ev.Serial, ev.Surface, ev.X, ev.Y)
	if err != nil {
		s.report(nil, err)
		return
	}
	o, err := s.offers.Get(h)
	if err != nil {
		s.report(nil, err)
		return
	}
	w, _ := s.windowForSurface(ev.Surface)
	if w == nil {
		if err := s.offers.Accept(h, ""); err != nil {
			s.report(nil, err)
		}
		return
	}

	target := s.listener.OnDragEnter(w, o, ev.X, ev.Y)
	mime, err := s.offers.DropMime(h)
	if target == offer.ActionNone || err != nil {
		if err := s.offers.Accept(h, ""); err != nil {
			s.report(w, err)
		}
		s.logger.Debug("drag rejected", "offer", o.ID, "window", w.ID)
		return
	}
	if err := s.offers.Accept(h, mime); err != nil {
		s.report(w, err)
		return
	}
	action, err := s.offers.ResolveAction(h, target)
	if err != nil {
		s.report(w, err)
		return
	}
	s.logger.Debug("drag accepted", "offer", o.ID, "window", w.ID, "mime", mime, "action", action.String())
}

func (s *Session) onDrop() {
	h, err := s.offers.Drop()
	if err != nil {
		s.report(nil, err)
		return
	}
	o, err := s.offers.Get(h)
	if err != nil {
		s.report(nil, err)
		return
	}
	w, _ := s.windowForSurface(o.Surface)
	if w == nil || o.AcceptedMime == "" {
		if err := s.offers.Release(h); err != nil {
			s.report(w, err)
		}
		return
	}
	s.listener.OnDrop(w, o, o.X, o.Y)
}

func (s *Session) onSourceSend(ev SourceSend) {
	err := s.sources.Send(ev.Source, ev.Mime, ev.Writer)
	if ev.Writer != nil {
		ev.Writer.Close()
	}
	if err != nil {
		s.report(nil, err)
	}
}

func (s *Session) onActivationDone(ev ActivationDone) {
	if !s.activation.Done(ev.RequestID, ev.Token) {
		s.logger.Debug("activation token for unknown request", "request_id", ev.RequestID)
	}
}
