package window

import (
	"time"

	"github.com/1broseidon/wlframe/internal/offer"
)

// Info is a read-only snapshot of one window for inspection.
type Info struct {
	ID            uint32   `json:"id"`
	Surface       uint32   `json:"surface"`
	Title         string   `json:"title"`
	AppID         string   `json:"app_id,omitempty"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	PendingWidth  int      `json:"pending_width"`
	PendingHeight int      `json:"pending_height"`
	State         []string `json:"state,omitempty"`
	Docked        bool     `json:"docked"`
	Decoration    string   `json:"decoration"`
	FrameLibrary  bool     `json:"frame_library"`
	Phase         string   `json:"phase"`
	Scale         int      `json:"scale"`
	Monitors      []uint32 `json:"monitors,omitempty"`
	Visible       bool     `json:"visible"`
	Hovered       bool     `json:"hovered"`
	Focused       bool     `json:"focused"`
	Cursor        string   `json:"cursor"`

	Decorations *DecorInfo `json:"decorations,omitempty"`
}

// DecorInfo summarizes client-side decoration work.
type DecorInfo struct {
	TitlebarHeight int `json:"titlebar_height"`
	BorderWidth    int `json:"border_width"`
	Relayouts      int `json:"relayouts"`
	Skipped        int `json:"skipped"`
	Redraws        int `json:"redraws"`
	Reallocs       int `json:"reallocs"`
	Presents       int `json:"presents"`
}

// OfferInfo is a snapshot of one live data offer.
type OfferInfo struct {
	ID            uint32   `json:"id"`
	Slot          int      `json:"slot"`
	Type          string   `json:"type"`
	Mimes         []string `json:"mimes"`
	SelfOffer     bool     `json:"self_offer"`
	AcceptedMime  string   `json:"accepted_mime,omitempty"`
	SourceActions string   `json:"source_actions"`
	DndAction     string   `json:"dnd_action"`
	Dropped       bool     `json:"dropped,omitempty"`
}

// Status summarizes a session.
type Status struct {
	Windows           int      `json:"windows"`
	Offers            int      `json:"offers"`
	Sources           int      `json:"sources"`
	ActivationPending int      `json:"activation_pending"`
	Timers            []string `json:"timers,omitempty"`
	KeyRepeatActive   bool     `json:"key_repeat_active"`
	CursorAnimating   bool     `json:"cursor_animating"`
	UptimeSeconds     int64    `json:"uptime_seconds"`
	Error             string   `json:"error,omitempty"`
}

// Info returns a snapshot of the window.
func (w *Window) Info() Info {
	cur := w.machine.Current()
	pend := w.machine.Pending()
	info := Info{
		ID:            uint32(w.ID),
		Surface:       uint32(w.surface),
		Title:         w.title,
		AppID:         w.appID,
		Width:         cur.Width,
		Height:        cur.Height,
		PendingWidth:  pend.Width,
		PendingHeight: pend.Height,
		State:         cur.State.Names(),
		Docked:        cur.Docked(),
		Decoration:    cur.Decoration.String(),
		FrameLibrary:  w.usingFrame(),
		Phase:         w.machine.Phase().String(),
		Scale:         w.scale,
		Visible:       w.visible,
		Hovered:       w.hovered,
		Focused:       w.focused,
		Cursor:        w.shape.String(),
	}
	for _, o := range w.monitors {
		info.Monitors = append(info.Monitors, uint32(o))
	}
	if w.csd != nil {
		m := w.csd.Metrics()
		st := w.csd.Stats()
		info.Decorations = &DecorInfo{
			TitlebarHeight: m.VisibleTitlebar(),
			BorderWidth:    m.BorderWidth,
			Relayouts:      st.Relayouts,
			Skipped:        st.Skipped,
			Redraws:        st.Redraws,
			Reallocs:       st.Reallocs,
			Presents:       st.Presents,
		}
	}
	return info
}

// WindowInfos returns snapshots of the live windows in creation order.
func (s *Session) WindowInfos() []Info {
	var out []Info
	for _, w := range s.Windows() {
		out = append(out, w.Info())
	}
	return out
}

// OfferInfos returns snapshots of the live offers in slot order.
func (s *Session) OfferInfos() []OfferInfo {
	var out []OfferInfo
	for _, o := range s.offers.Live() {
		out = append(out, offerInfo(o))
	}
	return out
}

func offerInfo(o offer.Offer) OfferInfo {
	return OfferInfo{
		ID:            uint32(o.ID),
		Slot:          o.Slot,
		Type:          o.Type.String(),
		Mimes:         o.Mimes,
		SelfOffer:     o.SelfOffer,
		AcceptedMime:  o.AcceptedMime,
		SourceActions: o.SourceActions.String(),
		DndAction:     o.DndAction.String(),
		Dropped:       o.Dropped,
	}
}

// Status returns a summary of the session.
func (s *Session) Status() Status {
	_, _, repeating := s.repeater.Active()
	st := Status{
		Windows:           len(s.windows),
		Offers:            s.offers.Len(),
		Sources:           s.sources.Len(),
		ActivationPending: s.activation.Len(),
		Timers:            s.timers.Names(),
		KeyRepeatActive:   repeating,
		CursorAnimating:   s.animator.Running(),
		UptimeSeconds:     int64(s.timers.Now().Sub(s.started) / time.Second),
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}
