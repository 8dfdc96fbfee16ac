package trace

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/window"
)

// Recorder is the session listener used during replay. It writes a line
// per notification, reads clipboard offers as they arrive and completes
// drops.
type Recorder struct {
	mu      sync.Mutex
	lines   []string
	session *window.Session
	logger  *slog.Logger
	accept  offer.Action

	// lastRequest is the newest activation request, answered by
	// activation_done steps that name no request.
	lastRequest uint64
}

var _ window.Listener = (*Recorder)(nil)

// NewRecorder creates a recorder that accepts drags with accept.
func NewRecorder(accept offer.Action, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{accept: accept, logger: logger}
}

// Lines returns the recorded transcript.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *Recorder) addf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	r.logger.Debug("replay", "line", line)
}

func (r *Recorder) OnResize(w *window.Window, s toplevel.Snapshot) {
	r.addf("resize window=%d %dx%d", w.ID, s.Width, s.Height)
}

func (r *Recorder) OnStateChange(w *window.Window, s toplevel.Snapshot) {
	r.addf("state window=%d %s", w.ID, s.State)
}

func (r *Recorder) OnClipboardDataAvailable(o offer.Offer) {
	mime := pickMime(o)
	if mime == "" || r.session == nil {
		r.addf("clipboard offer=%d primary=%v no readable mime", o.ID, o.Primary)
		return
	}
	data, err := r.session.ReadOffer(o.Handle(), mime)
	if err != nil {
		r.addf("clipboard offer=%d read failed: %v", o.ID, err)
		return
	}
	r.addf("clipboard offer=%d primary=%v self=%v %s: %q", o.ID, o.Primary, o.SelfOffer, mime, data)
}

func (r *Recorder) OnDragEnter(w *window.Window, o offer.Offer, x, y float64) offer.Action {
	r.addf("drag_enter window=%d offer=%d at %.0f,%.0f", w.ID, o.ID, x, y)
	return r.accept
}

func (r *Recorder) OnDrop(w *window.Window, o offer.Offer, x, y float64) {
	if r.session == nil {
		return
	}
	data, err := r.session.ReadOffer(o.Handle(), o.AcceptedMime)
	if err != nil {
		r.addf("drop window=%d offer=%d read failed: %v", w.ID, o.ID, err)
	} else {
		r.addf("drop window=%d offer=%d at %.0f,%.0f %s: %q", w.ID, o.ID, x, y, o.AcceptedMime, data)
	}
	if err := r.session.ReleaseOffer(o.Handle()); err != nil {
		r.addf("drop window=%d offer=%d release failed: %v", w.ID, o.ID, err)
	}
}

func (r *Recorder) OnCursorShapeChanged(w *window.Window, shape cursor.Shape) {
	r.addf("cursor window=%d %s", w.ID, shape)
}

func (r *Recorder) OnClose(w *window.Window) {
	r.addf("close window=%d", w.ID)
}

func (r *Recorder) OnKey(w *window.Window, key uint32, pressed, repeat bool) {
	switch {
	case repeat:
		r.addf("key window=%d %d repeat", w.ID, key)
	case pressed:
		r.addf("key window=%d %d pressed", w.ID, key)
	default:
		r.addf("key window=%d %d released", w.ID, key)
	}
}

func (r *Recorder) OnError(w *window.Window, err error) {
	if w == nil {
		r.addf("error: %v", err)
		return
	}
	r.addf("error window=%d: %v", w.ID, err)
}

// pickMime chooses the mime to read from a selection offer: the first in
// drop preference order, otherwise the first advertised.
func pickMime(o offer.Offer) string {
	for _, m := range offer.DropMimePreference {
		if o.HasMime(m) {
			return m
		}
	}
	for _, m := range o.Mimes {
		if !offer.IsIdentity(m) {
			return m
		}
	}
	return ""
}
