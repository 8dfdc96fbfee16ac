// Package window maps abstract windows onto a compositor session: toplevel
// configure handling, decorations, pointer and keyboard focus, data exchange
// and activation.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/1broseidon/wlframe/internal/activation"
	"github.com/1broseidon/wlframe/internal/decor"
	"github.com/1broseidon/wlframe/internal/input"
	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/offer"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
	"github.com/1broseidon/wlframe/internal/timer"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// ErrSessionClosed is returned for requests after a fatal compositor error
// or Close.
var ErrSessionClosed = errors.New("session closed")

// Options configures a Session.
type Options struct {
	Listener  Listener
	Frames    platform.FrameLibrary
	Theme     cursor.Theme
	Allocator shm.Allocator
	Logger    *slog.Logger

	Style            decor.Style
	PreferServerSide bool
	UseFrameLibrary  bool

	CursorSize  int
	RepeatRate  int
	RepeatDelay time.Duration

	MaxMimesPerOffer  int
	SelfOfferFastPath bool

	ActivationTimeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Style:             decor.DefaultStyle(),
		PreferServerSide:  true,
		UseFrameLibrary:   true,
		CursorSize:        24,
		RepeatRate:        25,
		RepeatDelay:       600 * time.Millisecond,
		MaxMimesPerOffer:  offer.DefaultMaxMimes,
		SelfOfferFastPath: true,
		ActivationTimeout: 5 * time.Second,
	}
}

type pointerFocus struct {
	window  *Window
	surface platform.SurfaceID
	serial  uint32
	x, y    float64
	shape   cursor.Shape
	shown   bool
}

// Session owns every window of one compositor connection. It is driven from
// a single goroutine and is not safe for concurrent use.
type Session struct {
	comp     platform.Compositor
	timers   *timer.Table
	listener Listener
	opts     Options
	logger   *slog.Logger
	alloc    shm.Allocator

	renderer   *decor.Renderer
	tracker    *shm.Tracker
	sources    *offer.Sources
	offers     *offer.Registry
	activation *activation.Table
	repeater   *input.KeyRepeater
	animator   *input.CursorAnimator

	windows map[platform.WindowID]*Window
	order   []platform.WindowID
	nextID  platform.WindowID
	outputs map[platform.OutputID]int

	cursorSurface platform.SurfaceID
	pointer       pointerFocus
	keyboard      *Window
	serial        uint32

	started time.Time
	err     error
}

// NewSession creates a session on comp. Timers created by the session live
// in timers, which the dispatch loop drives.
func NewSession(comp platform.Compositor, timers *timer.Table, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Listener == nil {
		opts.Listener = NopListener{}
	}
	if opts.Allocator == nil {
		opts.Allocator = shm.DefaultAllocator()
	}
	if opts.CursorSize <= 0 {
		opts.CursorSize = 24
	}

	renderer, err := decor.NewRenderer(opts.Style)
	if err != nil {
		return nil, fmt.Errorf("create decoration renderer: %w", err)
	}

	caps := comp.Capabilities()
	s := &Session{
		comp:     comp,
		timers:   timers,
		listener: opts.Listener,
		opts:     opts,
		logger:   opts.Logger,
		alloc:    opts.Allocator,
		renderer: renderer,
		tracker:  shm.NewTracker(),
		windows:  make(map[platform.WindowID]*Window),
		outputs:  make(map[platform.OutputID]int),
		started:  timers.Now(),
	}
	s.sources = offer.NewSources(comp, opts.Logger)
	s.offers = offer.NewRegistry(comp, s.sources, offer.Options{
		MaxMimes: opts.MaxMimesPerOffer,
		FastPath: opts.SelfOfferFastPath,
		Logger:   opts.Logger,
	})
	s.activation = activation.NewTable(comp, caps.Activation, timers, opts.ActivationTimeout, opts.Logger)
	s.repeater = input.NewKeyRepeater(timers, opts.RepeatRate, opts.RepeatDelay, s.emitRepeat)
	s.animator = input.NewCursorAnimator(comp, timers, opts.Logger)

	s.logger.Info("session started",
		"server_side_decorations", caps.ServerSideDecorations,
		"activation", caps.Activation,
		"primary_selection", caps.PrimarySelection,
		"frame_library", opts.Frames != nil && opts.UseFrameLibrary,
	)
	return s, nil
}

// Timers returns the session's timer table.
func (s *Session) Timers() *timer.Table {
	return s.timers
}

// Compositor returns the compositor the session talks to.
func (s *Session) Compositor() platform.Compositor {
	return s.comp
}

// Err returns the fatal error that closed the session, if any.
func (s *Session) Err() error {
	return s.err
}

// Window returns a live window.
func (s *Session) Window(id platform.WindowID) (*Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

// Windows returns the live windows in creation order.
func (s *Session) Windows() []*Window {
	out := make([]*Window, 0, len(s.order))
	for _, id := range s.order {
		if w, ok := s.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

// Offers returns the offer registry.
func (s *Session) Offers() *offer.Registry {
	return s.offers
}

// Activation returns the activation request table.
func (s *Session) Activation() *activation.Table {
	return s.activation
}

// KeyRepeater returns the key repeater.
func (s *Session) KeyRepeater() *input.KeyRepeater {
	return s.repeater
}

// CursorAnimator returns the cursor animator.
func (s *Session) CursorAnimator() *input.CursorAnimator {
	return s.animator
}

// windowForSurface finds the window owning surface and reports whether the
// surface is one of its decoration edges.
func (s *Session) windowForSurface(surface platform.SurfaceID) (*Window, bool) {
	for _, w := range s.windows {
		if w.surface == surface {
			return w, false
		}
		if w.csd != nil && w.csd.Owns(surface) {
			return w, true
		}
	}
	return nil, false
}

// report logs a non-fatal error by kind and passes it to the listener.
func (s *Session) report(w *Window, err error) {
	if err == nil {
		return
	}
	var id platform.WindowID
	if w != nil {
		id = w.ID
	}
	switch {
	case wlerr.Is(err, wlerr.KindExhausted):
		s.logger.Warn("resource exhausted", "window", id, "error", err)
	case wlerr.Is(err, wlerr.KindStale):
		s.logger.Error("stale reference", "window", id, "error", err, "stack", wlerr.StackTrace(err))
	case wlerr.Is(err, wlerr.KindUnsupported):
		s.logger.Info("feature unsupported", "window", id, "error", err)
	default:
		s.logger.Error("window backend error", "window", id, "error", err)
	}
	s.listener.OnError(w, err)
}

// Recovered reports a panic raised while handling op as an internal error.
func (s *Session) Recovered(op string, v any) {
	err := fmt.Errorf("internal error in %s: %v", op, v)
	s.logger.Error("handler panic recovered", "op", op, "error", err, "stack", string(debug.Stack()))
	s.listener.OnError(nil, err)
}

// fail closes the session after a fatal compositor error.
func (s *Session) fail(err error) error {
	if s.err == nil {
		s.err = err
		s.logger.Error("compositor connection failed", "error", err)
		s.listener.OnError(nil, err)
	}
	return s.err
}

// Close destroys every window and local data source.
func (s *Session) Close() {
	for _, w := range s.Windows() {
		w.Destroy()
	}
	s.repeater.Stop()
	s.animator.Stop()
	if s.cursorSurface != 0 {
		s.comp.DestroySurface(s.cursorSurface)
		s.cursorSurface = 0
	}
	s.sources.Close()
	if s.err == nil {
		s.err = ErrSessionClosed
	}
	s.logger.Info("session closed")
}
