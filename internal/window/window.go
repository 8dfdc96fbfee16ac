package window

import (
	"fmt"

	"github.com/1broseidon/wlframe/internal/decor"
	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// Config describes a window to create.
type Config struct {
	Title     string
	AppID     string
	Width     int
	Height    int
	Decorated bool
}

// Window is one toplevel window of a session.
type Window struct {
	ID      platform.WindowID
	session *Session
	surface platform.SurfaceID
	machine *toplevel.Machine

	title     string
	appID     string
	decorated bool

	scale    int
	monitors []platform.OutputID
	visible  bool
	hovered  bool
	focused  bool
	shape    cursor.Shape

	minW, minH int
	maxW, maxH int

	csd        *decor.ClientSet
	frame      *decor.FrameBridge
	decorReady bool
	destroyed  bool
}

// CreateWindow creates a toplevel and sends the initial empty commit. The
// window is shown by the first Commit after the compositor configured it.
func (s *Session) CreateWindow(cfg Config) (*Window, error) {
	if s.err != nil {
		return nil, s.err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	surface, err := s.comp.CreateSurface()
	if err != nil {
		return nil, wlerr.Compositor("create window", fmt.Errorf("create surface: %w", err))
	}

	s.nextID++
	w := &Window{
		ID:        s.nextID,
		session:   s,
		surface:   surface,
		title:     cfg.Title,
		appID:     cfg.AppID,
		decorated: cfg.Decorated,
		scale:     1,
		shape:     cursor.ShapeDefault,
	}

	mode := toplevel.DecorationNone
	if cfg.Decorated && s.opts.UseFrameLibrary && s.opts.Frames != nil {
		w.frame = decor.NewFrameBridge(s.opts.Frames, s.logger)
		if _, err := w.frame.Create(surface, cfg.Title, cfg.AppID); err != nil {
			s.logger.Warn("frame library unavailable, using xdg decorations", "window", w.ID, "error", err)
			w.frame = nil
		} else {
			mode = toplevel.DecorationServerSide
		}
	}
	if w.frame == nil {
		mode, err = w.createToplevel(cfg.Decorated && s.opts.PreferServerSide)
		if err != nil {
			s.comp.DestroySurface(surface)
			return nil, err
		}
	}
	w.machine = toplevel.NewMachine(cfg.Width, cfg.Height, mode)

	s.windows[w.ID] = w
	s.order = append(s.order, w.ID)
	s.logger.Info("window created",
		"window", w.ID,
		"surface", surface,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"decoration", mode.String(),
		"frame_library", w.frame != nil,
	)
	return w, nil
}

// createToplevel gives the surface an xdg toplevel role, negotiates the
// decoration mode and sends the initial commit. It returns the expected mode.
func (w *Window) createToplevel(serverSide bool) (toplevel.DecorationMode, error) {
	s := w.session
	if err := s.comp.CreateToplevel(w.surface); err != nil {
		return toplevel.DecorationNone, wlerr.Protocol("create window", fmt.Errorf("create toplevel: %w", err))
	}
	s.comp.SetTitle(w.surface, w.title)
	if w.appID != "" {
		s.comp.SetAppID(w.surface, w.appID)
	}
	if w.minW > 0 || w.minH > 0 {
		s.comp.SetMinSize(w.surface, w.minW, w.minH)
	}
	if w.maxW > 0 || w.maxH > 0 {
		s.comp.SetMaxSize(w.surface, w.maxW, w.maxH)
	}

	mode := toplevel.DecorationNone
	if w.decorated {
		mode = toplevel.DecorationClientSide
	}
	if s.comp.Capabilities().ServerSideDecorations {
		s.comp.RequestDecorationMode(w.surface, serverSide)
		if serverSide {
			mode = toplevel.DecorationServerSide
		}
	}
	s.comp.Commit(w.surface)
	return mode, nil
}

// Surface returns the main surface.
func (w *Window) Surface() platform.SurfaceID { return w.surface }

// Machine returns the configure state machine.
func (w *Window) Machine() *toplevel.Machine { return w.machine }

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// AppID returns the application id.
func (w *Window) AppID() string { return w.appID }

// Scale returns the buffer scale, the largest scale of the outputs the
// window is on.
func (w *Window) Scale() int { return w.scale }

// Monitors returns the outputs the window is on, in entry order.
func (w *Window) Monitors() []platform.OutputID {
	return append([]platform.OutputID(nil), w.monitors...)
}

// Visible reports whether the window has been mapped by a commit.
func (w *Window) Visible() bool { return w.visible }

// Hovered reports whether the pointer is over the window or its decorations.
func (w *Window) Hovered() bool { return w.hovered }

// Focused reports whether the window holds keyboard focus.
func (w *Window) Focused() bool { return w.focused }

// CursorShape returns the cursor shape shown over the content area.
func (w *Window) CursorShape() cursor.Shape { return w.shape }

// Decorations returns the client-side decorations, or nil when another mode
// is active.
func (w *Window) Decorations() *decor.ClientSet { return w.csd }

// Frame returns the frame library bridge, or nil.
func (w *Window) Frame() *decor.FrameBridge { return w.frame }

// Destroyed reports whether Destroy was called.
func (w *Window) Destroyed() bool { return w.destroyed }

func (w *Window) usingFrame() bool {
	return w.frame != nil && w.frame.Active()
}

func (w *Window) check(op string) error {
	if w.destroyed {
		return wlerr.Stale(op, fmt.Errorf("window %d: %w", w.ID, wlerr.ErrWindowDestroyed))
	}
	if w.session.err != nil {
		return w.session.err
	}
	return nil
}

// Commit applies the pending configuration and presents it. Before the
// initial configure this is a fatal protocol error; while the previous
// frame is in flight the commit is deferred to its frame callback.
func (w *Window) Commit() error {
	if err := w.check("commit"); err != nil {
		return err
	}
	a, err := w.machine.Commit()
	if err != nil {
		w.session.logger.Error("commit rejected", "window", w.ID, "error", err)
		return err
	}
	if !a.Committed {
		w.session.logger.Debug("commit deferred until frame callback", "window", w.ID)
		return nil
	}
	return w.present(a)
}

// present acknowledges and commits a. A decoration failure does not stop the
// surface commit: the configure is still acked and a frame requested, so
// later configures are not held back, and the decorations are rebuilt by the
// next commit.
func (w *Window) present(a toplevel.Applied) error {
	s := w.session
	var failed error
	if a.DecorationChanged || !w.decorReady {
		if err := w.applyDecorationMode(a.Current.Decoration); err != nil {
			failed = err
		} else {
			w.decorReady = true
		}
	}

	if w.usingFrame() {
		var serial uint32
		if a.Ack {
			serial = a.Serial
		}
		w.frame.Commit(a.Current.Width, a.Current.Height, serial)
	} else {
		if failed == nil && w.csd != nil {
			if _, err := w.csd.Relayout(a.Current, w.scale, a.Current.State.Has(toplevel.StateActivated)); err != nil {
				failed = fmt.Errorf("window %d: %w", w.ID, err)
			}
		}
		if a.Ack {
			s.comp.AckConfigure(w.surface, a.Serial)
		}
		s.comp.SetWindowGeometry(w.surface, w.geometry(a.Current))
		if failed == nil && w.csd != nil {
			if err := w.csd.Present(); err != nil {
				s.report(w, err)
			}
		}
	}
	s.comp.SetBufferScale(w.surface, w.scale)
	s.comp.RequestFrame(w.surface)
	s.comp.Commit(w.surface)
	w.visible = true

	if failed != nil {
		w.decorReady = false
		s.logger.Warn("window committed without decorations",
			"window", w.ID,
			"size", fmt.Sprintf("%dx%d", a.Current.Width, a.Current.Height),
			"error", failed,
		)
	} else {
		s.logger.Debug("window committed",
			"window", w.ID,
			"size", fmt.Sprintf("%dx%d", a.Current.Width, a.Current.Height),
			"state", a.Current.State.String(),
			"decoration", a.Current.Decoration.String(),
			"serial", a.Serial,
			"acked", a.Ack,
		)
	}
	if a.SizeChanged {
		s.listener.OnResize(w, a.Current)
	}
	if a.StateChanged {
		s.listener.OnStateChange(w, a.Current)
	}
	return failed
}

// geometry is the window geometry for snap, excluding the resize border.
func (w *Window) geometry(snap toplevel.Snapshot) platform.Rect {
	if w.csd != nil {
		return w.csd.WindowGeometry()
	}
	return platform.Rect{Width: snap.Width, Height: snap.Height}
}

// autoCommit commits on the window's behalf when no frame is in flight.
// Otherwise the frame callback picks the pending state up.
func (w *Window) autoCommit() {
	if w.destroyed || !w.machine.ConfiguredOnce() || w.machine.WaitingForFrame() {
		return
	}
	if err := w.Commit(); err != nil {
		w.session.report(w, err)
	}
}

// presentDecorations shows redrawn decoration edges without a configure.
func (w *Window) presentDecorations() {
	if w.csd == nil || w.destroyed || !w.visible || w.machine.WaitingForFrame() {
		return
	}
	s := w.session
	if err := w.csd.Present(); err != nil {
		s.report(w, err)
	}
	s.comp.RequestFrame(w.surface)
	s.comp.Commit(w.surface)
	w.machine.FrameRequested()
}

// onFrame handles the frame callback of the main surface.
func (w *Window) onFrame() {
	w.machine.FrameReady()
	if w.csd != nil {
		w.csd.OnFrame()
	}
	if !w.machine.ConfiguredOnce() {
		return
	}
	if w.machine.HasPending() {
		w.autoCommit()
		return
	}
	if w.csd != nil && w.csd.HasPendingUpdate() {
		w.presentDecorations()
	}
}

// RequestSize asks for a new content size. It is applied at the next
// eligible commit.
func (w *Window) RequestSize(width, height int) error {
	if err := w.check("request size"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", width, height)
	}
	w.machine.RequestSize(width, height)
	w.autoCommit()
	return nil
}

// SetTitle changes the title shown by the compositor and the decorations.
func (w *Window) SetTitle(title string) error {
	if err := w.check("set title"); err != nil {
		return err
	}
	w.title = title
	if w.usingFrame() {
		w.frame.Frame().SetTitle(title)
		return nil
	}
	w.session.comp.SetTitle(w.surface, title)
	if w.csd != nil {
		if err := w.csd.SetTitle(title); err != nil {
			return fmt.Errorf("redraw titlebar: %w", err)
		}
		w.presentDecorations()
	}
	return nil
}

// SetAppID changes the application id.
func (w *Window) SetAppID(appID string) error {
	if err := w.check("set app id"); err != nil {
		return err
	}
	w.appID = appID
	if w.usingFrame() {
		w.frame.Frame().SetAppID(appID)
		return nil
	}
	w.session.comp.SetAppID(w.surface, appID)
	return nil
}

// SetSizeLimits sets the minimum and maximum content size. Zero means no
// limit.
func (w *Window) SetSizeLimits(minW, minH, maxW, maxH int) error {
	if err := w.check("set size limits"); err != nil {
		return err
	}
	if maxW > 0 && minW > maxW || maxH > 0 && minH > maxH {
		return fmt.Errorf("minimum size %dx%d exceeds maximum %dx%d", minW, minH, maxW, maxH)
	}
	w.minW, w.minH, w.maxW, w.maxH = minW, minH, maxW, maxH
	if w.usingFrame() {
		w.frame.Frame().SetMinSize(minW, minH)
		w.frame.Frame().SetMaxSize(maxW, maxH)
		return nil
	}
	w.session.comp.SetMinSize(w.surface, minW, minH)
	w.session.comp.SetMaxSize(w.surface, maxW, maxH)
	return nil
}

// SizeLimits returns the minimum and maximum content size.
func (w *Window) SizeLimits() (minW, minH, maxW, maxH int) {
	return w.minW, w.minH, w.maxW, w.maxH
}

// SetMaximized asks the compositor to maximize or restore the window.
func (w *Window) SetMaximized(maximized bool) error {
	if err := w.check("set maximized"); err != nil {
		return err
	}
	if w.usingFrame() {
		w.frame.Frame().SetMaximized(maximized)
		return nil
	}
	w.session.comp.SetMaximized(w.surface, maximized)
	return nil
}

// SetFullscreen asks for fullscreen on output, or any output when zero.
func (w *Window) SetFullscreen(fullscreen bool, output platform.OutputID) error {
	if err := w.check("set fullscreen"); err != nil {
		return err
	}
	if w.usingFrame() {
		w.frame.Frame().SetFullscreen(fullscreen)
		return nil
	}
	w.session.comp.SetFullscreen(w.surface, fullscreen, output)
	return nil
}

// Minimize asks the compositor to minimize the window.
func (w *Window) Minimize() error {
	if err := w.check("minimize"); err != nil {
		return err
	}
	if w.usingFrame() {
		w.frame.Frame().SetMinimized()
		return nil
	}
	w.session.comp.SetMinimized(w.surface)
	return nil
}

// RequestActivation asks the compositor to focus the window through an
// activation token. Without the activation protocol nothing happens.
func (w *Window) RequestActivation() (uint64, error) {
	if err := w.check("request activation"); err != nil {
		return 0, err
	}
	s := w.session
	return s.activation.Request(w.ID, w.surface, s.serial, w.appID, s.activate, nil)
}

// activate applies a delivered activation token.
func (s *Session) activate(id platform.WindowID, token string, _ any) {
	w, ok := s.windows[id]
	if !ok || token == "" {
		return
	}
	s.comp.Activate(w.surface, token)
	s.logger.Debug("window activated", "window", id)
}

// Destroy tears the window down. Buffers the compositor still holds are
// destroyed when their release arrives.
func (w *Window) Destroy() {
	if w.destroyed {
		return
	}
	s := w.session
	if n := s.activation.RemoveWindow(w.ID); n > 0 {
		s.logger.Debug("dropped activation requests", "window", w.ID, "count", n)
	}
	if _, focus, active := s.repeater.Active(); active && focus == w.ID {
		s.repeater.Stop()
	}
	if s.keyboard == w {
		s.keyboard = nil
	}
	if s.pointer.window == w {
		s.animator.Stop()
		s.pointer = pointerFocus{}
	}
	if w.csd != nil {
		w.csd.Destroy()
		w.csd = nil
	}
	if w.frame != nil {
		w.frame.Destroy()
	}
	s.comp.DestroySurface(w.surface)

	delete(s.windows, w.ID)
	for i, id := range s.order {
		if id == w.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.destroyed = true
	s.logger.Info("window destroyed", "window", w.ID)
}
