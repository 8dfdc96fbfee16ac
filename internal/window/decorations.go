package window

import (
	"errors"
	"fmt"

	"github.com/1broseidon/wlframe/internal/decor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

var (
	errNoServerSide   = errors.New("compositor offers no server-side decorations")
	errNoFrameLibrary = errors.New("no frame library configured")
)

// applyDecorationMode builds or tears down the client-side edges for mode.
// Torn-down edges retire their buffers instead of freeing them.
func (w *Window) applyDecorationMode(mode toplevel.DecorationMode) error {
	s := w.session
	if mode == toplevel.DecorationClientSide && !w.usingFrame() {
		if w.csd != nil {
			return nil
		}
		cs, err := decor.NewClientSet(s.comp, s.alloc, s.tracker, s.renderer, w.surface, w.title, s.logger.With("window", w.ID))
		if err != nil {
			return wlerr.Compositor("build decorations", err)
		}
		w.csd = cs
		s.logger.Debug("client-side decorations built", "window", w.ID)
		return nil
	}
	w.dropDecorations()
	return nil
}

func (w *Window) dropDecorations() {
	if w.csd == nil {
		return
	}
	s := w.session
	if s.pointer.window == w && s.pointer.surface != w.surface {
		s.animator.Stop()
		s.pointer = pointerFocus{}
		w.hovered = false
	}
	w.csd.Destroy()
	w.csd = nil
	s.logger.Debug("client-side decorations torn down", "window", w.ID)
}

// SetDecorationMode switches decorations at runtime. Server-side mode needs
// the compositor's decoration protocol; leaving frame-library mode replaces
// the library's toplevel with a plain one, which must be configured again.
func (w *Window) SetDecorationMode(mode toplevel.DecorationMode) error {
	if err := w.check("set decoration mode"); err != nil {
		return err
	}
	s := w.session
	caps := s.comp.Capabilities()

	if mode == toplevel.DecorationServerSide {
		if w.usingFrame() {
			return nil
		}
		if !caps.ServerSideDecorations {
			return wlerr.Unsupported("set decoration mode", errNoServerSide)
		}
		w.decorated = true
		s.comp.RequestDecorationMode(w.surface, true)
		return nil
	}

	w.decorated = mode != toplevel.DecorationNone
	if w.usingFrame() {
		return w.leaveFrame(mode)
	}
	if caps.ServerSideDecorations {
		s.comp.RequestDecorationMode(w.surface, false)
	}
	w.machine.OnDecorationModeChange(mode)
	w.autoCommit()
	return nil
}

// leaveFrame destroys the library frame and gives the surface a plain
// toplevel in mode.
func (w *Window) leaveFrame(mode toplevel.DecorationMode) error {
	s := w.session
	w.frame.Destroy()
	cur := w.machine.Current()
	if _, err := w.createToplevel(false); err != nil {
		return fmt.Errorf("leave frame library mode: %w", err)
	}
	w.machine = toplevel.NewMachine(cur.Width, cur.Height, mode)
	w.decorReady = false
	s.logger.Info("left frame library mode", "window", w.ID, "decoration", mode.String())
	return nil
}

// EnterFrameLibrary hands the window's decorations back to the frame
// library. The plain toplevel is destroyed and the library creates its own,
// so the window waits for the library's configure before it commits again.
// When the library refuses, the window keeps a plain toplevel.
func (w *Window) EnterFrameLibrary() error {
	if err := w.check("enter frame library mode"); err != nil {
		return err
	}
	s := w.session
	if w.usingFrame() {
		return nil
	}
	if s.opts.Frames == nil {
		return wlerr.Unsupported("enter frame library mode", errNoFrameLibrary)
	}
	if w.frame == nil {
		w.frame = decor.NewFrameBridge(s.opts.Frames, s.logger)
	}

	w.dropDecorations()
	s.comp.DestroyToplevel(w.surface)
	cur := w.machine.Current()
	gen, err := w.frame.Create(w.surface, w.title, w.appID)
	if err != nil {
		mode, terr := w.createToplevel(w.decorated && s.opts.PreferServerSide)
		if terr != nil {
			return fmt.Errorf("restore toplevel: %w", terr)
		}
		w.machine = toplevel.NewMachine(cur.Width, cur.Height, mode)
		w.decorReady = false
		return wlerr.Unsupported("enter frame library mode", err)
	}
	w.decorated = true
	w.visible = false
	w.machine = toplevel.NewMachine(cur.Width, cur.Height, toplevel.DecorationServerSide)
	w.decorReady = false
	s.logger.Info("entered frame library mode", "window", w.ID, "generation", gen)
	return nil
}

func (s *Session) onDecorationConfigure(ev DecorationConfigure) {
	w, ok := s.windows[ev.Window]
	if !ok {
		s.logger.Debug("decoration configure for unknown window", "window", ev.Window)
		return
	}
	if w.usingFrame() {
		return
	}
	mode := ev.Mode
	if mode == toplevel.DecorationClientSide && !w.decorated {
		mode = toplevel.DecorationNone
	}
	w.machine.OnDecorationModeChange(mode)
}

func (s *Session) frameWindow(id platform.WindowID, gen uint64, kind string) (*Window, bool) {
	w, ok := s.windows[id]
	if !ok || w.frame == nil {
		s.logger.Debug("frame event for unknown window", "event", kind, "window", id)
		return nil, false
	}
	if !w.frame.Accept(gen) {
		return nil, false
	}
	return w, true
}

func (s *Session) onFrameConfigure(ev FrameConfigure) {
	w, ok := s.frameWindow(ev.Window, ev.Generation, ev.Kind())
	if !ok {
		return
	}
	w.machine.OnConfigure(ev.Width, ev.Height, decor.TranslateFrameState(ev.State))
	w.machine.OnSurfaceConfigure(ev.Serial)
	w.autoCommit()
}

func (s *Session) onFrameCommit(ev FrameCommit) {
	w, ok := s.frameWindow(ev.Window, ev.Generation, ev.Kind())
	if !ok {
		return
	}
	s.comp.Commit(w.surface)
}

func (s *Session) onFrameClose(ev FrameClose) {
	w, ok := s.frameWindow(ev.Window, ev.Generation, ev.Kind())
	if !ok {
		return
	}
	s.listener.OnClose(w)
}
