package window

import (
	"fmt"

	"github.com/1broseidon/wlframe/internal/decor"
	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/toplevel"
)

// SetCursor sets the cursor shape shown over the content area.
func (w *Window) SetCursor(shape cursor.Shape) error {
	if err := w.check("set cursor"); err != nil {
		return err
	}
	w.shape = shape
	s := w.session
	if s.pointer.window == w && s.pointer.surface == w.surface {
		s.showCursor(shape)
	}
	return nil
}

// showCursor loads shape at the focused window's scale and starts it on
// the cursor surface. Animated shapes keep one frame timer running.
func (s *Session) showCursor(shape cursor.Shape) {
	w := s.pointer.window
	if w == nil {
		return
	}
	if s.pointer.shown && s.pointer.shape == shape {
		return
	}
	changed := s.pointer.shape != shape || !s.pointer.shown
	s.pointer.shape = shape
	s.pointer.shown = true

	if s.opts.Theme != nil {
		if err := s.loadCursor(w, shape); err != nil {
			s.report(w, err)
		}
	}
	if changed {
		s.listener.OnCursorShapeChanged(w, shape)
	}
}

func (s *Session) loadCursor(w *Window, shape cursor.Shape) error {
	c, err := s.opts.Theme.Load(shape, s.opts.CursorSize*w.scale)
	if err != nil {
		return fmt.Errorf("load cursor %s: %w", shape, err)
	}
	if s.cursorSurface == 0 {
		surface, err := s.comp.CreateSurface()
		if err != nil {
			return fmt.Errorf("create cursor surface: %w", err)
		}
		s.cursorSurface = surface
	}
	s.comp.SetBufferScale(s.cursorSurface, w.scale)
	s.animator.Start(c, s.cursorSurface)
	img := c.Frame(0)
	s.comp.SetCursor(s.pointer.serial, s.cursorSurface, img.HotspotX/w.scale, img.HotspotY/w.scale)
	return nil
}

func (s *Session) onPointerEnter(ev PointerEnter) {
	w, onEdge := s.windowForSurface(ev.Surface)
	if w == nil {
		s.logger.Debug("pointer entered unknown surface", "surface", ev.Surface)
		return
	}
	s.serial = ev.Serial
	s.pointer = pointerFocus{window: w, surface: ev.Surface, serial: ev.Serial, x: ev.X, y: ev.Y}
	w.hovered = true

	shape := w.shape
	if onEdge {
		shape = s.edgeMotion(w, ev.X, ev.Y)
	}
	s.showCursor(shape)
}

func (s *Session) onPointerLeave(ev PointerLeave) {
	w := s.pointer.window
	if w == nil || ev.Surface != s.pointer.surface {
		return
	}
	if w.csd != nil && ev.Surface != w.surface {
		redrawn, err := w.csd.PointerLeave()
		if err != nil {
			s.report(w, err)
		}
		if redrawn {
			w.presentDecorations()
		}
	}
	w.hovered = false
	s.animator.Stop()
	s.pointer = pointerFocus{}
}

func (s *Session) onPointerMotion(ev PointerMotion) {
	w := s.pointer.window
	if w == nil {
		return
	}
	s.pointer.x, s.pointer.y = ev.X, ev.Y
	if s.pointer.surface == w.surface || w.csd == nil {
		return
	}
	s.showCursor(s.edgeMotion(w, ev.X, ev.Y))
}

// edgeMotion updates decoration hover state and returns the cursor shape for
// the pointer position on the focused edge.
func (s *Session) edgeMotion(w *Window, x, y float64) cursor.Shape {
	if w.csd == nil {
		return w.shape
	}
	shape, redrawn, err := w.csd.PointerMotion(s.pointer.surface, x, y)
	if err != nil {
		s.report(w, err)
	}
	if redrawn {
		w.presentDecorations()
	}
	return shape
}

func (s *Session) onPointerButton(ev PointerButton) {
	s.serial = ev.Serial
	w := s.pointer.window
	if w == nil || w.csd == nil || s.pointer.surface == w.surface {
		return
	}
	action := w.csd.PointerButton(s.pointer.surface, s.pointer.x, s.pointer.y, ev.Button, ev.Pressed, s.timers.Now())
	if action.Kind == decor.ActionNone {
		return
	}
	s.logger.Debug("decoration action", "window", w.ID, "action", action.Kind.String())
	w.perform(action, ev.Serial)
}

// perform carries out a decoration pointer action.
func (w *Window) perform(a decor.Action, serial uint32) {
	s := w.session
	var err error
	switch a.Kind {
	case decor.ActionMove:
		s.comp.Move(w.surface, serial)
	case decor.ActionResize:
		s.comp.Resize(w.surface, serial, a.Edges)
	case decor.ActionToggleMaximize:
		err = w.SetMaximized(!w.machine.Current().State.Has(toplevel.StateMaximized))
	case decor.ActionMinimize:
		err = w.Minimize()
	case decor.ActionClose:
		s.listener.OnClose(w)
	}
	if err != nil {
		s.report(w, err)
	}
}

func (s *Session) onKeyboardEnter(ev KeyboardEnter) {
	w, _ := s.windowForSurface(ev.Surface)
	if w == nil {
		s.logger.Debug("keyboard entered unknown surface", "surface", ev.Surface)
		return
	}
	s.serial = ev.Serial
	if s.keyboard != nil && s.keyboard != w {
		s.keyboard.focused = false
	}
	s.keyboard = w
	w.focused = true
	s.repeater.FocusChanged(w.ID)
}

func (s *Session) onKeyboardLeave(ev KeyboardLeave) {
	w := s.keyboard
	if w == nil {
		return
	}
	if owner, _ := s.windowForSurface(ev.Surface); owner != nil && owner != w {
		return
	}
	w.focused = false
	s.keyboard = nil
	s.repeater.Stop()
}

func (s *Session) onKey(ev Key) {
	w := s.keyboard
	if w == nil {
		return
	}
	s.serial = ev.Serial
	s.listener.OnKey(w, ev.Key, ev.Pressed, false)
	if ev.Pressed {
		s.repeater.KeyDown(ev.Key, w.ID)
	} else {
		s.repeater.KeyUp(ev.Key)
	}
}

// emitRepeat delivers one synthesized key repeat.
func (s *Session) emitRepeat(key uint32, focus platform.WindowID) {
	w, ok := s.windows[focus]
	if !ok {
		s.repeater.Stop()
		return
	}
	s.listener.OnKey(w, key, true, true)
}
