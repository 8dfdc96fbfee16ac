package window

import "github.com/1broseidon/wlframe/internal/platform"

func (s *Session) onOutputEnter(ev OutputEnter) {
	w, _ := s.windowForSurface(ev.Surface)
	if w == nil || ev.Surface != w.surface {
		return
	}
	for _, o := range w.monitors {
		if o == ev.Output {
			return
		}
	}
	w.monitors = append(w.monitors, ev.Output)
	w.updateScale()
}

func (s *Session) onOutputLeave(ev OutputLeave) {
	w, _ := s.windowForSurface(ev.Surface)
	if w == nil || ev.Surface != w.surface {
		return
	}
	for i, o := range w.monitors {
		if o == ev.Output {
			w.monitors = append(w.monitors[:i], w.monitors[i+1:]...)
			w.updateScale()
			return
		}
	}
}

func (s *Session) onOutputScale(ev OutputScale) {
	scale := ev.Scale
	if scale < 1 {
		scale = 1
	}
	s.outputs[ev.Output] = scale
	for _, w := range s.Windows() {
		w.updateScale()
	}
}

// outputScale returns the known scale of an output, 1 when unknown.
func (s *Session) outputScale(id platform.OutputID) int {
	if scale, ok := s.outputs[id]; ok {
		return scale
	}
	return 1
}

// updateScale recomputes the buffer scale from the window's outputs and
// re-presents the window when it changed.
func (w *Window) updateScale() {
	scale := 1
	for _, o := range w.monitors {
		if v := w.session.outputScale(o); v > scale {
			scale = v
		}
	}
	if scale == w.scale {
		return
	}
	w.session.logger.Debug("window scale changed", "window", w.ID, "from", w.scale, "to", scale)
	w.scale = scale
	s := w.session
	if s.pointer.window == w && s.pointer.shown && s.opts.Theme != nil {
		if err := s.loadCursor(w, s.pointer.shape); err != nil {
			s.report(w, err)
		}
	}
	if !w.machine.ConfiguredOnce() {
		return
	}
	w.machine.Invalidate()
	w.autoCommit()
}
