package decor

import (
	"image"
	"time"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/platform"
)

// BtnLeft is the evdev code of the left pointer button.
const BtnLeft = 0x110

// ActionKind is what a pointer press on the decorations asks the window to do.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionResize
	ActionToggleMaximize
	ActionMinimize
	ActionClose
)

// String returns the string representation of the action.
func (k ActionKind) String() string {
	switch k {
	case ActionMove:
		return "move"
	case ActionResize:
		return "resize"
	case ActionToggleMaximize:
		return "toggle-maximize"
	case ActionMinimize:
		return "minimize"
	case ActionClose:
		return "close"
	default:
		return "none"
	}
}

// Action is the outcome of a pointer button on the decorations.
type Action struct {
	Kind  ActionKind
	Edges platform.Edges
}

// Hit is the decoration element under the pointer.
type Hit struct {
	Side     Side
	Edges    platform.Edges
	Titlebar bool
	Button   Button
}

// Shape returns the cursor shape for the hit.
func (h Hit) Shape() cursor.Shape {
	if h.Edges != platform.EdgeNone {
		return cursor.ResizeShape(h.Edges)
	}
	return cursor.ShapeDefault
}

type pointerState struct {
	surface    platform.SurfaceID
	inTitlebar bool
	hover      Button
	pressed    Button
	lastPress  time.Time
}

// HitTest resolves a pointer position in edge-surface coordinates.
func (cs *ClientSet) HitTest(surface platform.SurfaceID, x, y float64) (Hit, bool) {
	e := cs.edgeFor(surface)
	if e == nil {
		return Hit{}, false
	}
	b := float64(cs.metrics.BorderWidth)
	t := cs.metrics.VisibleTitlebar()
	w := float64(e.Bounds.Width)
	corner := 2 * b

	h := Hit{Side: e.Side}
	switch e.Side {
	case SideTop:
		switch {
		case y < b:
			h.Edges = platform.EdgeTop
			if x < corner {
				h.Edges |= platform.EdgeLeft
			} else if x >= w-corner {
				h.Edges |= platform.EdgeRight
			}
		case x < b:
			h.Edges = platform.EdgeLeft
		case x >= w-b:
			h.Edges = platform.EdgeRight
		default:
			h.Titlebar = true
			pt := image.Pt(int(x), int(y))
			for _, btn := range titlebarButtons {
				if pt.In(ButtonRect(btn, e.Bounds.Width, cs.metrics.BorderWidth, t)) {
					h.Button = btn
					break
				}
			}
		}
	case SideLeft:
		h.Edges = platform.EdgeLeft
	case SideRight:
		h.Edges = platform.EdgeRight
	case SideBottom:
		h.Edges = platform.EdgeBottom
		if x < corner {
			h.Edges |= platform.EdgeLeft
		} else if x >= w-corner {
			h.Edges |= platform.EdgeRight
		}
	}
	return h, true
}

// PointerMotion updates hover highlighting. It returns the cursor shape to
// show and whether the titlebar was redrawn.
func (cs *ClientSet) PointerMotion(surface platform.SurfaceID, x, y float64) (cursor.Shape, bool, error) {
	h, ok := cs.HitTest(surface, x, y)
	if !ok {
		return cursor.ShapeDefault, false, nil
	}
	cs.pointer.surface = surface
	if h.Titlebar == cs.pointer.inTitlebar && h.Button == cs.pointer.hover {
		return h.Shape(), false, nil
	}
	cs.pointer.inTitlebar = h.Titlebar
	cs.pointer.hover = h.Button
	if err := cs.redrawTop(); err != nil {
		return h.Shape(), false, err
	}
	return h.Shape(), true, nil
}

// PointerLeave clears hover state. It reports whether the titlebar was
// redrawn.
func (cs *ClientSet) PointerLeave() (bool, error) {
	cs.pointer.surface = 0
	cs.pointer.pressed = ButtonNone
	if !cs.pointer.inTitlebar && cs.pointer.hover == ButtonNone {
		return false, nil
	}
	cs.pointer.inTitlebar = false
	cs.pointer.hover = ButtonNone
	if err := cs.redrawTop(); err != nil {
		return false, err
	}
	return true, nil
}

// PointerButton turns a left button press or release on the decorations
// into a window action. A titlebar press starts a move, a second press
// within the double-click interval toggles maximize. Buttons act on release
// over the button they were pressed on.
func (cs *ClientSet) PointerButton(surface platform.SurfaceID, x, y float64, button uint32, pressed bool, now time.Time) Action {
	if button != BtnLeft {
		return Action{}
	}
	h, ok := cs.HitTest(surface, x, y)
	if !ok {
		return Action{}
	}

	if !pressed {
		btn := cs.pointer.pressed
		cs.pointer.pressed = ButtonNone
		if btn == ButtonNone || btn != h.Button {
			return Action{}
		}
		switch btn {
		case ButtonClose:
			return Action{Kind: ActionClose}
		case ButtonMaximize:
			return Action{Kind: ActionToggleMaximize}
		case ButtonMinimize:
			return Action{Kind: ActionMinimize}
		}
		return Action{}
	}

	switch {
	case h.Button != ButtonNone:
		cs.pointer.pressed = h.Button
		return Action{}
	case h.Titlebar:
		interval := cs.renderer.Style().DoubleClickInterval
		if !cs.pointer.lastPress.IsZero() && now.Sub(cs.pointer.lastPress) <= interval {
			cs.pointer.lastPress = time.Time{}
			return Action{Kind: ActionToggleMaximize}
		}
		cs.pointer.lastPress = now
		return Action{Kind: ActionMove}
	case h.Edges != platform.EdgeNone:
		return Action{Kind: ActionResize, Edges: h.Edges}
	}
	return Action{}
}
