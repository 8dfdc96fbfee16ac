package decor

import (
	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
)

// Side names one decoration edge.
type Side int

const (
	SideTop Side = iota
	SideLeft
	SideRight
	SideBottom
	sideCount
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Edge is one decoration strip: a sub-surface of the window's main surface
// with its own buffer pair.
type Edge struct {
	Side    Side
	Surface platform.SurfaceID
	Pair    *shm.BufferPair

	// Bounds is the strip relative to the main surface origin, in logical
	// units.
	Bounds platform.Rect

	// dirty is set when a redraw was refused because the back buffer was
	// still held by the compositor.
	dirty bool
	// attached is the buffer last attached, zero when hidden.
	attached platform.BufferID
}

// Layout returns the bounds of each edge for a content area of width x
// height. The top edge spans the titlebar and the top border including both
// corners; the bottom edge spans the bottom border and its corners.
func Layout(width, height int, m Metrics) [sideCount]platform.Rect {
	b := m.BorderWidth
	t := m.VisibleTitlebar()
	var r [sideCount]platform.Rect
	r[SideTop] = platform.Rect{X: -b, Y: -(t + b), Width: width + 2*b, Height: t + b}
	r[SideLeft] = platform.Rect{X: -b, Y: 0, Width: b, Height: height}
	r[SideRight] = platform.Rect{X: width, Y: 0, Width: b, Height: height}
	r[SideBottom] = platform.Rect{X: -b, Y: height, Width: width + 2*b, Height: b}
	return r
}

// WindowGeometry is the visible window extent relative to the main surface:
// content plus titlebar, without the resize borders.
func WindowGeometry(width, height int, m Metrics) platform.Rect {
	t := m.VisibleTitlebar()
	return platform.Rect{X: 0, Y: -t, Width: width, Height: height + t}
}
