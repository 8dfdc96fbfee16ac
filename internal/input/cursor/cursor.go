// Package cursor defines pointer cursor shapes and the themes that provide
// their images.
package cursor

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/wlframe/internal/platform"
)

// Shape is a standard pointer cursor shape.
type Shape int

const (
	ShapeDefault Shape = iota
	ShapeText
	ShapePointer
	ShapeCrosshair
	ShapeMove
	ShapeNotAllowed
	ShapeWait
	ShapeProgress
	ShapeResizeN
	ShapeResizeS
	ShapeResizeE
	ShapeResizeW
	ShapeResizeNE
	ShapeResizeNW
	ShapeResizeSE
	ShapeResizeSW
)

var shapeNames = []struct {
	shape Shape
	name  string
	theme string
}{
	{ShapeDefault, "default", "left_ptr"},
	{ShapeText, "text", "xterm"},
	{ShapePointer, "pointer", "hand2"},
	{ShapeCrosshair, "crosshair", "crosshair"},
	{ShapeMove, "move", "fleur"},
	{ShapeNotAllowed, "not-allowed", "crossed_circle"},
	{ShapeWait, "wait", "watch"},
	{ShapeProgress, "progress", "left_ptr_watch"},
	{ShapeResizeN, "n-resize", "top_side"},
	{ShapeResizeS, "s-resize", "bottom_side"},
	{ShapeResizeE, "e-resize", "right_side"},
	{ShapeResizeW, "w-resize", "left_side"},
	{ShapeResizeNE, "ne-resize", "top_right_corner"},
	{ShapeResizeNW, "nw-resize", "top_left_corner"},
	{ShapeResizeSE, "se-resize", "bottom_right_corner"},
	{ShapeResizeSW, "sw-resize", "bottom_left_corner"},
}

// String returns the CSS-style shape name.
func (s Shape) String() string {
	for _, n := range shapeNames {
		if n.shape == s {
			return n.name
		}
	}
	return "unknown"
}

// ThemeName returns the name of the shape in an xcursor theme.
func (s Shape) ThemeName() string {
	for _, n := range shapeNames {
		if n.shape == s {
			return n.theme
		}
	}
	return "left_ptr"
}

// ParseShape accepts both CSS-style and theme names.
func ParseShape(s string) (Shape, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, n := range shapeNames {
		if n.name == v || n.theme == v {
			return n.shape, nil
		}
	}
	return ShapeDefault, fmt.Errorf("unknown cursor shape %q", s)
}

// ResizeShape returns the cursor shape for an interactive resize along edges.
func ResizeShape(edges platform.Edges) Shape {
	switch edges {
	case platform.EdgeTop:
		return ShapeResizeN
	case platform.EdgeBottom:
		return ShapeResizeS
	case platform.EdgeLeft:
		return ShapeResizeW
	case platform.EdgeRight:
		return ShapeResizeE
	case platform.EdgeTop | platform.EdgeLeft:
		return ShapeResizeNW
	case platform.EdgeTop | platform.EdgeRight:
		return ShapeResizeNE
	case platform.EdgeBottom | platform.EdgeLeft:
		return ShapeResizeSW
	case platform.EdgeBottom | platform.EdgeRight:
		return ShapeResizeSE
	default:
		return ShapeDefault
	}
}

// Image is one frame of a cursor, uploaded to a compositor buffer.
type Image struct {
	Width    int
	Height   int
	HotspotX int
	HotspotY int
	Delay    time.Duration
	Buffer   platform.BufferID
}

// Cursor is a loaded cursor. It is shared between windows and owned by the
// theme that loaded it.
type Cursor struct {
	Shape  Shape
	Size   int
	Images []Image
}

// Animated reports whether the cursor has more than one frame.
func (c *Cursor) Animated() bool {
	return c != nil && len(c.Images) > 1
}

// Frame returns frame i, wrapping around the frame count.
func (c *Cursor) Frame(i int) Image {
	if c == nil || len(c.Images) == 0 {
		return Image{}
	}
	n := len(c.Images)
	return c.Images[((i%n)+n)%n]
}

// Theme loads cursors by shape and pixel size.
type Theme interface {
	Load(shape Shape, size int) (*Cursor, error)
}
