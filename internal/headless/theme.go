package headless

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/1broseidon/wlframe/internal/input/cursor"
	"github.com/1broseidon/wlframe/internal/shm"
)

// waitFrames is the number of frames of the generated busy cursor.
const waitFrames = 8

// NewCursorTheme generates a small cursor theme: an arrow for static shapes
// and an animated spinner for the wait and progress shapes.
func NewCursorTheme(factory shm.BufferFactory, alloc shm.Allocator, size int) *cursor.ImageTheme {
	if size <= 0 {
		size = 24
	}
	theme := cursor.NewImageTheme(factory, alloc, size)
	arrow := []cursor.Frame{{Image: drawArrow(size), Hotspot: image.Pt(1, 1)}}
	theme.Register(cursor.ShapeDefault, arrow)

	var spinner []cursor.Frame
	for i := 0; i < waitFrames; i++ {
		spinner = append(spinner, cursor.Frame{
			Image:   drawSpinner(size, i),
			Hotspot: image.Pt(size/2, size/2),
			Delay:   60 * time.Millisecond,
		})
	}
	theme.Register(cursor.ShapeWait, spinner)
	theme.Register(cursor.ShapeProgress, spinner)
	return theme
}

func drawArrow(size int) image.Image {
	s := float64(size)
	dc := gg.NewContext(size, size)
	dc.MoveTo(1, 1)
	dc.LineTo(1, s*0.8)
	dc.LineTo(s*0.3, s*0.6)
	dc.LineTo(s*0.6, s*0.6)
	dc.ClosePath()
	dc.SetColor(color.Black)
	dc.FillPreserve()
	dc.SetColor(color.White)
	dc.SetLineWidth(1)
	dc.Stroke()
	return dc.Image()
}

func drawSpinner(size, frame int) image.Image {
	s := float64(size)
	dc := gg.NewContext(size, size)
	start := float64(frame) * 2 * math.Pi / waitFrames
	dc.SetColor(color.Black)
	dc.SetLineWidth(s / 8)
	dc.DrawArc(s/2, s/2, s*0.35, start, start+1.5*math.Pi)
	dc.Stroke()
	return dc.Image()
}
