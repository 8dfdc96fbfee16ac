package cursor

import (
	"image"
	"image/color"
	"testing"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
)

type bufferRecorder struct {
	next  platform.BufferID
	specs map[platform.BufferID]platform.BufferSpec
}

func (r *bufferRecorder) CreateBuffer(spec platform.BufferSpec) (platform.BufferID, error) {
	if r.specs == nil {
		r.specs = make(map[platform.BufferID]platform.BufferSpec)
	}
	r.next++
	r.specs[r.next] = spec
	return r.next, nil
}

func (r *bufferRecorder) DestroyBuffer(id platform.BufferID) {
	delete(r.specs, id)
}

func square(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	return img
}

func TestImageTheme_ScalesForHiDPI(t *testing.T) {
	rec := &bufferRecorder{}
	theme := NewImageTheme(rec, shm.HeapAllocator{}, 24)
	theme.Register(ShapeDefault, []Frame{{Image: square(24), Hotspot: image.Pt(4, 2)}})

	c, err := theme.Load(ShapeDefault, 48)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	img := c.Frame(0)
	if img.Width != 48 || img.Height != 48 {
		t.Fatalf("expected 48x48, got %dx%d", img.Width, img.Height)
	}
	if img.HotspotX != 8 || img.HotspotY != 4 {
		t.Fatalf("expected hotspot scaled to 8,4, got %d,%d", img.HotspotX, img.HotspotY)
	}
	if rec.specs[img.Buffer].Stride != 48*4 {
		t.Fatalf("unexpected stride %d", rec.specs[img.Buffer].Stride)
	}

	again, err := theme.Load(ShapeDefault, 48)
	if err != nil || again != c {
		t.Fatalf("expected cached cursor")
	}
	theme.Close()
	if len(rec.specs) != 0 {
		t.Fatalf("expected buffers destroyed on close, %d left", len(rec.specs))
	}
}

func TestImageTheme_FallsBackToDefault(t *testing.T) {
	theme := NewImageTheme(&bufferRecorder{}, shm.HeapAllocator{}, 16)
	if _, err := theme.Load(ShapeText, 16); err == nil {
		t.Fatalf("expected error with an empty theme")
	}
	theme.Register(ShapeDefault, []Frame{{Image: square(16)}})
	c, err := theme.Load(ShapeText, 16)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Shape != ShapeText || len(c.Images) != 1 {
		t.Fatalf("unexpected fallback cursor %+v", c)
	}
}

func TestResizeShape(t *testing.T) {
	tests := []struct {
		edges platform.Edges
		want  Shape
	}{
		{platform.EdgeTop, ShapeResizeN},
		{platform.EdgeBottom | platform.EdgeRight, ShapeResizeSE},
		{platform.EdgeTop | platform.EdgeLeft, ShapeResizeNW},
		{platform.EdgeNone, ShapeDefault},
	}
	for _, tt := range tests {
		if got := ResizeShape(tt.edges); got != tt.want {
			t.Errorf("ResizeShape(%d) = %v, want %v", tt.edges, got, tt.want)
		}
	}
}

func TestParseShape(t *testing.T) {
	for _, name := range []string{"nw-resize", "top_left_corner"} {
		s, err := ParseShape(name)
		if err != nil || s != ShapeResizeNW {
			t.Fatalf("ParseShape(%q) = %v, %v", name, s, err)
		}
	}
	if _, err := ParseShape("spinner"); err == nil {
		t.Fatalf("expected error")
	}
}
