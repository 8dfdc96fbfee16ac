package cursor

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/shm"
)

// Frame is a source image of a cursor at the theme's base size.
type Frame struct {
	Image   image.Image
	Hotspot image.Point
	Delay   time.Duration
}

type cacheKey struct {
	shape Shape
	size  int
}

// ImageTheme serves cursors from in-memory images drawn at a base size.
// Other sizes are produced by resampling the base frames.
type ImageTheme struct {
	factory  shm.BufferFactory
	alloc    shm.Allocator
	baseSize int

	sources  map[Shape][]Frame
	cache    map[cacheKey]*Cursor
	backings []shm.Backing
}

// NewImageTheme creates an empty theme whose images are drawn for baseSize.
func NewImageTheme(factory shm.BufferFactory, alloc shm.Allocator, baseSize int) *ImageTheme {
	if baseSize <= 0 {
		baseSize = 24
	}
	return &ImageTheme{
		factory:  factory,
		alloc:    alloc,
		baseSize: baseSize,
		sources:  make(map[Shape][]Frame),
		cache:    make(map[cacheKey]*Cursor),
	}
}

// Register sets the frames of a shape.
func (t *ImageTheme) Register(shape Shape, frames []Frame) {
	t.sources[shape] = frames
	for k := range t.cache {
		if k.shape == shape {
			delete(t.cache, k)
		}
	}
}

// Load returns the cursor for shape at size, uploading its frames on first
// use. Unknown shapes fall back to the default arrow.
func (t *ImageTheme) Load(shape Shape, size int) (*Cursor, error) {
	if size <= 0 {
		size = t.baseSize
	}
	key := cacheKey{shape: shape, size: size}
	if c, ok := t.cache[key]; ok {
		return c, nil
	}
	frames, ok := t.sources[shape]
	if !ok {
		frames, ok = t.sources[ShapeDefault]
		if !ok {
			return nil, fmt.Errorf("cursor %s not in theme", shape)
		}
	}

	c := &Cursor{Shape: shape, Size: size}
	for i, f := range frames {
		img, err := t.upload(f, size)
		if err != nil {
			return nil, fmt.Errorf("upload %s frame %d: %w", shape, i, err)
		}
		c.Images = append(c.Images, img)
	}
	t.cache[key] = c
	return c, nil
}

func (t *ImageTheme) upload(f Frame, size int) (Image, error) {
	src := f.Image
	hot := f.Hotspot
	if size != t.baseSize {
		b := src.Bounds()
		w := max(1, b.Dx()*size/t.baseSize)
		h := max(1, b.Dy()*size/t.baseSize)
		src = imaging.Resize(src, w, h, imaging.Lanczos)
		hot = image.Pt(hot.X*size/t.baseSize, hot.Y*size/t.baseSize)
	}

	b := src.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	stride := b.Dx() * shm.BytesPerPixel
	backing, err := t.alloc.Allocate(stride * b.Dy())
	if err != nil {
		return Image{}, err
	}
	shm.PutARGB(backing.Bytes(), rgba)

	id, err := t.factory.CreateBuffer(platform.BufferSpec{
		FD:     backing.FD(),
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: stride,
		Format: platform.FormatARGB8888,
	})
	if err != nil {
		backing.Close()
		return Image{}, err
	}
	t.backings = append(t.backings, backing)
	return Image{
		Width:    b.Dx(),
		Height:   b.Dy(),
		HotspotX: hot.X,
		HotspotY: hot.Y,
		Delay:    f.Delay,
		Buffer:   id,
	}, nil
}

// Close destroys every uploaded buffer.
func (t *ImageTheme) Close() {
	for _, c := range t.cache {
		for _, img := range c.Images {
			t.factory.DestroyBuffer(img.Buffer)
		}
	}
	for _, b := range t.backings {
		b.Close()
	}
	t.cache = make(map[cacheKey]*Cursor)
	t.backings = nil
}
