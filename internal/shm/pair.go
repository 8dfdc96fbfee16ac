package shm

import (
	"errors"
	"fmt"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// BytesPerPixel is the size of one ARGB8888 pixel.
const BytesPerPixel = 4

// ErrBackBusy is returned when the back buffer is still owned by the
// compositor and must not be drawn into.
var ErrBackBusy = errors.New("back buffer still owned by compositor")

// BufferFactory is the part of the compositor a BufferPair needs.
type BufferFactory interface {
	CreateBuffer(spec platform.BufferSpec) (platform.BufferID, error)
	DestroyBuffer(buffer platform.BufferID)
}

// pool is one backing shared by the two buffers of an allocation. It is
// closed when its last buffer is destroyed.
type pool struct {
	backing Backing
	live    int
}

func (p *pool) unref() {
	p.live--
	if p.live == 0 && p.backing != nil {
		p.backing.Close()
		p.backing = nil
	}
}

type buffer struct {
	id     platform.BufferID
	pool   *pool
	offset int
	size   int

	// busy is set from attach until the compositor releases the buffer.
	busy         bool
	needsDestroy bool
	destroyed    bool

	// shadow is the retired buffer object over the same memory region, set
	// when a same-size resize recreated the buffer objects.
	shadow *buffer
}

// holder returns the buffer object through which the compositor may still
// read this memory region, or nil.
func (b *buffer) holder() *buffer {
	if b.busy {
		return b
	}
	if b.shadow != nil && !b.shadow.destroyed && b.shadow.busy {
		return b.shadow
	}
	return nil
}

func (b *buffer) held() bool {
	return b.holder() != nil
}

func (b *buffer) data() []byte {
	if b.pool == nil || b.pool.backing == nil {
		return nil
	}
	return b.pool.backing.Bytes()[b.offset : b.offset+b.size]
}

// BufferPair is a double-buffered shared-memory surface content. Drawing goes
// to the back buffer; Swap exchanges front and back once per frame; Attach
// hands the front buffer to the compositor.
type BufferPair struct {
	factory BufferFactory
	alloc   Allocator
	tracker *Tracker

	a, b        *buffer
	front, back *buffer
	retired     []*buffer

	HasPendingUpdate bool

	Width  int
	Height int
	Stride int
	Size   int
}

// NewBufferPair creates an empty pair. Buffers are allocated by Resize.
func NewBufferPair(factory BufferFactory, alloc Allocator, tracker *Tracker) *BufferPair {
	return &BufferPair{factory: factory, alloc: alloc, tracker: tracker}
}

// Allocated reports whether the pair currently holds buffers.
func (p *BufferPair) Allocated() bool {
	return p.a != nil
}

// Retired returns the number of buffers waiting for a release before they
// can be destroyed.
func (p *BufferPair) Retired() int {
	return len(p.retired)
}

// Resize sets the pixel geometry. The backing is reallocated only when the
// byte size changes; same-size changes recreate the buffer objects over the
// existing memory. A zero dimension releases the buffers. The returned flag
// reports whether new memory was allocated.
func (p *BufferPair) Resize(width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		p.retireAll()
		p.Width, p.Height, p.Stride, p.Size = 0, 0, 0, 0
		p.HasPendingUpdate = false
		return false, nil
	}

	stride := width * BytesPerPixel
	size := stride * height
	if p.a != nil && width == p.Width && height == p.Height {
		return false, nil
	}

	if p.a != nil && size == p.Size {
		if err := p.recreateSameSize(width, height, stride); err != nil {
			return false, err
		}
		return false, nil
	}

	p.retireAll()
	backing, err := p.alloc.Allocate(size * 2)
	if err != nil {
		return false, fmt.Errorf("allocate %dx%d buffer pair: %w", width, height, err)
	}
	pl := &pool{backing: backing}
	a, err := p.createBuffer(pl, 0, width, height, stride, size)
	if err != nil {
		backing.Close()
		return false, err
	}
	b, err := p.createBuffer(pl, size, width, height, stride, size)
	if err != nil {
		p.destroy(a)
		return false, err
	}

	p.a, p.b = a, b
	p.front, p.back = a, b
	p.Width, p.Height, p.Stride, p.Size = width, height, stride, size
	p.HasPendingUpdate = false
	return true, nil
}

// recreateSameSize replaces the buffer objects for new dimensions of the same
// byte size. Offsets keep their front/back role, so the back region is never
// one the compositor reads from.
func (p *BufferPair) recreateSameSize(width, height, stride int) error {
	oldFront, oldBack := p.front, p.back
	pl := oldFront.pool
	// Keep the pool alive while the old buffers are retired.
	pl.live++
	defer pl.unref()

	front, err := p.createBuffer(pl, oldFront.offset, width, height, stride, p.Size)
	if err != nil {
		return err
	}
	back, err := p.createBuffer(pl, oldBack.offset, width, height, stride, p.Size)
	if err != nil {
		p.destroy(front)
		return err
	}
	front.shadow = oldFront.holder()
	back.shadow = oldBack.holder()
	p.retire(oldFront)
	p.retire(oldBack)

	p.a, p.b = front, back
	p.front, p.back = front, back
	p.Width, p.Height, p.Stride = width, height, stride
	p.HasPendingUpdate = false
	return nil
}

func (p *BufferPair) createBuffer(pl *pool, offset, width, height, stride, size int) (*buffer, error) {
	fd := -1
	if pl.backing != nil {
		fd = pl.backing.FD()
	}
	id, err := p.factory.CreateBuffer(platform.BufferSpec{
		FD:     fd,
		Offset: offset,
		Width:  width,
		Height: height,
		Stride: stride,
		Format: platform.FormatARGB8888,
	})
	if err != nil {
		return nil, fmt.Errorf("create %dx%d buffer: %w", width, height, err)
	}
	pl.live++
	b := &buffer{id: id, pool: pl, offset: offset, size: size}
	if p.tracker != nil {
		p.tracker.register(id, p)
	}
	return b, nil
}

// retire destroys an idle buffer now and defers a busy one to its release.
func (p *BufferPair) retire(b *buffer) {
	if b == nil || b.destroyed {
		return
	}
	if b.busy {
		b.needsDestroy = true
		p.retired = append(p.retired, b)
		return
	}
	p.destroy(b)
}

func (p *BufferPair) retireAll() {
	p.retire(p.a)
	p.retire(p.b)
	p.a, p.b, p.front, p.back = nil, nil, nil, nil
}

func (p *BufferPair) destroy(b *buffer) {
	if b.destroyed {
		return
	}
	b.destroyed = true
	p.factory.DestroyBuffer(b.id)
	if p.tracker != nil {
		p.tracker.unregister(b.id)
	}
	b.pool.unref()
}

// Back returns the pixels of the back buffer for drawing.
func (p *BufferPair) Back() ([]byte, error) {
	if p.back == nil {
		return nil, fmt.Errorf("buffer pair not allocated")
	}
	if p.back.held() {
		return nil, ErrBackBusy
	}
	return p.back.data(), nil
}

// MarkDrawn records that the back buffer holds content not yet shown.
func (p *BufferPair) MarkDrawn() {
	p.HasPendingUpdate = true
}

// Swap exchanges front and back when an update is pending. It returns false
// when there was nothing to swap.
func (p *BufferPair) Swap() bool {
	if !p.HasPendingUpdate || p.front == nil {
		return false
	}
	p.front, p.back = p.back, p.front
	p.HasPendingUpdate = false
	return true
}

// FrontID returns the front buffer, or zero when unallocated.
func (p *BufferPair) FrontID() platform.BufferID {
	if p.front == nil {
		return 0
	}
	return p.front.id
}

// Attach marks the front buffer as owned by the compositor and returns it.
// A buffer marked for destruction never reaches the compositor.
func (p *BufferPair) Attach() (platform.BufferID, error) {
	if p.front == nil {
		return 0, fmt.Errorf("buffer pair not allocated")
	}
	if p.front.needsDestroy || p.front.destroyed {
		return 0, wlerr.Stale("attach buffer", wlerr.ErrBufferRetired)
	}
	p.front.busy = true
	return p.front.id, nil
}

// Release handles the compositor's release event for id. It reports whether
// the buffer belonged to this pair.
func (p *BufferPair) Release(id platform.BufferID) bool {
	for i, b := range p.retired {
		if b.id != id {
			continue
		}
		b.busy = false
		p.retired = append(p.retired[:i], p.retired[i+1:]...)
		p.destroy(b)
		return true
	}
	for _, b := range []*buffer{p.a, p.b} {
		if b != nil && b.id == id {
			b.busy = false
			return true
		}
	}
	return false
}

// Destroy releases both buffers. Buffers still owned by the compositor are
// destroyed when their release arrives.
func (p *BufferPair) Destroy() {
	p.retireAll()
	p.Width, p.Height, p.Stride, p.Size = 0, 0, 0, 0
	p.HasPendingUpdate = false
}

// BackBusy reports whether the back buffer is owned by the compositor.
func (p *BufferPair) BackBusy() bool {
	return p.back != nil && p.back.held()
}
