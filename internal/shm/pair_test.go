package shm

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/1broseidon/wlframe/internal/platform"
	"github.com/1broseidon/wlframe/internal/wlerr"
)

// fakeFactory records buffer objects and which of them the compositor holds.
type fakeFactory struct {
	t        *testing.T
	next     platform.BufferID
	live     map[platform.BufferID]platform.BufferSpec
	held     map[platform.BufferID]bool
	created  int
	violated bool
}

func newFakeFactory(t *testing.T) *fakeFactory {
	return &fakeFactory{
		t:    t,
		live: make(map[platform.BufferID]platform.BufferSpec),
		held: make(map[platform.BufferID]bool),
	}
}

func (f *fakeFactory) CreateBuffer(spec platform.BufferSpec) (platform.BufferID, error) {
	f.next++
	f.created++
	f.live[f.next] = spec
	return f.next, nil
}

func (f *fakeFactory) DestroyBuffer(id platform.BufferID) {
	if f.held[id] {
		f.violated = true
		f.t.Errorf("buffer %d destroyed while held by compositor", id)
	}
	if _, ok := f.live[id]; !ok {
		f.t.Errorf("buffer %d destroyed twice", id)
	}
	delete(f.live, id)
}

// present attaches the front buffer as the compositor would see it.
func (f *fakeFactory) present(p *BufferPair) (platform.BufferID, error) {
	id, err := p.Attach()
	if err != nil {
		return 0, err
	}
	if _, ok := f.live[id]; !ok {
		f.t.Fatalf("attached buffer %d is not live", id)
	}
	f.held[id] = true
	return id, nil
}

func (f *fakeFactory) release(tr *Tracker, id platform.BufferID) {
	delete(f.held, id)
	tr.Release(id)
}

type countingAllocator struct {
	HeapAllocator
	calls int
}

func (a *countingAllocator) Allocate(size int) (Backing, error) {
	a.calls++
	return a.HeapAllocator.Allocate(size)
}

func TestResize_ReallocatesOnlyOnByteSizeChange(t *testing.T) {
	tests := []struct {
		name        string
		from        [2]int
		to          [2]int
		wantRealloc bool
		wantCreated int
	}{
		{"same dimensions", [2]int{800, 10}, [2]int{800, 10}, false, 2},
		{"same byte size", [2]int{800, 10}, [2]int{400, 20}, false, 4},
		{"grow", [2]int{800, 10}, [2]int{900, 10}, true, 4},
		{"shrink", [2]int{800, 10}, [2]int{800, 5}, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFactory(t)
			alloc := &countingAllocator{}
			p := NewBufferPair(f, alloc, NewTracker())
			realloc, err := p.Resize(tt.from[0], tt.from[1])
			if err != nil || !realloc {
				t.Fatalf("initial resize: realloc=%v err=%v", realloc, err)
			}
			realloc, err = p.Resize(tt.to[0], tt.to[1])
			if err != nil {
				t.Fatalf("resize: %v", err)
			}
			if realloc != tt.wantRealloc {
				t.Fatalf("realloc = %v, want %v", realloc, tt.wantRealloc)
			}
			if f.created != tt.wantCreated {
				t.Fatalf("created %d buffers, want %d", f.created, tt.wantCreated)
			}
			if len(f.live) != 2 {
				t.Fatalf("expected 2 live buffers, got %d", len(f.live))
			}
			if p.Stride != tt.to[0]*BytesPerPixel || p.Size != p.Stride*tt.to[1] {
				t.Fatalf("unexpected geometry stride=%d size=%d", p.Stride, p.Size)
			}
		})
	}
}

func TestResize_BuffersShareOneBacking(t *testing.T) {
	f := newFakeFactory(t)
	alloc := &countingAllocator{}
	p := NewBufferPair(f, alloc, nil)
	if _, err := p.Resize(10, 10); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if alloc.calls != 1 {
		t.Fatalf("expected one allocation, got %d", alloc.calls)
	}
	var offsets []int
	for _, spec := range f.live {
		offsets = append(offsets, spec.Offset)
	}
	if len(offsets) != 2 || offsets[0]+offsets[1] != 400 {
		t.Fatalf("expected offsets 0 and 400, got %v", offsets)
	}
}

func TestSwap_OnlyWithPendingUpdate(t *testing.T) {
	f := newFakeFactory(t)
	p := NewBufferPair(f, HeapAllocator{}, nil)
	if _, err := p.Resize(4, 4); err != nil {
		t.Fatalf("resize: %v", err)
	}
	front := p.FrontID()
	if p.Swap() {
		t.Fatalf("swap without pending update should be a no-op")
	}
	p.MarkDrawn()
	if !p.Swap() {
		t.Fatalf("expected swap with pending update")
	}
	if p.FrontID() == front {
		t.Fatalf("front did not change")
	}
	if p.Swap() {
		t.Fatalf("second swap in the same frame should be a no-op")
	}
}

func TestBack_RefusedWhileBusy(t *testing.T) {
	f := newFakeFactory(t)
	tr := NewTracker()
	p := NewBufferPair(f, HeapAllocator{}, tr)
	if _, err := p.Resize(4, 4); err != nil {
		t.Fatalf("resize: %v", err)
	}
	first, err := f.present(p)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	p.MarkDrawn()
	p.Swap()
	if _, err := p.Back(); !errors.Is(err, ErrBackBusy) {
		t.Fatalf("expected ErrBackBusy, got %v", err)
	}
	f.release(tr, first)
	buf, err := p.Back()
	if err != nil {
		t.Fatalf("back after release: %v", err)
	}
	if len(buf) != 4*4*BytesPerPixel {
		t.Fatalf("unexpected back size %d", len(buf))
	}
}

func TestResize_RetiresBusyBufferUntilRelease(t *testing.T) {
	f := newFakeFactory(t)
	tr := NewTracker()
	p := NewBufferPair(f, HeapAllocator{}, tr)
	if _, err := p.Resize(10, 10); err != nil {
		t.Fatalf("resize: %v", err)
	}
	held, err := f.present(p)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if _, err := p.Resize(20, 20); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if _, ok := f.live[held]; !ok {
		t.Fatalf("busy buffer destroyed before release")
	}
	if p.Retired() != 1 {
		t.Fatalf("expected 1 retired buffer, got %d", p.Retired())
	}
	if len(f.live) != 3 {
		t.Fatalf("expected 3 live buffers (1 retired + 2 new), got %d", len(f.live))
	}

	f.release(tr, held)
	if _, ok := f.live[held]; ok {
		t.Fatalf("retired buffer not destroyed on release")
	}
	if p.Retired() != 0 {
		t.Fatalf("expected no retired buffers, got %d", p.Retired())
	}
}

func TestAttach_RetiredBufferIsStale(t *testing.T) {
	f := newFakeFactory(t)
	p := NewBufferPair(f, HeapAllocator{}, nil)
	if _, err := p.Resize(2, 2); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if _, err := p.Attach(); err != nil {
		t.Fatalf("attach: %v", err)
	}
	// Simulate a caller holding on to the old front after retirement.
	p.front.needsDestroy = true
	_, err := p.Attach()
	if !wlerr.Is(err, wlerr.KindStale) {
		t.Fatalf("expected stale error, got %v", err)
	}
	if !errors.Is(err, wlerr.ErrBufferRetired) {
		t.Fatalf("expected ErrBufferRetired, got %v", err)
	}
	if wlerr.StackTrace(err) == "" {
		t.Fatalf("expected stack trace on stale error")
	}
}

func TestDestroy_DefersBusyBuffers(t *testing.T) {
	f := newFakeFactory(t)
	tr := NewTracker()
	p := NewBufferPair(f, HeapAllocator{}, tr)
	if _, err := p.Resize(3, 3); err != nil {
		t.Fatalf("resize: %v", err)
	}
	held, err := f.present(p)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	p.Destroy()
	if len(f.live) != 1 {
		t.Fatalf("expected only the busy buffer to survive, got %d", len(f.live))
	}
	if tr.Len() != 1 {
		t.Fatalf("expected tracker to keep the busy buffer, got %d", tr.Len())
	}
	f.release(tr, held)
	if len(f.live) != 0 || tr.Len() != 0 {
		t.Fatalf("expected everything destroyed, live=%d tracked=%d", len(f.live), tr.Len())
	}
}

func TestTracker_IgnoresUnknownBuffers(t *testing.T) {
	tr := NewTracker()
	if p := tr.Release(99); p != nil {
		t.Fatalf("expected nil pair for unknown buffer")
	}
}

// Random interleavings of resize, draw, swap, attach and release must never
// destroy a buffer the compositor still holds.
func TestBufferPair_ReleaseAlwaysPrecedesFree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := newFakeFactory(t)
	tr := NewTracker()
	p := NewBufferPair(f, HeapAllocator{}, tr)
	if _, err := p.Resize(8, 8); err != nil {
		t.Fatalf("resize: %v", err)
	}

	sizes := [][2]int{{8, 8}, {16, 4}, {4, 16}, {12, 12}, {1, 1}, {0, 0}}
	for step := 0; step < 2000; step++ {
		switch rng.Intn(5) {
		case 0:
			s := sizes[rng.Intn(len(sizes))]
			if _, err := p.Resize(s[0], s[1]); err != nil {
				t.Fatalf("step %d: resize: %v", step, err)
			}
		case 1:
			if _, err := p.Back(); err == nil {
				p.MarkDrawn()
			}
		case 2:
			if !p.BackBusy() {
				p.Swap()
			}
		case 3:
			if p.Allocated() {
				if _, err := f.present(p); err != nil {
					t.Fatalf("step %d: attach: %v", step, err)
				}
			}
		case 4:
			for id := range f.held {
				f.release(tr, id)
				break
			}
		}
		if f.violated {
			t.Fatalf("step %d: release-before-free violated", step)
		}
	}

	for id := range f.held {
		f.release(tr, id)
	}
	p.Destroy()
	if len(f.live) != 0 {
		t.Fatalf("expected all buffers destroyed, %d left", len(f.live))
	}
}
