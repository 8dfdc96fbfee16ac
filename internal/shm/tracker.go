package shm

import "github.com/1broseidon/wlframe/internal/platform"

// Tracker routes buffer release events to the pair that owns the buffer.
type Tracker struct {
	owners map[platform.BufferID]*BufferPair
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{owners: make(map[platform.BufferID]*BufferPair)}
}

func (t *Tracker) register(id platform.BufferID, p *BufferPair) {
	t.owners[id] = p
}

func (t *Tracker) unregister(id platform.BufferID) {
	delete(t.owners, id)
}

// Release delivers a release event. It returns the owning pair, or nil for
// buffers this tracker does not know, such as cursor theme buffers.
func (t *Tracker) Release(id platform.BufferID) *BufferPair {
	p, ok := t.owners[id]
	if !ok {
		return nil
	}
	p.Release(id)
	return p
}

// Len returns the number of live tracked buffers.
func (t *Tracker) Len() int {
	return len(t.owners)
}
