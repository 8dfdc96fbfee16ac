package shm

// Backing is a block of pixel memory the compositor can map.
type Backing interface {
	Bytes() []byte
	// FD returns the file descriptor shared with the compositor, or -1.
	FD() int
	Close() error
}

// Allocator creates backings of a given size in bytes.
type Allocator interface {
	Allocate(size int) (Backing, error)
}

// HeapAllocator allocates plain Go memory. It has no file descriptor and is
// used by the headless compositor and in tests.
type HeapAllocator struct{}

type heapBacking struct {
	data []byte
}

// Allocate returns a zeroed heap backing.
func (HeapAllocator) Allocate(size int) (Backing, error) {
	return &heapBacking{data: make([]byte, size)}, nil
}

func (b *heapBacking) Bytes() []byte { return b.data }
func (b *heapBacking) FD() int       { return -1 }
func (b *heapBacking) Close() error {
	b.data = nil
	return nil
}
