//go:build !linux

package shm

// DefaultAllocator returns the allocator used for compositor buffers.
func DefaultAllocator() Allocator {
	return HeapAllocator{}
}
