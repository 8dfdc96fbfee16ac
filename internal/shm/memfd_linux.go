//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MemfdAllocator allocates anonymous memfd-backed shared memory mapped into
// this process.
type MemfdAllocator struct {
	Name string
}

type memfdBacking struct {
	fd   int
	data []byte
}

// DefaultAllocator returns the allocator used for compositor buffers.
func DefaultAllocator() Allocator {
	return MemfdAllocator{Name: "wlframe-shm"}
}

// Allocate creates a memfd of size bytes and maps it read-write.
func (a MemfdAllocator) Allocate(size int) (Backing, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid shm size %d", size)
	}
	name := a.Name
	if name == "" {
		name = "wlframe-shm"
	}
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ftruncate shm to %d bytes: %w", size, err)
	}
	// The compositor maps the same fd; shrinking it later would fault there.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("seal shm: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap shm: %w", err)
	}
	return &memfdBacking{fd: fd, data: data}, nil
}

func (b *memfdBacking) Bytes() []byte { return b.data }
func (b *memfdBacking) FD() int       { return b.fd }

func (b *memfdBacking) Close() error {
	var firstErr error
	if b.data != nil {
		if err := unix.Munmap(b.data); err != nil {
			firstErr = fmt.Errorf("munmap shm: %w", err)
		}
		b.data = nil
	}
	if b.fd >= 0 {
		if err := unix.Close(b.fd); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close shm fd: %w", err)
		}
		b.fd = -1
	}
	return firstErr
}
