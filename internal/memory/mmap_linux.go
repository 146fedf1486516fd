package memory

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MmapAllocator hands out anonymous shared mappings, so frames can be passed
// to another process without a copy.
type MmapAllocator struct{}

func (MmapAllocator) Allocate(size int) (*Memory, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrAllocation, "size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(ErrAllocation, "mmap %d bytes: %v", size, err)
	}
	return New(data, func(b []byte) {
		if err := unix.Munmap(b); err != nil {
			log.Warn("munmap: %v", err)
		}
	}), nil
}
