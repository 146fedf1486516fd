//go:build !linux
// +build !linux

package memory

// MmapAllocator falls back to the Go heap where anonymous mappings are not
// available.
type MmapAllocator struct{}

func (MmapAllocator) Allocate(size int) (*Memory, error) {
	return HeapAllocator{}.Allocate(size)
}
