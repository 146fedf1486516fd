package memory

// Allocator provides client-visible memory. It stands in for the
// application's memory request callback.
type Allocator interface {
	Allocate(size int) (*Memory, error)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(size int) (*Memory, error)

func (f AllocatorFunc) Allocate(size int) (*Memory, error) {
	return f(size)
}

// HeapAllocator allocates from the Go heap.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(size int) (*Memory, error) {
	return New(make([]byte, size), nil), nil
}
