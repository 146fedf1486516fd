package memory

// Broker copies driver frames into client memory and remembers the copies
// delivered as video frames. Only the in-flight registry is safe for
// concurrent use; callers serialize Copy and SetAllocator.
type Broker struct {
	alloc    Allocator
	inFlight *Registry
}

func NewBroker(alloc Allocator) *Broker {
	return &Broker{
		alloc:    alloc,
		inFlight: NewRegistry(),
	}
}

// SetAllocator replaces the allocator used for later copies. Memory already
// handed out keeps its own release function.
func (b *Broker) SetAllocator(alloc Allocator) {
	b.alloc = alloc
}

func (b *Broker) HasAllocator() bool {
	return b.alloc != nil
}

// Copy returns client memory holding exactly the bytes of frame, or nil if
// none could be allocated. Failures are logged and otherwise dropped.
func (b *Broker) Copy(frame []byte) *Memory {
	if b.alloc == nil {
		return nil
	}
	m, err := b.alloc.Allocate(len(frame))
	if err != nil || m == nil {
		log.Warn("could not allocate %d bytes of client memory: %v", len(frame), err)
		return nil
	}
	if m.Len() != len(frame) {
		log.Warn("allocator returned %d bytes, want %d", m.Len(), len(frame))
		m.Release()
		return nil
	}
	copy(m.Bytes(), frame)
	return m
}

// Track registers m as an in-flight video frame.
func (b *Broker) Track(m *Memory) {
	b.inFlight.Add(m)
}

// Return releases the in-flight frame the client handed back.
func (b *Broker) Return(data []byte) bool {
	ok := b.inFlight.Release(data)
	if !ok {
		log.Debug("returned frame %p not in flight", key(data))
	}
	return ok
}

// ReleaseAll releases every in-flight video frame.
func (b *Broker) ReleaseAll() int {
	n := b.inFlight.Drain()
	if n > 0 {
		log.Debug("released %d stale video frames", n)
	}
	return n
}

func (b *Broker) InFlight() int {
	return b.inFlight.Len()
}
