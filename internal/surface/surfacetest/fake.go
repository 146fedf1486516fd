// Package surfacetest provides an in-memory surface.Surface with fault
// injection and disposition accounting, for tests.
package surfacetest

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

var ErrInjected = errors.New("injected failure")

type bufferState int

const (
	stateFree bufferState = iota
	stateDequeued
	stateLocked
)

type buffer struct {
	id    int
	state bufferState
	data  []byte
}

// Fake is a surface.Surface backed by plain byte slices. Failure hooks are
// consulted on every call; returning true makes the call fail with
// ErrInjected.
type Fake struct {
	MinUndequeued int
	// Stride in pixels reported by Dequeue. Zero means the configured width.
	Stride int
	// Fill is written into every buffer when geometry is set, so tests can
	// tell untouched padding from converted pixels.
	Fill byte

	FailDequeue func(n int) bool
	FailLock    func(n int) bool
	FailEnqueue func(n int) bool

	mu sync.Mutex

	BufferCount   int
	Usage         surface.Usage
	Width, Height int
	Format        pixfmt.Format

	buffers []*buffer
	next    int

	Dequeues, Locks, Unlocks, Enqueues, Cancels int

	// Successful dequeues.
	Acquired int

	// Disposition per dequeue, in order: "enqueued" or "cancelled".
	Dispositions []string

	// Contents of each enqueued buffer.
	Frames [][]byte

	// Problems records protocol violations such as double disposal.
	Problems []string
}

func (f *Fake) stride() int {
	if f.Stride > 0 {
		return f.Stride
	}
	return f.Width
}

func (f *Fake) get(h surface.Handle) *buffer {
	b, ok := h.(*buffer)
	if !ok {
		f.Problems = append(f.Problems, fmt.Sprintf("foreign handle %v", h))
		return nil
	}
	return b
}

func (f *Fake) Dequeue() (surface.Handle, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.Dequeues
	f.Dequeues++
	if f.FailDequeue != nil && f.FailDequeue(n) {
		return nil, 0, ErrInjected
	}
	for i := 0; i < len(f.buffers); i++ {
		b := f.buffers[(f.next+i)%len(f.buffers)]
		if b.state == stateFree {
			f.next = (f.next + i + 1) % len(f.buffers)
			b.state = stateDequeued
			f.Acquired++
			return b, f.stride(), nil
		}
	}
	return nil, 0, errors.New("no free buffers")
}

func (f *Fake) Lock(h surface.Handle, usage surface.Usage, rect surface.Rect) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.Locks
	f.Locks++
	b := f.get(h)
	if b == nil {
		return nil, errors.New("bad handle")
	}
	if f.FailLock != nil && f.FailLock(n) {
		return nil, ErrInjected
	}
	if b.state != stateDequeued {
		f.Problems = append(f.Problems, fmt.Sprintf("lock of buffer %d in state %d", b.id, b.state))
	}
	if rect.Width != f.Width || rect.Height != f.Height {
		f.Problems = append(f.Problems, fmt.Sprintf("lock rect %+v for %dx%d surface", rect, f.Width, f.Height))
	}
	b.state = stateLocked
	return b.data, nil
}

func (f *Fake) Unlock(h surface.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Unlocks++
	if b := f.get(h); b != nil && b.state == stateLocked {
		b.state = stateDequeued
	}
	return nil
}

func (f *Fake) dispose(h surface.Handle, how string) *buffer {
	b := f.get(h)
	if b == nil {
		return nil
	}
	switch b.state {
	case stateFree:
		f.Problems = append(f.Problems, fmt.Sprintf("buffer %d %s twice", b.id, how))
	case stateLocked:
		f.Problems = append(f.Problems, fmt.Sprintf("buffer %d %s while locked", b.id, how))
	}
	b.state = stateFree
	f.Dispositions = append(f.Dispositions, how)
	return b
}

func (f *Fake) Enqueue(h surface.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.Enqueues
	f.Enqueues++
	b := f.dispose(h, "enqueued")
	if f.FailEnqueue != nil && f.FailEnqueue(n) {
		return ErrInjected
	}
	if b != nil {
		f.Frames = append(f.Frames, append([]byte(nil), b.data...))
	}
	return nil
}

func (f *Fake) Cancel(h surface.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Cancels++
	f.dispose(h, "cancelled")
	return nil
}

func (f *Fake) SetBufferCount(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.BufferCount = n
	f.allocate()
	return nil
}

func (f *Fake) SetUsage(usage surface.Usage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Usage = usage
	return nil
}

func (f *Fake) SetGeometry(width, height int, format pixfmt.Format) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Width, f.Height, f.Format = width, height, format
	f.allocate()
	return nil
}

func (f *Fake) MinUndequeuedBuffers() (int, error) {
	return f.MinUndequeued, nil
}

func (f *Fake) allocate() {
	size := f.stride() * f.Height * 2
	f.buffers = f.buffers[:0]
	for i := 0; i < f.BufferCount; i++ {
		data := make([]byte, size)
		for j := range data {
			data[j] = f.Fill
		}
		f.buffers = append(f.buffers, &buffer{id: i, data: data})
	}
	f.next = 0
}

// Outstanding returns the number of buffers dequeued but not yet disposed.
func (f *Fake) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, b := range f.buffers {
		if b.state != stateFree {
			n++
		}
	}
	return n
}

// Count returns the number of dispositions of the given kind.
func (f *Fake) Count(how string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, d := range f.Dispositions {
		if d == how {
			n++
		}
	}
	return n
}
