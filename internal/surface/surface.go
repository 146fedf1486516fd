package surface

import (
	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/pixfmt"
)

var log = logging.DefaultLogger.WithTag("surface")

// Usage flags passed to SetUsage and Lock.
type Usage uint32

const (
	UsageSWReadOften  Usage = 0x00000003
	UsageSWWriteOften Usage = 0x00000030
)

// Handle identifies a graphics buffer owned by a Surface. Its value is
// meaningful only to the Surface that produced it.
type Handle interface{}

// Rect is the region of a buffer to map for CPU access.
type Rect struct {
	Left, Top, Width, Height int
}

// Surface is the consumer side of a graphics buffer queue, such as a display
// window. Every handle returned by Dequeue must be passed to exactly one of
// Enqueue or Cancel.
type Surface interface {
	// Dequeue obtains a free buffer and its row stride in pixels.
	Dequeue() (Handle, int, error)

	// Lock maps the buffer for CPU access and returns its memory.
	Lock(h Handle, usage Usage, rect Rect) ([]byte, error)
	Unlock(h Handle) error

	// Enqueue hands the buffer to the consumer for display.
	Enqueue(h Handle) error

	// Cancel returns the buffer unused.
	Cancel(h Handle) error

	SetBufferCount(n int) error
	SetUsage(usage Usage) error
	SetGeometry(width, height int, format pixfmt.Format) error
	MinUndequeuedBuffers() (int, error)
}
