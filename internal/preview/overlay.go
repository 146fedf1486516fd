package preview

import (
	"sync"

	"github.com/lanikai/camerahal/internal/pixfmt"
)

// Overlay is the sink handed to hardware that composites preview itself. It
// forwards each queued frame to a hook until destroyed.
type Overlay struct {
	width, height int
	format        pixfmt.Format

	// Readers are deliveries in progress.
	mu   sync.RWMutex
	hook func(frame []byte)
}

func NewOverlay(width, height int, format pixfmt.Format, hook func(frame []byte)) *Overlay {
	log.Debug("overlay created: %dx%d %v", width, height, format)
	return &Overlay{
		width:  width,
		height: height,
		format: format,
		hook:   hook,
	}
}

func (o *Overlay) Width() int            { return o.width }
func (o *Overlay) Height() int           { return o.height }
func (o *Overlay) Format() pixfmt.Format { return o.format }

// QueueBuffer delivers frame to the hook. Frames after Destroy are ignored.
func (o *Overlay) QueueBuffer(frame []byte) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.hook != nil {
		o.hook(frame)
	}
}

// Destroy waits for deliveries in progress and disconnects the hook. It may
// be called more than once.
func (o *Overlay) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.hook != nil {
		log.Debug("overlay destroyed")
	}
	o.hook = nil
}

// Destroyed reports whether Destroy has been called.
func (o *Overlay) Destroyed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.hook == nil
}
