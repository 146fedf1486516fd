// Package fbdev displays preview on a Linux framebuffer console.
package fbdev

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

var log = logging.DefaultLogger.WithTag("fbdev")

var (
	errBusy        = errors.New("framebuffer already dequeued")
	errNotDequeued = errors.New("framebuffer not dequeued")
	errGeometry    = errors.New("geometry exceeds framebuffer")
)

// Surface is a single-buffered surface.Surface drawing straight into mapped
// framebuffer memory. The buffer count is advisory: there is only ever one.
type Surface struct {
	xres, yres int
	stride     int // pixels
	close      func() error

	mu            sync.Mutex
	mem           []byte
	width, height int
	dequeued      bool
	locked        bool
	usage         surface.Usage
	frames        uint64
}

// handle is the only buffer's handle.
type handle struct{}

func newSurface(mem []byte, xres, yres, stride int, close func() error) *Surface {
	return &Surface{
		mem:    mem,
		xres:   xres,
		yres:   yres,
		stride: stride,
		close:  close,
		width:  xres,
		height: yres,
	}
}

func (s *Surface) Dequeue() (surface.Handle, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem == nil {
		return nil, 0, errors.New("framebuffer closed")
	}
	if s.dequeued {
		return nil, 0, errBusy
	}
	s.dequeued = true
	return handle{}, s.stride, nil
}

func (s *Surface) Lock(h surface.Handle, usage surface.Usage, rect surface.Rect) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := h.(handle); !ok || !s.dequeued {
		return nil, errNotDequeued
	}
	if rect.Left+rect.Width > s.xres || rect.Top+rect.Height > s.yres {
		return nil, errors.Wrapf(errGeometry, "lock %+v", rect)
	}
	s.locked = true
	return s.mem[(rect.Top*s.stride+rect.Left)*2:], nil
}

func (s *Surface) Unlock(h surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locked = false
	return nil
}

// Enqueue makes the drawn frame current. The framebuffer is scanned out
// continuously, so there is nothing to flip.
func (s *Surface) Enqueue(h surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dequeued {
		return errNotDequeued
	}
	s.dequeued = false
	s.frames++
	return nil
}

func (s *Surface) Cancel(h surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dequeued {
		return errNotDequeued
	}
	s.dequeued = false
	return nil
}

func (s *Surface) SetBufferCount(n int) error {
	if n < 1 {
		return errors.Errorf("invalid buffer count %d", n)
	}
	if n > 1 {
		log.Debug("single-buffered framebuffer, ignoring buffer count %d", n)
	}
	return nil
}

func (s *Surface) SetUsage(usage surface.Usage) error {
	s.mu.Lock()
	s.usage = usage
	s.mu.Unlock()
	return nil
}

func (s *Surface) SetGeometry(width, height int, format pixfmt.Format) error {
	if format != pixfmt.RGB565 {
		return errors.Wrapf(pixfmt.ErrUnsupportedFormat, "framebuffer format %v", format)
	}
	if width > s.xres || height > s.yres {
		return errors.Wrapf(errGeometry, "%dx%d on %dx%d", width, height, s.xres, s.yres)
	}

	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
	return nil
}

func (s *Surface) MinUndequeuedBuffers() (int, error) {
	return 0, nil
}

// Frames returns the number of frames displayed.
func (s *Surface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem == nil {
		return nil
	}
	s.mem = nil
	if s.close != nil {
		return s.close()
	}
	return nil
}
