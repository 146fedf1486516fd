// Package wsview streams preview frames to browsers over websockets.
package wsview

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/media"
	"github.com/lanikai/camerahal/internal/packet"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

var log = logging.DefaultLogger.WithTag("wsview")

// Each message is a header followed by width*height RGB565 pixels, little
// endian, rows packed.
//
//	magic    [4]byte "R565"
//	width    uint16 (big endian)
//	height   uint16
//	sequence uint32
const HeaderSize = 12

var magic = [4]byte{'R', '5', '6', '5'}

var errNoBuffers = errors.New("no free buffers")

type buffer struct {
	data     []byte
	dequeued bool
}

// Surface is an in-memory buffer queue. Every enqueued buffer is published
// to subscribers as one message.
type Surface struct {
	mu            sync.Mutex
	count         int
	width, height int
	usage         surface.Usage
	buffers       []*buffer
	seq           uint32

	frames media.Fanout
}

func NewSurface() *Surface {
	return &Surface{count: 1}
}

func (s *Surface) allocate() {
	s.buffers = s.buffers[:0]
	for i := 0; i < s.count; i++ {
		s.buffers = append(s.buffers, &buffer{data: make([]byte, s.width*s.height*2)})
	}
}

func (s *Surface) Dequeue() (surface.Handle, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width == 0 || s.height == 0 {
		return nil, 0, errors.New("geometry not set")
	}
	for _, b := range s.buffers {
		if !b.dequeued {
			b.dequeued = true
			return b, s.width, nil
		}
	}
	return nil, 0, errNoBuffers
}

func (s *Surface) get(h surface.Handle) (*buffer, error) {
	b, ok := h.(*buffer)
	if !ok || !b.dequeued {
		return nil, errors.Errorf("buffer %v not dequeued", h)
	}
	return b, nil
}

func (s *Surface) Lock(h surface.Handle, usage surface.Usage, rect surface.Rect) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.get(h)
	if err != nil {
		return nil, err
	}
	return b.data, nil
}

func (s *Surface) Unlock(h surface.Handle) error {
	return nil
}

// Enqueue publishes the buffer and returns it to the pool.
func (s *Surface) Enqueue(h surface.Handle) error {
	s.mu.Lock()
	b, err := s.get(h)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	b.dequeued = false

	if s.frames.Subscribers() == 0 {
		s.mu.Unlock()
		return nil
	}

	s.seq++
	w := packet.NewWriterSize(HeaderSize + len(b.data))
	w.WriteSlice(magic[:])
	w.WriteUint16(uint16(s.width))
	w.WriteUint16(uint16(s.height))
	w.WriteUint32(s.seq)
	w.WriteSlice(b.data)
	msg := w.Bytes()
	s.mu.Unlock()

	s.frames.Write(msg)
	return nil
}

func (s *Surface) Cancel(h surface.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.get(h)
	if err != nil {
		return err
	}
	b.dequeued = false
	return nil
}

func (s *Surface) SetBufferCount(n int) error {
	if n < 1 {
		return errors.Errorf("invalid buffer count %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	s.allocate()
	return nil
}

func (s *Surface) SetUsage(usage surface.Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = usage
	return nil
}

func (s *Surface) SetGeometry(width, height int, format pixfmt.Format) error {
	if format != pixfmt.RGB565 {
		return errors.Wrapf(pixfmt.ErrUnsupportedFormat, "websocket view format %v", format)
	}
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return errors.Errorf("invalid geometry %dx%d", width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.allocate()
	log.Debug("geometry %dx%d, %d buffers", width, height, s.count)
	return nil
}

func (s *Surface) MinUndequeuedBuffers() (int, error) {
	return 1, nil
}

// Subscribe returns a channel of published messages. A slow reader loses
// older messages.
func (s *Surface) Subscribe() <-chan []byte {
	return s.frames.Subscribe(2)
}

// Unsubscribe closes ch and returns how many messages it missed.
func (s *Surface) Unsubscribe(ch <-chan []byte) uint64 {
	return s.frames.Unsubscribe(ch)
}

func (s *Surface) Viewers() int {
	return s.frames.Subscribers()
}

// DecodeHeader parses a message header.
func DecodeHeader(msg []byte) (width, height int, seq uint32, err error) {
	r := packet.NewReader(msg)
	if r.CheckRemaining(HeaderSize) != nil || [4]byte(r.ReadSlice(4)) != magic {
		return 0, 0, 0, errors.New("not a preview frame")
	}
	width = int(r.ReadUint16())
	height = int(r.ReadUint16())
	seq = r.ReadUint32()
	if len(msg) != HeaderSize+width*height*2 {
		return 0, 0, 0, errors.Errorf("frame is %d bytes, want %d", len(msg), HeaderSize+width*height*2)
	}
	return width, height, seq, nil
}
