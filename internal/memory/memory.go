package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
)

var log = logging.DefaultLogger.WithTag("memory")

var ErrAllocation = errors.New("memory allocation failed")

// Memory is a block of client-visible memory holding one frame. It is owned
// by whoever holds it last and must be released exactly once; further
// Release calls are ignored.
type Memory struct {
	id   uuid.UUID
	data []byte

	once    sync.Once
	release func([]byte)
}

// New wraps data. release, if non-nil, runs on the first Release.
func New(data []byte, release func([]byte)) *Memory {
	return &Memory{
		id:      uuid.New(),
		data:    data,
		release: release,
	}
}

func (m *Memory) ID() uuid.UUID {
	return m.id
}

// Bytes returns the underlying memory. It must not be used after Release.
func (m *Memory) Bytes() []byte {
	return m.data
}

func (m *Memory) Len() int {
	return len(m.data)
}

func (m *Memory) Release() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		if m.release != nil {
			m.release(m.data)
		}
		m.data = nil
	})
}

// key identifies a memory block by the address of its first byte, which is
// what clients hand back when returning a frame.
func key(data []byte) *byte {
	if len(data) == 0 {
		return nil
	}
	return &data[0]
}
