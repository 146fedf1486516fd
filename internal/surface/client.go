package surface

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/pixfmt"
)

// WriteFunc fills a locked buffer. stride is the buffer's row length in
// pixels.
type WriteFunc func(buf []byte, stride int) error

// Client drives a Surface one frame at a time:
//
//	ACQUIRE -> LOCK (bounded retry) -> WRITE -> UNLOCK -> ENQUEUE
//
// with CANCEL replacing ENQUEUE when the buffer could not be locked. At most
// one buffer is dequeued at any moment.
type Client struct {
	surface Surface
	policy  RetryPolicy

	width, height int

	// Held for the whole of Post, so Stop can wait out an in-flight buffer.
	mu      sync.Mutex
	stopped bool

	stats Stats
}

// Stats counts buffer dispositions. Acquired == Enqueued + Cancelled whenever
// no Post is in progress.
type Stats struct {
	Acquired    uint64
	Enqueued    uint64
	Cancelled   uint64
	LockRetries uint64
	Dropped     uint64

	HandoffFailures uint64
}

func NewClient(s Surface, policy RetryPolicy) *Client {
	return &Client{
		surface: s,
		policy:  policy,
	}
}

// Configure negotiates the buffer pool for width x height RGB565 frames.
// Geometry and buffer count stay fixed until Configure is called again.
func (c *Client) Configure(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	minBufs, err := c.surface.MinUndequeuedBuffers()
	if err != nil {
		return errors.Wrap(err, "could not retrieve min undequeued buffer count")
	}
	count := minBufs + 2
	log.Debug("min bufs: %d, setting buffer count to %d", minBufs, count)
	if err := c.surface.SetBufferCount(count); err != nil {
		return errors.Wrapf(err, "could not set buffer count %d", count)
	}
	if err := c.surface.SetUsage(UsageSWWriteOften | UsageSWReadOften); err != nil {
		return errors.Wrap(err, "could not set buffer usage")
	}
	if err := c.surface.SetGeometry(width, height, pixfmt.RGB565); err != nil {
		return errors.Wrapf(err, "could not set buffer geometry %dx%d", width, height)
	}

	c.width, c.height = width, height
	return nil
}

// Post pushes one frame through the buffer queue, calling write with the
// locked buffer. Errors are for accounting; the frame has already been
// dropped or displayed by the time Post returns, and the buffer disposed.
func (c *Client) Post(write WriteFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		atomic.AddUint64(&c.stats.Dropped, 1)
		return ErrStopped
	}

	h, stride, err := c.surface.Dequeue()
	if err != nil {
		atomic.AddUint64(&c.stats.Dropped, 1)
		log.Error("dequeue failed: %v", err)
		return &BufferError{ErrAcquire, err}
	}
	atomic.AddUint64(&c.stats.Acquired, 1)
	if stride != c.width {
		log.Trace(5, "stride %d differs from width %d", stride, c.width)
	}

	disposed := false
	defer func() {
		// write panicked: the handle must still go back to the surface.
		if !disposed {
			c.surface.Unlock(h)
			c.cancel(h)
		}
	}()

	buf, err := c.lock(h)
	if err != nil {
		disposed = true
		c.cancel(h)
		atomic.AddUint64(&c.stats.Dropped, 1)
		log.Error("could not lock buffer: %v", err)
		return &BufferError{ErrLock, err}
	}

	werr := write(buf, stride)
	if werr != nil {
		log.Error("frame not written: %v", werr)
	}

	if err := c.surface.Unlock(h); err != nil {
		log.Warn("unlock failed: %v", err)
	}
	disposed = true
	atomic.AddUint64(&c.stats.Enqueued, 1)
	if err := c.surface.Enqueue(h); err != nil {
		// The buffer is gone either way; nothing to retry or roll back.
		atomic.AddUint64(&c.stats.HandoffFailures, 1)
		log.Error("could not enqueue buffer: %v", err)
		return &BufferError{ErrHandoff, err}
	}

	if werr != nil {
		atomic.AddUint64(&c.stats.Dropped, 1)
	}
	return werr
}

func (c *Client) lock(h Handle) ([]byte, error) {
	rect := Rect{Width: c.width, Height: c.height}
	buf, err := c.surface.Lock(h, UsageSWWriteOften, rect)
	for tries := c.policy.Retries; err != nil && tries > 0; tries-- {
		log.Debug("lock retry: %v", err)
		atomic.AddUint64(&c.stats.LockRetries, 1)
		c.policy.sleep()
		c.surface.Unlock(h)
		buf, err = c.surface.Lock(h, UsageSWWriteOften, rect)
	}
	return buf, err
}

func (c *Client) cancel(h Handle) {
	if err := c.surface.Cancel(h); err != nil {
		log.Error("cancel failed: %v", err)
	}
	atomic.AddUint64(&c.stats.Cancelled, 1)
}

// Stop waits for an in-flight Post to dispose of its buffer, then rejects
// further frames until Start.
func (c *Client) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *Client) Start() {
	c.mu.Lock()
	c.stopped = false
	c.mu.Unlock()
}

func (c *Client) Stats() Stats {
	return Stats{
		Acquired:    atomic.LoadUint64(&c.stats.Acquired),
		Enqueued:    atomic.LoadUint64(&c.stats.Enqueued),
		Cancelled:   atomic.LoadUint64(&c.stats.Cancelled),
		LockRetries: atomic.LoadUint64(&c.stats.LockRetries),
		Dropped:     atomic.LoadUint64(&c.stats.Dropped),

		HandoffFailures: atomic.LoadUint64(&c.stats.HandoffFailures),
	}
}
