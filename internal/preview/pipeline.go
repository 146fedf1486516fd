// Package preview moves camera frames onto a display surface.
package preview

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

var log = logging.DefaultLogger.WithTag("preview")

// Pipeline converts preview frames to RGB565 and posts them to the current
// surface. Without a surface, frames are ignored.
type Pipeline struct {
	policy surface.RetryPolicy

	// Held across Post, so reconfiguring or stopping waits for the frame in
	// flight.
	mu sync.Mutex

	surface surface.Surface
	client  *surface.Client
	width   int
	height  int
	from    pixfmt.Format
	stopped bool

	// Totals from clients that have been replaced.
	retired surface.Stats
}

func NewPipeline(policy surface.RetryPolicy) *Pipeline {
	return &Pipeline{policy: policy}
}

// SetSurface attaches s and configures it for width x height frames arriving
// in the given format. A nil surface detaches the current one.
func (p *Pipeline) SetSurface(s surface.Surface, width, height int, from pixfmt.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.retire()
	if s == nil {
		log.Debug("surface detached")
		return nil
	}

	switch from {
	case pixfmt.YUV420SP, pixfmt.YUV422I, pixfmt.RGB565:
	default:
		return errors.Wrapf(pixfmt.ErrUnsupportedFormat, "preview format %v", from)
	}

	c := surface.NewClient(s, p.policy)
	if err := c.Configure(width, height); err != nil {
		return err
	}
	if p.stopped {
		c.Stop()
	}
	p.surface, p.client = s, c
	p.width, p.height, p.from = width, height, from
	log.Info("surface configured for %dx%d %v", width, height, from)
	return nil
}

func (p *Pipeline) retire() {
	if p.client == nil {
		return
	}
	p.client.Stop()
	s := p.client.Stats()
	p.retired.Acquired += s.Acquired
	p.retired.Enqueued += s.Enqueued
	p.retired.Cancelled += s.Cancelled
	p.retired.LockRetries += s.LockRetries
	p.retired.Dropped += s.Dropped
	p.retired.HandoffFailures += s.HandoffFailures
	p.surface, p.client = nil, nil
}

// Surface returns the attached surface, or nil.
func (p *Pipeline) Surface() surface.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surface
}

// Post displays one frame. Errors are informational: the frame has been
// dropped or shown, and any buffer returned to the surface.
func (p *Pipeline) Post(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	w, h, from := p.width, p.height, p.from
	return p.client.Post(func(buf []byte, stride int) error {
		return pixfmt.Convert(buf, frame, from, w, h, stride)
	})
}

// QueueBuffer posts frame, logging failures.
func (p *Pipeline) QueueBuffer(frame []byte) {
	if err := p.Post(frame); err != nil && errors.Cause(err) != surface.ErrStopped {
		log.Debug("preview frame dropped: %v", err)
	}
}

// Stop waits for a frame in flight to be disposed and drops later frames.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.client != nil {
		p.client.Stop()
	}
}

func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = false
	if p.client != nil {
		p.client.Start()
	}
}

// Stats returns totals over every surface this pipeline has used.
func (p *Pipeline) Stats() surface.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.retired
	if p.client != nil {
		s := p.client.Stats()
		total.Acquired += s.Acquired
		total.Enqueued += s.Enqueued
		total.Cancelled += s.Cancelled
		total.LockRetries += s.LockRetries
		total.Dropped += s.Dropped
		total.HandoffFailures += s.HandoffFailures
	}
	return total
}
