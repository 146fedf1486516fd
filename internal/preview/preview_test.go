package preview

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
	"github.com/lanikai/camerahal/internal/surface/surfacetest"
)

func gray420sp(width, height int) []byte {
	return bytes.Repeat([]byte{128}, width*height+width*((height+1)/2))
}

func fastPolicy() surface.RetryPolicy {
	p := surface.DefaultRetryPolicy()
	p.Interval = 0
	return p
}

func TestPostWithoutSurface(t *testing.T) {
	p := NewPipeline(fastPolicy())
	assert.NoError(t, p.Post(gray420sp(4, 2)))
	assert.Nil(t, p.Surface())
	assert.Equal(t, surface.Stats{}, p.Stats())
}

func TestEndToEndMidGray(t *testing.T) {
	const width, height, stride = 320, 240, 336

	fake := &surfacetest.Fake{MinUndequeued: 2, Stride: stride, Fill: 0xaa}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, width, height, pixfmt.YUV420SP))
	assert.Equal(t, 4, fake.BufferCount)
	assert.Equal(t, pixfmt.RGB565, fake.Format)

	require.NoError(t, p.Post(gray420sp(width, height)))
	require.Len(t, fake.Frames, 1)
	assert.Empty(t, fake.Problems)

	out := fake.Frames[0]
	for row := 0; row < height; row++ {
		line := out[row*stride*2 : (row+1)*stride*2]
		for x := 0; x < width; x++ {
			require.Equal(t, []byte{0x10, 0x84}, line[x*2:x*2+2], "pixel (%d,%d)", x, row)
		}
		for _, b := range line[width*2:] {
			require.Equal(t, byte(0xaa), b, "padding in row %d", row)
		}
	}
	assert.Equal(t, uint64(1), p.Stats().Enqueued)
}

func TestYUV422IPreview(t *testing.T) {
	fake := &surfacetest.Fake{}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, 4, 2, pixfmt.YUV422I))

	// White.
	frame := bytes.Repeat([]byte{235, 128, 235, 128}, 4)
	require.NoError(t, p.Post(frame))
	require.Len(t, fake.Frames, 1)
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 4*2*2), fake.Frames[0])
}

func TestUnsupportedFormatRejected(t *testing.T) {
	p := NewPipeline(fastPolicy())
	err := p.SetSurface(&surfacetest.Fake{}, 4, 2, pixfmt.Unknown)
	assert.Equal(t, pixfmt.ErrUnsupportedFormat, errors.Cause(err))
	assert.Nil(t, p.Surface())
}

func TestShortFrameStillEnqueued(t *testing.T) {
	fake := &surfacetest.Fake{}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, 8, 8, pixfmt.YUV420SP))

	err := p.Post(make([]byte, 10))
	assert.Equal(t, pixfmt.ErrShortBuffer, errors.Cause(err))
	assert.Equal(t, 1, fake.Count("enqueued"))
	assert.Zero(t, fake.Outstanding())
}

func TestDetachAndReattach(t *testing.T) {
	first := &surfacetest.Fake{}
	second := &surfacetest.Fake{}
	p := NewPipeline(fastPolicy())

	require.NoError(t, p.SetSurface(first, 4, 2, pixfmt.YUV420SP))
	require.NoError(t, p.Post(gray420sp(4, 2)))

	require.NoError(t, p.SetSurface(nil, 0, 0, pixfmt.Unknown))
	assert.Nil(t, p.Surface())
	require.NoError(t, p.Post(gray420sp(4, 2)))
	assert.Len(t, first.Frames, 1)

	require.NoError(t, p.SetSurface(second, 4, 2, pixfmt.YUV420SP))
	assert.Same(t, second, p.Surface())
	require.NoError(t, p.Post(gray420sp(4, 2)))
	assert.Len(t, first.Frames, 1)
	assert.Len(t, second.Frames, 1)

	assert.Equal(t, uint64(2), p.Stats().Enqueued)
}

func TestStopDropsFrames(t *testing.T) {
	fake := &surfacetest.Fake{}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, 4, 2, pixfmt.YUV420SP))

	p.Stop()
	err := p.Post(gray420sp(4, 2))
	assert.Equal(t, surface.ErrStopped, errors.Cause(err))
	assert.Zero(t, fake.Dequeues)

	// Stopped state carries over to a new surface.
	require.NoError(t, p.SetSurface(fake, 4, 2, pixfmt.YUV420SP))
	assert.Error(t, p.Post(gray420sp(4, 2)))

	p.Start()
	require.NoError(t, p.Post(gray420sp(4, 2)))
	assert.Equal(t, 1, fake.Count("enqueued"))
}

func TestStopWaitsForFrameInFlight(t *testing.T) {
	inWrite := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake := &surfacetest.Fake{
		FailLock: func(n int) bool {
			once.Do(func() {
				close(inWrite)
				<-release
			})
			return false
		},
	}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, 4, 2, pixfmt.YUV420SP))

	go p.Post(gray420sp(4, 2))
	<-inWrite

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned with a frame in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.Zero(t, fake.Outstanding())
	assert.Equal(t, 1, fake.Count("enqueued"))
}

func TestOverlayRoutesToHook(t *testing.T) {
	var got [][]byte
	o := NewOverlay(4, 2, pixfmt.YUV420SP, func(frame []byte) {
		got = append(got, frame)
	})
	assert.Equal(t, 4, o.Width())
	assert.Equal(t, 2, o.Height())
	assert.Equal(t, pixfmt.YUV420SP, o.Format())

	o.QueueBuffer([]byte{1})
	o.QueueBuffer([]byte{2})
	assert.False(t, o.Destroyed())

	o.Destroy()
	o.Destroy()
	assert.True(t, o.Destroyed())
	o.QueueBuffer([]byte{3})

	assert.Equal(t, [][]byte{{1}, {2}}, got)
}

func TestOverlayDestroyWaitsForDelivery(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var delivered int32
	o := NewOverlay(4, 2, pixfmt.YUV420SP, func([]byte) {
		close(entered)
		<-release
		atomic.AddInt32(&delivered, 1)
	})

	go o.QueueBuffer(nil)
	<-entered

	destroyed := make(chan struct{})
	go func() {
		o.Destroy()
		close(destroyed)
	}()

	select {
	case <-destroyed:
		t.Fatal("Destroy returned during delivery")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-destroyed
	assert.Equal(t, int32(1), atomic.LoadInt32(&delivered))
}

func TestOverlayIntoPipeline(t *testing.T) {
	fake := &surfacetest.Fake{}
	p := NewPipeline(fastPolicy())
	require.NoError(t, p.SetSurface(fake, 4, 2, pixfmt.YUV420SP))

	o := NewOverlay(4, 2, pixfmt.YUV420SP, p.QueueBuffer)
	o.QueueBuffer(gray420sp(4, 2))
	o.Destroy()
	o.QueueBuffer(gray420sp(4, 2))

	assert.Len(t, fake.Frames, 1)
}
