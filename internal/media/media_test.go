package media

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
)

func TestMsgTypeString(t *testing.T) {
	assert.Equal(t, "none", MsgType(0).String())
	assert.Equal(t, "preview-frame", MsgPreviewFrame.String())
	assert.Equal(t, "error|video-frame", (MsgError | MsgVideoFrame).String())
	assert.Equal(t, "shutter|0x10000", (MsgShutter | 0x10000).String())
}

func TestOpenSource(t *testing.T) {
	hw, err := OpenSource("pattern:64x48:gray:yuv422i-yuyv")
	require.NoError(t, err)
	defer hw.Release()

	p := hw.Parameters()
	assert.Equal(t, 64, p.PreviewWidth)
	assert.Equal(t, 48, p.PreviewHeight)
	assert.Equal(t, "yuv422i-yuyv", p.PreviewFormat)
	assert.False(t, hw.UseOverlay())

	_, err = OpenSource("bogus:/dev/null")
	assert.Equal(t, errNotFound, errors.Cause(err))

	assert.Contains(t, SourceTypes(), "pattern")
}

func TestParsePatternConfig(t *testing.T) {
	c, err := ParsePatternConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPatternConfig(), c)

	c, err = ParsePatternConfig("320x240:yuv420sp:15:overlay:gray")
	require.NoError(t, err)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 240, c.Height)
	assert.Equal(t, pixfmt.YUV420SP, c.Format)
	assert.Equal(t, 15, c.FPS)
	assert.True(t, c.Overlay)
	assert.Equal(t, PatternGray, c.Pattern)

	for _, bad := range []string{"320", "ax240", "320xb", "320x240:sparkly"} {
		_, err := ParsePatternConfig(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewPatternRejectsBadConfig(t *testing.T) {
	c := DefaultPatternConfig()
	c.Width = 33
	_, err := NewPattern(c)
	assert.Error(t, err)

	c = DefaultPatternConfig()
	c.Format = pixfmt.RGB565
	_, err = NewPattern(c)
	assert.Equal(t, pixfmt.ErrUnsupportedFormat, errors.Cause(err))
}

func TestPatternFrames(t *testing.T) {
	c := DefaultPatternConfig()
	c.Width, c.Height = 8, 3
	c.Pattern = PatternGray
	p, err := NewPattern(c)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{128}, 8*3+8*2), p.Frame())

	c.Pattern = PatternColorBars
	c.Format = pixfmt.YUV422I
	c.Width, c.Height = 14, 2
	p, err = NewPattern(c)
	require.NoError(t, err)
	f := p.Frame()
	require.Len(t, f, 14*2*2)

	// First bar is 75% white: no chroma.
	assert.Equal(t, []byte{181, 128, 181, 128}, f[:4])
	// Last bar is blue.
	y, u, v := rgbToYUV([3]int{0, 0, 192})
	assert.Equal(t, []byte{y, u, y, v}, f[24:28])
}

func fastPattern(t *testing.T, overlay bool) *Pattern {
	c := DefaultPatternConfig()
	c.Width, c.Height = 16, 16
	c.FPS = 500
	c.Overlay = overlay
	p, err := NewPattern(c)
	require.NoError(t, err)
	t.Cleanup(func() { p.Release() })
	return p
}

func TestPatternPreviewCallback(t *testing.T) {
	p := fastPattern(t, false)

	var frames int32
	p.SetCallbacks(Callbacks{
		Data: func(msg MsgType, frame []byte) {
			assert.Equal(t, MsgPreviewFrame, msg)
			assert.Len(t, frame, 16*16*3/2)
			atomic.AddInt32(&frames, 1)
		},
	})

	require.NoError(t, p.StartPreview())
	assert.True(t, p.PreviewEnabled())

	// Masked off: nothing delivered.
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&frames))

	p.EnableMsgType(MsgPreviewFrame)
	assert.True(t, p.MsgTypeEnabled(MsgPreviewFrame))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&frames) >= 3 }, time.Second, time.Millisecond)

	p.StopPreview()
	assert.False(t, p.PreviewEnabled())
	n := atomic.LoadInt32(&frames)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt32(&frames))
}

type sinkFunc func([]byte)

func (f sinkFunc) QueueBuffer(frame []byte) { f(frame) }

func TestPatternOverlay(t *testing.T) {
	p := fastPattern(t, true)

	var data, queued int32
	p.SetCallbacks(Callbacks{
		Data: func(MsgType, []byte) { atomic.AddInt32(&data, 1) },
	})
	p.EnableMsgType(MsgPreviewFrame)
	p.SetOverlay(sinkFunc(func([]byte) { atomic.AddInt32(&queued, 1) }))

	require.NoError(t, p.StartPreview())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&queued) >= 3 }, time.Second, time.Millisecond)
	p.StopPreview()
	assert.Zero(t, atomic.LoadInt32(&data))
}

func TestPatternRecording(t *testing.T) {
	p := fastPattern(t, false)

	var mu sync.Mutex
	var video [][]byte
	p.SetCallbacks(Callbacks{
		DataTimestamp: func(ts time.Duration, msg MsgType, frame []byte) {
			assert.Equal(t, MsgVideoFrame, msg)
			mu.Lock()
			video = append(video, frame)
			mu.Unlock()
		},
	})
	p.EnableMsgType(MsgVideoFrame)

	require.NoError(t, p.StartRecording())
	assert.True(t, p.RecordingEnabled())
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(video) >= 2
	}, time.Second, time.Millisecond)
	p.StopRecording()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, len(video), p.OutstandingVideoFrames())
	assert.Equal(t, p.Frame(), video[0])
	assert.NotSame(t, &p.Frame()[0], &video[0][0])

	for _, f := range video {
		p.ReleaseRecordingFrame(f)
	}
	assert.Zero(t, p.OutstandingVideoFrames())
}

func TestReleaseStopsEverything(t *testing.T) {
	p := fastPattern(t, false)
	require.NoError(t, p.StartPreview())
	require.NoError(t, p.StartRecording())

	require.NoError(t, p.Release())
	assert.False(t, p.PreviewEnabled())
	assert.False(t, p.RecordingEnabled())
	assert.Equal(t, errReleased, p.StartPreview())
}

func TestLoopVotes(t *testing.T) {
	var running int32
	loop := NewLoop(func(quit <-chan struct{}) {
		atomic.AddInt32(&running, 1)
		<-quit
		atomic.AddInt32(&running, -1)
	})

	loop.Start()
	loop.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 1 }, time.Second, time.Millisecond)

	loop.Stop()
	assert.True(t, loop.Running())
	assert.Equal(t, int32(1), atomic.LoadInt32(&running))

	loop.Stop()
	assert.False(t, loop.Running())
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))

	// Unbalanced stop is ignored.
	loop.Stop()
	assert.False(t, loop.Running())
}

func TestFanout(t *testing.T) {
	var started, stopped int32
	f := &Fanout{
		Start: func() { atomic.AddInt32(&started, 1) },
		Stop:  func() { atomic.AddInt32(&stopped, 1) },
	}

	a := f.Subscribe(1)
	b := f.Subscribe(4)
	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
	assert.Equal(t, 2, f.Subscribers())

	for i := byte(0); i < 3; i++ {
		n, err := f.Write([]byte{i})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	// a kept only the newest.
	assert.Equal(t, []byte{2}, <-a)
	assert.Equal(t, []byte{0}, <-b)
	assert.Equal(t, []byte{1}, <-b)
	assert.Equal(t, []byte{2}, <-b)

	assert.Equal(t, uint64(2), f.Unsubscribe(a))
	assert.Equal(t, uint64(0), f.Unsubscribe(b))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&stopped) == 1 }, time.Second, time.Millisecond)

	_, ok := <-a
	assert.False(t, ok)
}

func TestFanoutManySubscribers(t *testing.T) {
	f := &Fanout{}

	var wg sync.WaitGroup
	subs := make([]<-chan []byte, 100)
	for i := range subs {
		subs[i] = f.Subscribe(1)
	}
	for _, s := range subs {
		wg.Add(1)
		go func(s <-chan []byte) {
			defer wg.Done()
			p, ok := <-s
			assert.True(t, ok)
			assert.Equal(t, []byte{0xc0, 0xff, 0xee}, p)
		}(s)
	}

	f.Write([]byte{0xc0, 0xff, 0xee})
	wg.Wait()
	require.NoError(t, f.Close())
	assert.Zero(t, f.Subscribers())
}
