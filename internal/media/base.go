package media

import (
	"sync"
	"time"
)

// Base implements the bookkeeping shared by concrete Hardware: callbacks,
// message mask, overlay, and the preview/recording switches that drive a
// capture Loop. Embed it and call Init before use; the capture function hands
// each frame to Deliver.
type Base struct {
	// Serializes preview/recording transitions. Never held by Deliver.
	ctl sync.Mutex

	mu         sync.Mutex
	cb         Callbacks
	mask       MsgType
	overlay    FrameSink
	useOverlay bool
	params     Parameters
	previewing bool
	recording  bool
	released   bool

	// Video frames handed out and not yet returned.
	outstanding map[*byte][]byte

	loop *Loop
}

func (b *Base) Init(params Parameters, useOverlay bool, capture func(quit <-chan struct{})) {
	b.params = params
	b.useOverlay = useOverlay
	b.outstanding = make(map[*byte][]byte)
	b.loop = NewLoop(capture)
}

func (b *Base) SetCallbacks(cb Callbacks) {
	b.mu.Lock()
	b.cb = cb
	b.mu.Unlock()
}

func (b *Base) EnableMsgType(msg MsgType) {
	b.mu.Lock()
	b.mask |= msg
	b.mu.Unlock()
	log.Debug("enabled %v", msg)
}

func (b *Base) DisableMsgType(msg MsgType) {
	b.mu.Lock()
	b.mask &^= msg
	b.mu.Unlock()
	log.Debug("disabled %v", msg)
}

func (b *Base) MsgTypeEnabled(msg MsgType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mask&msg != 0
}

func (b *Base) StartPreview() error {
	return b.start(&b.previewing)
}

func (b *Base) StopPreview() {
	b.stop(&b.previewing)
}

func (b *Base) PreviewEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.previewing
}

func (b *Base) StartRecording() error {
	return b.start(&b.recording)
}

func (b *Base) StopRecording() {
	b.stop(&b.recording)
}

func (b *Base) RecordingEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

func (b *Base) start(flag *bool) error {
	b.ctl.Lock()
	defer b.ctl.Unlock()

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return errReleased
	}
	if *flag {
		b.mu.Unlock()
		return nil
	}
	*flag = true
	b.mu.Unlock()

	b.loop.Start()
	return nil
}

func (b *Base) stop(flag *bool) {
	b.ctl.Lock()
	defer b.ctl.Unlock()

	b.mu.Lock()
	if !*flag {
		b.mu.Unlock()
		return
	}
	*flag = false
	b.mu.Unlock()

	// Waits for the capture goroutine, which may be inside a callback.
	b.loop.Stop()
}

func (b *Base) ReleaseRecordingFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}
	b.mu.Lock()
	_, ok := b.outstanding[&frame[0]]
	delete(b.outstanding, &frame[0])
	b.mu.Unlock()
	if !ok {
		log.Warn("released unknown recording frame %p", &frame[0])
	}
}

// OutstandingVideoFrames returns how many video frames have been delivered
// and not yet released.
func (b *Base) OutstandingVideoFrames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outstanding)
}

func (b *Base) Parameters() Parameters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

func (b *Base) SetParameters(p Parameters) {
	b.mu.Lock()
	b.params = p
	b.mu.Unlock()
}

func (b *Base) UseOverlay() bool {
	return b.useOverlay
}

func (b *Base) SetOverlay(sink FrameSink) {
	b.mu.Lock()
	b.overlay = sink
	b.mu.Unlock()
}

// Release stops preview and recording and disconnects the callbacks. Further
// starts fail.
func (b *Base) Release() error {
	b.StopRecording()
	b.StopPreview()

	b.mu.Lock()
	b.released = true
	b.cb = Callbacks{}
	b.overlay = nil
	if n := len(b.outstanding); n > 0 {
		log.Warn("%d recording frames never released", n)
	}
	b.outstanding = make(map[*byte][]byte)
	b.mu.Unlock()
	return nil
}

// Deliver dispatches one captured frame. Preview frames go to the overlay if
// one is set, else to the data callback. While recording, a copy is also
// delivered as a video frame and stays outstanding until released. No lock
// is held while callbacks run.
func (b *Base) Deliver(frame []byte, ts time.Duration) {
	b.mu.Lock()
	cb := b.cb
	mask := b.mask
	overlay := b.overlay
	useOverlay := b.useOverlay
	previewing := b.previewing
	recording := b.recording
	var video []byte
	if recording && mask&MsgVideoFrame != 0 && cb.DataTimestamp != nil && len(frame) > 0 {
		video = append([]byte(nil), frame...)
		b.outstanding[&video[0]] = video
	}
	b.mu.Unlock()

	if previewing {
		switch {
		case useOverlay:
			if overlay != nil {
				overlay.QueueBuffer(frame)
			}
		case mask&MsgPreviewFrame != 0 && cb.Data != nil:
			cb.Data(MsgPreviewFrame, frame)
		}
	}

	if video != nil {
		cb.DataTimestamp(ts, MsgVideoFrame, video)
	}
}

// Notify sends a notification if msg is enabled.
func (b *Base) Notify(msg MsgType, ext1, ext2 int32) {
	b.mu.Lock()
	notify := b.cb.Notify
	enabled := b.mask&msg != 0
	b.mu.Unlock()

	if enabled && notify != nil {
		notify(msg, ext1, ext2)
	}
}
