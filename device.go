// Package camerahal exposes a legacy callback-driven camera as a modern
// camera device: preview frames are converted onto an application surface
// and frame data is copied into application memory.
package camerahal

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/media"
	"github.com/lanikai/camerahal/internal/memory"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/preview"

	// Capture hardware registers itself with the media package.
	_ "github.com/lanikai/camerahal/internal/v4l2"
)

var log = logging.DefaultLogger.WithTag("camerahal")

// Device owns a Hardware for its whole lifetime. Hardware callbacks and API
// calls that touch client memory, the overlay or the surface are serialized
// by mu; application callbacks and blocking hardware calls run outside it.
type Device struct {
	session uuid.UUID
	hw      Hardware

	mu       sync.Mutex
	cb       Callbacks
	mask     MsgType
	hwMask   MsgType // what the hardware has been told
	broker   *memory.Broker
	window   Surface
	overlay  *preview.Overlay
	pipeline *preview.Pipeline
	closed   bool
}

// Open a camera from a source spec such as "v4l2:/dev/video0" or
// "pattern:320x240".
func Open(spec string, cfg Config) (*Device, error) {
	hw, err := media.OpenSource(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "open camera %q", spec)
	}
	return New(hw, cfg), nil
}

// New wraps already-open hardware. The Device takes ownership of hw.
func New(hw Hardware, cfg Config) *Device {
	d := &Device{
		session:  uuid.New(),
		hw:       hw,
		broker:   memory.NewBroker(nil),
		pipeline: preview.NewPipeline(cfg.retryPolicy()),
	}
	hw.SetCallbacks(media.Callbacks{
		Notify:        d.onNotify,
		Data:          d.onData,
		DataTimestamp: d.onDataTimestamp,
	})
	log.Info("camera session %v opened", d.session)
	return d
}

func (d *Device) Session() uuid.UUID {
	return d.session
}

// SetCallbacks installs the application callbacks and the allocator used to
// copy frames into application memory. Without an allocator no frame data is
// delivered.
func (d *Device) SetCallbacks(cb Callbacks, alloc Allocator) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cb = cb
	d.broker.SetAllocator(alloc)
}

func (d *Device) onNotify(msg MsgType, ext1, ext2 int32) {
	d.mu.Lock()
	notify := d.cb.Notify
	d.mu.Unlock()

	log.Debug("notify %v ext1=%d ext2=%d", msg, ext1, ext2)
	if notify != nil {
		notify(msg, ext1, ext2)
	}
}

func (d *Device) onData(msg MsgType, frame []byte) {
	d.mu.Lock()
	data := d.cb.Data
	var mem *Memory
	if data != nil && d.mask&msg != 0 {
		if mem = d.broker.Copy(frame); mem != nil && msg == MsgVideoFrame {
			d.broker.Track(mem)
		}
	}
	toSurface := msg == MsgPreviewFrame && d.overlay == nil
	d.mu.Unlock()

	if mem != nil {
		data(msg, mem)
	}
	if toSurface {
		d.pipeline.QueueBuffer(frame)
	}
}

func (d *Device) onDataTimestamp(ts time.Duration, msg MsgType, frame []byte) {
	d.mu.Lock()
	data := d.cb.DataTimestamp
	var mem *Memory
	if data != nil && d.mask&msg != 0 {
		if mem = d.broker.Copy(frame); mem != nil {
			d.broker.Track(mem)
		}
	}
	d.mu.Unlock()

	if mem != nil {
		data(ts, msg, mem)
	} else {
		log.Trace(3, "%v at %v dropped", msg, ts)
	}

	// The copy, if any, is what the application holds on to.
	d.hw.ReleaseRecordingFrame(frame)
}

// SetPreviewWindow directs preview to s. Passing the current window again
// reconfigures it for the hardware's present preview size; nil releases it.
func (d *Device) SetPreviewWindow(s Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if s == d.window {
		log.Debug("reconfiguring window")
	}
	d.destroyOverlay()
	d.window = s

	if s == nil {
		log.Debug("releasing previous window")
		err := d.pipeline.SetSurface(nil, 0, 0, pixfmt.Unknown)
		d.syncMask()
		return err
	}

	params := d.hw.Parameters()
	from, err := pixfmt.ParseFormat(params.PreviewFormat)
	if err == nil {
		err = d.pipeline.SetSurface(s, params.PreviewWidth, params.PreviewHeight, from)
	}
	if err != nil {
		d.window = nil
		d.pipeline.SetSurface(nil, 0, 0, pixfmt.Unknown)
		d.syncMask()
		return errors.Wrap(err, "set preview window")
	}
	log.Debug("preview %dx%d %v", params.PreviewWidth, params.PreviewHeight, from)

	if d.hw.UseOverlay() {
		log.Info("using overlay for session %v", d.session)
		d.overlay = preview.NewOverlay(params.PreviewWidth, params.PreviewHeight, from, d.pipeline.QueueBuffer)
		d.hw.SetOverlay(d.overlay)
	}
	d.syncMask()
	return nil
}

func (d *Device) destroyOverlay() {
	if d.overlay != nil {
		d.hw.SetOverlay(nil)
		d.overlay.Destroy()
		d.overlay = nil
	}
}

// Preview frames must reach the device whenever a window is fed from the
// data callback, whether or not the application asked for them.
func (d *Device) syncMask() {
	want := d.mask
	if d.window != nil && d.overlay == nil {
		want |= MsgPreviewFrame
	}
	if on := want &^ d.hwMask; on != 0 {
		d.hw.EnableMsgType(on)
	}
	if off := d.hwMask &^ want; off != 0 {
		d.hw.DisableMsgType(off)
	}
	d.hwMask = want
}

func (d *Device) EnableMsgType(msg MsgType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	log.Debug("enable %v", msg)
	d.mask |= msg
	d.syncMask()
}

// DisableMsgType stops delivery of msg. Disabling video frames releases every
// video frame the application still holds.
func (d *Device) DisableMsgType(msg MsgType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	log.Debug("disable %v", msg)
	if msg&MsgVideoFrame != 0 {
		d.broker.ReleaseAll()
	}
	d.mask &^= msg
	d.syncMask()
}

func (d *Device) MsgTypeEnabled(msg MsgType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mask&msg != 0
}

// ReleaseRecordingFrame returns a video frame's memory. data must be the
// Bytes() of memory delivered as a video frame; anything else is ignored.
func (d *Device) ReleaseRecordingFrame(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.broker.Return(data)
}

// InFlight returns how many video frames the application holds.
func (d *Device) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.broker.InFlight()
}

func (d *Device) StartPreview() error {
	if d.isClosed() {
		return ErrClosed
	}
	d.pipeline.Start()
	return errors.Wrap(d.hw.StartPreview(), "start preview")
}

// StopPreview returns once no preview buffer is in flight.
func (d *Device) StopPreview() {
	if d.isClosed() {
		return
	}
	d.pipeline.Stop()
	d.hw.StopPreview()
}

func (d *Device) PreviewEnabled() bool {
	return !d.isClosed() && d.hw.PreviewEnabled()
}

func (d *Device) StartRecording() error {
	if d.isClosed() {
		return ErrClosed
	}
	return errors.Wrap(d.hw.StartRecording(), "start recording")
}

func (d *Device) StopRecording() {
	if d.isClosed() {
		return
	}
	d.hw.StopRecording()
}

func (d *Device) RecordingEnabled() bool {
	return !d.isClosed() && d.hw.RecordingEnabled()
}

// PreviewStats returns buffer accounting over every window used.
func (d *Device) PreviewStats() PreviewStats {
	return d.pipeline.Stats()
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close tears down preview, releases outstanding client memory and releases
// the hardware. Calling it again does nothing.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.destroyOverlay()
	d.mu.Unlock()

	d.pipeline.Stop()

	// Blocks until capture stops, so no callback runs after this.
	err := d.hw.Release()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.broker.ReleaseAll()
	d.window = nil
	d.pipeline.SetSurface(nil, 0, 0, pixfmt.Unknown)

	log.Info("camera session %v closed", d.session)
	return err
}
