package media

import (
	"fmt"
	"strings"
	"time"
)

// MsgType selects which notifications and data a camera delivers. Values are
// bit flags and may be combined.
type MsgType int32

const (
	MsgError           MsgType = 0x0001
	MsgShutter         MsgType = 0x0002
	MsgFocus           MsgType = 0x0004
	MsgZoom            MsgType = 0x0008
	MsgPreviewFrame    MsgType = 0x0010
	MsgVideoFrame      MsgType = 0x0020
	MsgPostviewFrame   MsgType = 0x0040
	MsgRawImage        MsgType = 0x0080
	MsgCompressedImage MsgType = 0x0100
	MsgRawImageNotify  MsgType = 0x0200
	MsgPreviewMetadata MsgType = 0x0400
	MsgAll             MsgType = 0xffff
)

var msgNames = []struct {
	msg  MsgType
	name string
}{
	{MsgError, "error"},
	{MsgShutter, "shutter"},
	{MsgFocus, "focus"},
	{MsgZoom, "zoom"},
	{MsgPreviewFrame, "preview-frame"},
	{MsgVideoFrame, "video-frame"},
	{MsgPostviewFrame, "postview-frame"},
	{MsgRawImage, "raw-image"},
	{MsgCompressedImage, "compressed-image"},
	{MsgRawImageNotify, "raw-image-notify"},
	{MsgPreviewMetadata, "preview-metadata"},
}

func (m MsgType) String() string {
	var names []string
	for _, n := range msgNames {
		if m&n.msg != 0 {
			names = append(names, n.name)
			m &^= n.msg
		}
	}
	if m != 0 {
		names = append(names, fmt.Sprintf("%#x", int32(m)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Callbacks are invoked synchronously from the camera's delivery context.
// Frame slices are only valid for the duration of the call.
type Callbacks struct {
	Notify        func(msg MsgType, ext1, ext2 int32)
	Data          func(msg MsgType, frame []byte)
	DataTimestamp func(ts time.Duration, msg MsgType, frame []byte)
}

// Parameters is the subset of camera parameters the preview path needs.
type Parameters struct {
	PreviewWidth  int
	PreviewHeight int

	// Preview pixel format name, e.g. "yuv420sp".
	PreviewFormat string

	PreviewFrameRate int
}

// FrameSink accepts frames pushed by a hardware compositing path.
type FrameSink interface {
	QueueBuffer(frame []byte)
}

// Hardware is a legacy camera: it produces frames through callbacks and is
// driven through message-type masks and preview/recording switches.
type Hardware interface {
	SetCallbacks(cb Callbacks)

	EnableMsgType(msg MsgType)
	DisableMsgType(msg MsgType)
	MsgTypeEnabled(msg MsgType) bool

	StartPreview() error
	StopPreview()
	PreviewEnabled() bool

	StartRecording() error
	StopRecording()
	RecordingEnabled() bool

	// ReleaseRecordingFrame returns a frame delivered as MsgVideoFrame.
	ReleaseRecordingFrame(frame []byte)

	Parameters() Parameters

	// UseOverlay reports whether preview frames go through an overlay
	// instead of the data callback.
	UseOverlay() bool
	SetOverlay(sink FrameSink)

	// Release stops all activity and frees the device.
	Release() error
}
