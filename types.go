package camerahal

import (
	"time"

	"github.com/lanikai/camerahal/internal/media"
	"github.com/lanikai/camerahal/internal/memory"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

type (
	// Hardware is the legacy camera a Device drives.
	Hardware = media.Hardware

	MsgType = media.MsgType

	// Surface is a display window's buffer queue.
	Surface = surface.Surface
	Handle  = surface.Handle
	Rect    = surface.Rect
	Usage   = surface.Usage

	Format = pixfmt.Format

	// Memory is client memory holding a copy of one frame.
	Memory    = memory.Memory
	Allocator = memory.Allocator

	RetryPolicy  = surface.RetryPolicy
	PreviewStats = surface.Stats
)

const (
	MsgError           = media.MsgError
	MsgShutter         = media.MsgShutter
	MsgFocus           = media.MsgFocus
	MsgZoom            = media.MsgZoom
	MsgPreviewFrame    = media.MsgPreviewFrame
	MsgVideoFrame      = media.MsgVideoFrame
	MsgPostviewFrame   = media.MsgPostviewFrame
	MsgRawImage        = media.MsgRawImage
	MsgCompressedImage = media.MsgCompressedImage
	MsgRawImageNotify  = media.MsgRawImageNotify
	MsgPreviewMetadata = media.MsgPreviewMetadata
	MsgAll             = media.MsgAll
)

// Callbacks deliver camera events to the application. They run on the
// camera's capture goroutine and must not block for long.
//
// Memory passed to Data belongs to the callee, except video frames, which
// must be handed back with ReleaseRecordingFrame. Memory passed to
// DataTimestamp is always a video frame.
type Callbacks struct {
	Notify        func(msg MsgType, ext1, ext2 int32)
	Data          func(msg MsgType, mem *Memory)
	DataTimestamp func(ts time.Duration, msg MsgType, mem *Memory)
}
