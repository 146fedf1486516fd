//go:build linux && (amd64 || arm64 || 386 || arm)

package v4l2

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/videodev2.h

const (
	V4L2_BUF_TYPE_VIDEO_CAPTURE = 1
	V4L2_MEMORY_MMAP            = 1
	V4L2_FIELD_ANY              = 0

	V4L2_CAP_VIDEO_CAPTURE = 0x00000001
	V4L2_CAP_STREAMING     = 0x04000000

	V4L2_CID_BASE  = 0x00980900
	V4L2_CID_HFLIP = V4L2_CID_BASE + 20
	V4L2_CID_VFLIP = V4L2_CID_BASE + 21
)

// Layouts without pointers or 64-bit fields are the same on every arch.
const (
	VIDIOC_QUERYCAP  = 0x80685600
	VIDIOC_REQBUFS   = 0xc0145608
	VIDIOC_STREAMON  = 0x40045612
	VIDIOC_STREAMOFF = 0x40045613
	VIDIOC_S_PARM    = 0xc0cc5616
	VIDIOC_S_CTRL    = 0xc008561c
)

type v4l2_capability struct {
	driver       [16]byte
	card         [32]byte
	bus_info     [32]byte
	version      uint32
	capabilities uint32
	device_caps  uint32
	reserved     [3]uint32
}

type v4l2_pix_format struct {
	width        uint32 // 0
	height       uint32 // 4
	pixelformat  uint32 // 8
	field        uint32 // 12
	bytesperline uint32 // 16
	sizeimage    uint32 // 20
	colorspace   uint32 // 24
	priv         uint32 // 28
	flags        uint32 // 32
	ycbcr_enc    uint32 // 36
	quantization uint32 // 40
	xfer_func    uint32 // 44
}

type v4l2_requestbuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2_timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2_fract struct {
	numerator   uint32
	denominator uint32
}

type v4l2_streamparm struct {
	typ          uint32
	capability   uint32     // 4
	capturemode  uint32     // 8
	timeperframe v4l2_fract // 12
	extendedmode uint32     // 20
	readbuffers  uint32     // 24
	_            [176]byte  // 28
}

type v4l2_control struct {
	id    uint32
	value int32
}
