package pixfmt

import (
	"github.com/pkg/errors"
)

// Format identifies a frame's pixel encoding.
type Format int

const (
	Unknown  Format = iota
	YUV420SP        // Y plane followed by interleaved VU at half resolution (NV21)
	YUV422I         // Interleaved Y1 U Y2 V (YUYV)
	RGB565          // Packed 16-bit 5-6-5, little endian
)

var (
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrShortBuffer       = errors.New("buffer too short for frame geometry")
)

// Names accepted by ParseFormat. Matching is exact.
var formatNames = map[string]Format{
	"yuv420sp":     YUV420SP,
	"yuv422i-yuyv": YUV422I,
	"rgb565":       RGB565,
}

// ParseFormat maps a preview format name, as reported by the camera
// parameters, to a Format.
func ParseFormat(name string) (Format, error) {
	if f, ok := formatNames[name]; ok {
		return f, nil
	}
	return Unknown, errors.Wrapf(ErrUnsupportedFormat, "format name %q", name)
}

func (f Format) String() string {
	switch f {
	case YUV420SP:
		return "yuv420sp"
	case YUV422I:
		return "yuv422i-yuyv"
	case RGB565:
		return "rgb565"
	default:
		return "unknown"
	}
}

// BitsPerPixel returns the average storage cost of one pixel.
func (f Format) BitsPerPixel() int {
	switch f {
	case YUV420SP:
		return 12
	case YUV422I, RGB565:
		return 16
	default:
		return 0
	}
}

// FrameSize returns the byte length of a tightly packed width x height frame.
func (f Format) FrameSize(width, height int) int {
	return width * height * f.BitsPerPixel() / 8
}
