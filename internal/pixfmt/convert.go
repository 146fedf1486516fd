package pixfmt

import (
	"github.com/pkg/errors"
)

// Fixed-point BT.601 coefficients scaled by 1024. Intermediate values are
// clamped to 18 bits before being reduced to 5 or 6 bits.
const (
	coefY  = 1192
	coefRV = 1634
	coefGV = 833
	coefGU = 400
	coefBU = 2066

	maxComponent = 262143
)

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxComponent {
		return maxComponent
	}
	return v
}

// putRGB565 writes one pixel at dst[k:k+2]. y is luma, u and v are chroma
// already offset by -128.
func putRGB565(dst []byte, k, y, u, v int) {
	y -= 16
	if y < 0 {
		y = 0
	}
	y1192 := coefY * y
	r := clamp(y1192+coefRV*v) >> 13
	g := clamp(y1192-coefGV*v-coefGU*u) >> 12
	b := clamp(y1192+coefBU*u) >> 13

	dst[k] = byte(g<<5 | b)
	dst[k+1] = byte(r<<3 | g>>3)
}

// dstSize is the number of destination bytes touched for the given
// geometry. Padding after the last row is not required.
func dstSize(width, height, stride int) int {
	if height == 0 || width == 0 {
		return 0
	}
	return ((height-1)*stride + width) * 2
}

func checkGeometry(width, height, stride int) error {
	if width < 0 || height < 0 || stride < width {
		return errors.Errorf("invalid geometry %dx%d stride %d", width, height, stride)
	}
	return nil
}

// Yuv420spToRgb565 converts a semi-planar 4:2:0 frame into RGB565. Each
// destination row is stride pixels long; the bytes between width and stride
// are left untouched. Width must be even.
func Yuv420spToRgb565(dst, src []byte, width, height, stride int) error {
	if err := checkGeometry(width, height, stride); err != nil {
		return err
	}
	frameSize := width * height
	if height > 0 && width > 0 {
		need := frameSize + ((height-1)>>1)*width + 2*((width+1)/2)
		if len(src) < need {
			return errors.Wrapf(ErrShortBuffer, "yuv420sp source %d < %d", len(src), need)
		}
	}
	if n := dstSize(width, height, stride); len(dst) < n {
		return errors.Wrapf(ErrShortBuffer, "rgb565 destination %d < %d", len(dst), n)
	}

	padding := (stride - width) * 2
	k, yp := 0, 0
	for j := 0; j < height; j++ {
		uvp := frameSize + (j>>1)*width
		var u, v int
		for i := 0; i < width; i, yp = i+1, yp+1 {
			if i&1 == 0 {
				v = int(src[uvp]) - 128
				u = int(src[uvp+1]) - 128
				uvp += 2
			}
			putRGB565(dst, k, int(src[yp]), u, v)
			k += 2
		}
		k += padding
	}
	return nil
}

// Yuv422iToRgb565 converts an interleaved 4:2:2 (YUYV) frame into RGB565,
// with the same destination layout as Yuv420spToRgb565. Width must be even.
func Yuv422iToRgb565(dst, src []byte, width, height, stride int) error {
	if err := checkGeometry(width, height, stride); err != nil {
		return err
	}
	pairs := width / 2
	if need := height * pairs * 4; len(src) < need {
		return errors.Wrapf(ErrShortBuffer, "yuv422i source %d < %d", len(src), need)
	}
	padding := (stride - width) * 2
	if height > 0 && pairs > 0 {
		need := (height-1)*(pairs*4+padding) + pairs*4
		if len(dst) < need {
			return errors.Wrapf(ErrShortBuffer, "rgb565 destination %d < %d", len(dst), need)
		}
	}

	s, k := 0, 0
	for j := 0; j < height; j++ {
		for i := 0; i < pairs; i++ {
			y1, u, y2, v := int(src[s]), int(src[s+1])-128, int(src[s+2]), int(src[s+3])-128
			s += 4

			putRGB565(dst, k, y1, u, v)
			putRGB565(dst, k+2, y2, u, v)
			k += 4
		}
		k += padding
	}
	return nil
}

// Convert writes src, encoded as from, into the RGB565 buffer dst. An RGB565
// source is copied verbatim, ignoring stride.
func Convert(dst, src []byte, from Format, width, height, stride int) error {
	switch from {
	case YUV420SP:
		return Yuv420spToRgb565(dst, src, width, height, stride)
	case YUV422I:
		return Yuv422iToRgb565(dst, src, width, height, stride)
	case RGB565:
		if len(dst) < len(src) {
			return errors.Wrapf(ErrShortBuffer, "rgb565 destination %d < %d", len(dst), len(src))
		}
		copy(dst, src)
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "cannot convert %v to rgb565", from)
	}
}
