//go:build linux && (amd64 || arm64)

package v4l2

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Fail to compile if a layout drifts from the kernel's.
var (
	_ [0]struct{} = [unsafe.Sizeof(v4l2_buffer{}) - 88]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2_format{}) - 208]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2_streamparm{}) - 204]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2_capability{}) - 104]struct{}{}
	_ [0]struct{} = [unsafe.Offsetof(v4l2_buffer{}.offset) - 64]struct{}{}
)

const (
	VIDIOC_S_FMT    = 0xc0d05605
	VIDIOC_QUERYBUF = 0xc0585609
	VIDIOC_QBUF     = 0xc058560f
	VIDIOC_DQBUF    = 0xc0585611
)

// The format union holds pointers, so it is 8-byte aligned here.
type v4l2_format struct {
	typ uint32
	_   [4]byte
	fmt [200]byte
}

type v4l2_buffer struct {
	index     uint32        // 0
	typ       uint32        // 4
	bytesused uint32        // 8
	flags     uint32        // 12
	field     uint32        // 16
	_         [4]byte       // 20
	timestamp unix.Timeval  // 24
	timecode  v4l2_timecode // 40
	sequence  uint32        // 56
	memory    uint32        // 60
	offset    uint32        // 64, union m
	_         [4]byte       // 68
	length    uint32        // 72
	_         [12]byte      // 76
}
