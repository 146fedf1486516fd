//go:build linux && (386 || arm)

package v4l2

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	_ [0]struct{} = [unsafe.Sizeof(v4l2_buffer{}) - 68]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2_format{}) - 204]struct{}{}
	_ [0]struct{} = [unsafe.Sizeof(v4l2_streamparm{}) - 204]struct{}{}
)

const (
	VIDIOC_S_FMT    = 0xc0cc5605
	VIDIOC_QUERYBUF = 0xc0445609
	VIDIOC_QBUF     = 0xc044560f
	VIDIOC_DQBUF    = 0xc0445611
)

type v4l2_format struct {
	typ uint32
	fmt [200]byte
}

type v4l2_buffer struct {
	index     uint32        // 0
	typ       uint32        // 4
	bytesused uint32        // 8
	flags     uint32        // 12
	field     uint32        // 16
	timestamp unix.Timeval  // 20
	timecode  v4l2_timecode // 28
	sequence  uint32        // 44
	memory    uint32        // 48
	offset    uint32        // 52, union m
	length    uint32        // 56
	_         [8]byte       // 60
}
