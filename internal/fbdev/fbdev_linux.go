//go:build linux

package fbdev

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// linux/fb.h
const FBIOGET_VSCREENINFO = 0x4600

type fb_bitfield struct {
	offset    uint32
	length    uint32
	msb_right uint32
}

type fb_var_screeninfo struct {
	xres           uint32
	yres           uint32
	xres_virtual   uint32
	yres_virtual   uint32
	xoffset        uint32
	yoffset        uint32
	bits_per_pixel uint32
	grayscale      uint32
	red            fb_bitfield
	green          fb_bitfield
	blue           fb_bitfield
	transp         fb_bitfield
	nonstd         uint32
	activate       uint32
	height         uint32
	width          uint32
	accel_flags    uint32
	_              [13]uint32 // timings
	reserved       [4]uint32
}

var _ [0]struct{} = [unsafe.Sizeof(fb_var_screeninfo{}) - 160]struct{}{}

// Open maps a 16-bit framebuffer device, usually "/dev/fb0".
func Open(path string) (*Surface, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	var info fb_var_screeninfo
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		uintptr(FBIOGET_VSCREENINFO),
		uintptr(unsafe.Pointer(&info)),
	)
	if errno != 0 {
		unix.Close(fd)
		return nil, errors.Wrapf(errno, "%s: FBIOGET_VSCREENINFO", path)
	}
	if info.bits_per_pixel != 16 || info.green.length != 6 {
		unix.Close(fd)
		return nil, errors.Errorf("%s: %d bpp framebuffer is not RGB565", path, info.bits_per_pixel)
	}

	stride := int(info.xres_virtual)
	size := stride * int(info.yres_virtual) * 2
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "%s: mmap", path)
	}

	log.Info("Opened %s: %dx%d, stride %d", path, info.xres, info.yres, stride)
	return newSurface(mem, int(info.xres), int(info.yres), stride, func() error {
		err := unix.Munmap(mem)
		if cerr := unix.Close(fd); err == nil {
			err = cerr
		}
		return err
	}), nil
}
