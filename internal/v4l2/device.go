//go:build linux && (amd64 || arm64 || 386 || arm)

package v4l2

import (
	"bytes"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// A V4L2 character device.
type device struct {
	// Device path, usually "/dev/video0".
	path string

	// File descriptor of v4l2 device.
	fd int

	// Memory-mapped kernel buffers, by index.
	buffers [][]byte
}

func openDevice(path string) (*device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &device{path: path, fd: fd}, nil
}

func (dev *device) Close() error {
	err := dev.stop()
	if cerr := unix.Close(dev.fd); err == nil {
		err = cerr
	}
	return err
}

func (dev *device) ioctl(request uint, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(
			unix.SYS_IOCTL,
			uintptr(dev.fd),
			uintptr(request),
			uintptr(arg),
		)
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

// Check the device can stream video capture, and return its driver name.
func (dev *device) queryCapabilities() (string, error) {
	var c v4l2_capability
	if err := dev.ioctl(VIDIOC_QUERYCAP, unsafe.Pointer(&c)); err != nil {
		return "", errors.Wrap(err, "VIDIOC_QUERYCAP")
	}
	caps := c.capabilities
	if c.device_caps != 0 {
		caps = c.device_caps
	}
	if caps&V4L2_CAP_VIDEO_CAPTURE == 0 || caps&V4L2_CAP_STREAMING == 0 {
		return "", errors.Errorf("%s: not a streaming capture device", dev.path)
	}
	return string(bytes.TrimRight(c.driver[:], "\x00")), nil
}

// Set the capture format. The driver may adjust it, so return what it chose.
func (dev *device) setPixelFormat(width, height int, format uint32) (v4l2_pix_format, error) {
	f := v4l2_format{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	pix := (*v4l2_pix_format)(unsafe.Pointer(&f.fmt[0]))
	*pix = v4l2_pix_format{
		width:       uint32(width),
		height:      uint32(height),
		pixelformat: format,
		field:       V4L2_FIELD_ANY,
	}
	if err := dev.ioctl(VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return v4l2_pix_format{}, errors.Wrap(err, "VIDIOC_S_FMT")
	}
	return *pix, nil
}

func (dev *device) setFrameRate(fps int) error {
	p := v4l2_streamparm{
		typ:          V4L2_BUF_TYPE_VIDEO_CAPTURE,
		timeperframe: v4l2_fract{numerator: 1, denominator: uint32(fps)},
	}
	return errors.Wrap(dev.ioctl(VIDIOC_S_PARM, unsafe.Pointer(&p)), "VIDIOC_S_PARM")
}

func (dev *device) setControl(id uint32, value int32) error {
	ctrl := v4l2_control{id: id, value: value}
	return errors.Wrapf(dev.ioctl(VIDIOC_S_CTRL, unsafe.Pointer(&ctrl)), "VIDIOC_S_CTRL %#x", id)
}

// Request specified number of kernel buffers memory-mapped to user-space.
func (dev *device) requestBuffers(n int) (int, error) {
	rb := v4l2_requestbuffers{
		count:  uint32(n),
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := dev.ioctl(VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err != nil {
		return 0, errors.Wrap(err, "VIDIOC_REQBUFS")
	}
	return int(rb.count), nil
}

func (dev *device) mapMemory(n int) error {
	if dev.buffers != nil {
		panic("v4l2 device: memory already mapped")
	}

	count, err := dev.requestBuffers(n)
	if err != nil {
		return err
	}
	if count == 0 {
		return errors.Errorf("%s: driver granted no buffers", dev.path)
	}

	for i := 0; i < count; i++ {
		qb := v4l2_buffer{
			index:  uint32(i),
			typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
			memory: V4L2_MEMORY_MMAP,
		}
		if err := dev.ioctl(VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
			return errors.Wrap(err, "VIDIOC_QUERYBUF")
		}
		buf, err := unix.Mmap(dev.fd, int64(qb.offset), int(qb.length),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return errors.Wrap(err, "mmap")
		}
		dev.buffers = append(dev.buffers, buf)
	}
	return nil
}

func (dev *device) unmapMemory() error {
	for _, buf := range dev.buffers {
		if err := unix.Munmap(buf); err != nil {
			return errors.Wrap(err, "munmap")
		}
	}
	dev.buffers = nil

	_, err := dev.requestBuffers(0)
	return err
}

func (dev *device) enqueue(index int) error {
	qbuf := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
		index:  uint32(index),
	}
	return errors.Wrap(dev.ioctl(VIDIOC_QBUF, unsafe.Pointer(&qbuf)), "VIDIOC_QBUF")
}

func (dev *device) start(numBuffers int) error {
	if err := dev.mapMemory(numBuffers); err != nil {
		dev.unmapMemory()
		return err
	}
	for i := range dev.buffers {
		if err := dev.enqueue(i); err != nil {
			dev.unmapMemory()
			return err
		}
	}
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := dev.ioctl(VIDIOC_STREAMON, unsafe.Pointer(&typ)); err != nil {
		dev.unmapMemory()
		return errors.Wrap(err, "VIDIOC_STREAMON")
	}
	return nil
}

func (dev *device) stop() error {
	if dev.buffers == nil {
		return nil
	}
	// Disable stream (dequeues any outstanding buffers as well).
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := dev.ioctl(VIDIOC_STREAMOFF, unsafe.Pointer(&typ)); err != nil {
		log.Warn("VIDIOC_STREAMOFF on %s: %v", dev.path, err)
	}
	return dev.unmapMemory()
}

// Wait up to timeout for a frame to become available.
func (dev *device) wait(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(dev.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "poll")
	}
	return n > 0, nil
}

// Dequeue one filled buffer, pass it to fn, and hand it back to the driver.
// The slice is only valid during fn.
func (dev *device) readFrame(fn func(frame []byte, ts time.Duration)) error {
	dqbuf := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := dev.ioctl(VIDIOC_DQBUF, unsafe.Pointer(&dqbuf)); err != nil {
		if err == unix.EAGAIN {
			return nil
		}
		return errors.Wrap(err, "VIDIOC_DQBUF")
	}

	buf := dev.buffers[dqbuf.index]
	n := int(dqbuf.bytesused)
	if n > len(buf) {
		n = len(buf)
	}
	fn(buf[:n], time.Duration(dqbuf.timestamp.Nano()))

	return dev.enqueue(int(dqbuf.index))
}
