//go:build linux && (amd64 || arm64 || 386 || arm)

package v4l2

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/media"
	"github.com/lanikai/camerahal/internal/pixfmt"
)

// How long the capture loop blocks before checking for shutdown.
const pollInterval = 100 * time.Millisecond

// Camera is media.Hardware backed by a V4L2 capture device.
type Camera struct {
	media.Base

	cfg   Config
	dev   *device
	pitch int

	// Scratch for frames with line padding.
	packed []byte
}

// Open a V4L2 video device and negotiate the capture format.
func Open(cfg Config) (media.Hardware, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	code, _ := fourcc(cfg.Format)

	dev, err := openDevice(cfg.Device)
	if err != nil {
		return nil, err
	}

	c, err := negotiate(dev, cfg, code)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return c, nil
}

func negotiate(dev *device, cfg Config, code uint32) (*Camera, error) {
	driver, err := dev.queryCapabilities()
	if err != nil {
		return nil, err
	}

	pix, err := dev.setPixelFormat(cfg.Width, cfg.Height, code)
	if err != nil {
		return nil, err
	}
	if pix.pixelformat != code {
		return nil, errors.Wrapf(pixfmt.ErrUnsupportedFormat, "%s does not capture %v", cfg.Device, cfg.Format)
	}
	cfg.Width, cfg.Height = int(pix.width), int(pix.height)

	pitch := int(pix.bytesperline)
	switch cfg.Format {
	case pixfmt.YUV422I:
		if pitch < cfg.Width*2 {
			pitch = cfg.Width * 2
		}
	case pixfmt.YUV420SP:
		if pitch != 0 && pitch != cfg.Width {
			return nil, errors.Errorf("%s: padded NV21 lines (%d bytes) not supported", cfg.Device, pitch)
		}
		pitch = cfg.Width
	}

	if cfg.FrameRate > 0 {
		if err := dev.setFrameRate(cfg.FrameRate); err != nil {
			log.Warn("%s: cannot set frame rate: %v", cfg.Device, err)
		}
	}
	if cfg.HFlip {
		if err := dev.setControl(V4L2_CID_HFLIP, 1); err != nil {
			return nil, err
		}
	}
	if cfg.VFlip {
		if err := dev.setControl(V4L2_CID_VFLIP, 1); err != nil {
			return nil, err
		}
	}
	if cfg.Buffers == 0 {
		cfg.Buffers = DefaultConfig().Buffers
	}

	c := &Camera{cfg: cfg, dev: dev, pitch: pitch}
	c.Init(media.Parameters{
		PreviewWidth:     cfg.Width,
		PreviewHeight:    cfg.Height,
		PreviewFormat:    cfg.Format.String(),
		PreviewFrameRate: cfg.FrameRate,
	}, cfg.Overlay, c.capture)

	log.Info("Opened %s (%s) %dx%d %v, %d bytes per line", cfg.Device, driver, cfg.Width, cfg.Height, cfg.Format, pitch)
	return c, nil
}

func (c *Camera) capture(quit <-chan struct{}) {
	if err := c.dev.start(c.cfg.Buffers); err != nil {
		log.Error("%s: start capture: %v", c.cfg.Device, err)
		c.Notify(media.MsgError, 1, 0)
		return
	}
	defer func() {
		if err := c.dev.stop(); err != nil {
			log.Warn("%s: stop capture: %v", c.cfg.Device, err)
		}
	}()

	deliver := func(frame []byte, ts time.Duration) {
		if c.cfg.Format == pixfmt.YUV422I {
			frame = compact(c.packed, frame, c.cfg.Width*2, c.pitch, c.cfg.Height)
			if c.pitch != c.cfg.Width*2 {
				c.packed = frame
			}
		}
		c.Deliver(frame, ts)
	}

	for {
		select {
		case <-quit:
			return
		default:
		}

		ready, err := c.dev.wait(pollInterval)
		if err == nil && ready {
			err = c.dev.readFrame(deliver)
		}
		if err != nil {
			log.Error("%s: capture: %v", c.cfg.Device, err)
			c.Notify(media.MsgError, 1, 0)
			return
		}
	}
}

// Release stops capture and closes the device.
func (c *Camera) Release() error {
	c.Base.Release()
	return errors.Wrapf(c.dev.Close(), "close %s", c.cfg.Device)
}
