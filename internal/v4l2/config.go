package v4l2

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
	"github.com/lanikai/camerahal/internal/media"
	"github.com/lanikai/camerahal/internal/pixfmt"
)

var log = logging.DefaultLogger.WithTag("v4l2")

func init() {
	media.RegisterSourceType("v4l2", func(path string) (media.Hardware, error) {
		cfg, err := ParsePath(path)
		if err != nil {
			return nil, err
		}
		return Open(cfg)
	})
}

type Config struct {
	Device string // Device path, usually "/dev/video0"
	Width  int    // Video width in pixels
	Height int    // Video height in pixels

	// YUV422I or YUV420SP.
	Format pixfmt.Format

	FrameRate int // Requested frames per second; 0 leaves the driver default
	Buffers   int // Number of kernel buffers to map

	HFlip bool // Flip video horizontally
	VFlip bool // Flip video vertically

	// Deliver preview frames through an overlay instead of the data callback.
	Overlay bool
}

func DefaultConfig() Config {
	return Config{
		Device:    "/dev/video0",
		Width:     640,
		Height:    480,
		Format:    pixfmt.YUV422I,
		FrameRate: 30,
		Buffers:   4,
	}
}

// ParsePath parses a source path of the form
//
//	[device][:WxH][:option...]
//
// Options are a format name, a frame rate, "hflip", "vflip" or "overlay".
func ParsePath(path string) (Config, error) {
	cfg := DefaultConfig()
	parts := strings.Split(path, ":")
	if parts[0] != "" {
		cfg.Device = parts[0]
	}
	for _, opt := range parts[1:] {
		if i := strings.IndexByte(opt, 'x'); i > 0 {
			w, werr := strconv.Atoi(opt[:i])
			h, herr := strconv.Atoi(opt[i+1:])
			if werr == nil && herr == nil {
				cfg.Width, cfg.Height = w, h
				continue
			}
		}
		if f, err := pixfmt.ParseFormat(opt); err == nil {
			cfg.Format = f
			continue
		}
		if fps, err := strconv.Atoi(opt); err == nil {
			cfg.FrameRate = fps
			continue
		}
		switch opt {
		case "hflip":
			cfg.HFlip = true
		case "vflip":
			cfg.VFlip = true
		case "overlay":
			cfg.Overlay = true
		default:
			return cfg, errors.Errorf("invalid v4l2 option %q", opt)
		}
	}
	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width%2 != 0 {
		return errors.Errorf("invalid capture size %dx%d", cfg.Width, cfg.Height)
	}
	if _, err := fourcc(cfg.Format); err != nil {
		return err
	}
	if cfg.Buffers < 0 {
		return errors.Errorf("invalid buffer count %d", cfg.Buffers)
	}
	return nil
}

// Four character codes for the capture formats we accept.
const (
	pixFmtYUYV = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	pixFmtNV21 = 'N' | 'V'<<8 | '2'<<16 | '1'<<24
)

func fourcc(f pixfmt.Format) (uint32, error) {
	switch f {
	case pixfmt.YUV422I:
		return pixFmtYUYV, nil
	case pixfmt.YUV420SP:
		return pixFmtNV21, nil
	default:
		return 0, errors.Wrapf(pixfmt.ErrUnsupportedFormat, "v4l2 capture format %v", f)
	}
}

// compact removes per-row padding from a packed frame with the given line
// pitch. It returns src unchanged if there is none.
func compact(dst, src []byte, rowBytes, pitch, rows int) []byte {
	if pitch == rowBytes {
		return src
	}
	dst = dst[:0]
	for r := 0; r < rows && r*pitch+rowBytes <= len(src); r++ {
		dst = append(dst, src[r*pitch:r*pitch+rowBytes]...)
	}
	return dst
}
