package media

import (
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/pixfmt"
)

func init() {
	RegisterSourceType("pattern", func(path string) (Hardware, error) {
		config, err := ParsePatternConfig(path)
		if err != nil {
			return nil, err
		}
		return NewPattern(config)
	})
}

type PatternType int

const (
	PatternColorBars PatternType = iota // 75% color bars
	PatternGray                         // Mid-gray, Y=U=V=128
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "bars"
	case PatternGray:
		return "gray"
	default:
		return "unknown"
	}
}

type PatternConfig struct {
	Width   int           // Frame width (default: 640)
	Height  int           // Frame height (default: 480)
	Format  pixfmt.Format // YUV420SP or YUV422I (default: YUV420SP)
	FPS     int           // Frames per second (default: 30)
	Pattern PatternType
	Overlay bool // Deliver preview frames through an overlay

	Clock clock.Clock
}

func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		Width:  640,
		Height: 480,
		Format: pixfmt.YUV420SP,
		FPS:    30,
	}
}

// ParsePatternConfig parses a source path of the form
//
//	WxH[:option...]
//
// where each option is a format name ("yuv420sp", "yuv422i-yuyv"), a frame
// rate, a pattern name ("bars", "gray") or "overlay". An empty path selects
// the defaults.
func ParsePatternConfig(path string) (PatternConfig, error) {
	config := DefaultPatternConfig()
	if path == "" {
		return config, nil
	}

	parts := strings.Split(path, ":")
	if parts[0] != "" {
		var err error
		config.Width, config.Height, err = parseSize(parts[0])
		if err != nil {
			return config, err
		}
	}

	for _, opt := range parts[1:] {
		if f, err := pixfmt.ParseFormat(opt); err == nil {
			config.Format = f
			continue
		}
		if fps, err := strconv.Atoi(opt); err == nil {
			config.FPS = fps
			continue
		}
		switch opt {
		case "overlay":
			config.Overlay = true
		case "bars":
			config.Pattern = PatternColorBars
		case "gray":
			config.Pattern = PatternGray
		default:
			return config, errors.Errorf("invalid pattern option %q", opt)
		}
	}
	return config, nil
}

func parseSize(s string) (w, h int, err error) {
	i := strings.IndexByte(s, 'x')
	if i < 0 {
		return 0, 0, errors.Errorf("invalid frame size %q", s)
	}
	if w, err = strconv.Atoi(s[:i]); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid frame width in %q", s)
	}
	if h, err = strconv.Atoi(s[i+1:]); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid frame height in %q", s)
	}
	return w, h, nil
}

// Pattern is synthetic camera Hardware producing a fixed test image at a
// steady rate.
type Pattern struct {
	Base

	config PatternConfig
	frame  []byte
}

func NewPattern(config PatternConfig) (*Pattern, error) {
	if config.Width <= 0 || config.Height <= 0 || config.Width%2 != 0 {
		return nil, errors.Errorf("invalid pattern size %dx%d", config.Width, config.Height)
	}
	if config.FPS <= 0 {
		return nil, errors.Errorf("invalid pattern frame rate %d", config.FPS)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}

	p := &Pattern{config: config}
	switch config.Format {
	case pixfmt.YUV420SP:
		p.frame = make([]byte, config.Width*config.Height+config.Width*((config.Height+1)/2))
	case pixfmt.YUV422I:
		p.frame = make([]byte, config.Width*config.Height*2)
	default:
		return nil, errors.Wrapf(pixfmt.ErrUnsupportedFormat, "pattern format %v", config.Format)
	}
	p.fill()

	p.Init(Parameters{
		PreviewWidth:     config.Width,
		PreviewHeight:    config.Height,
		PreviewFormat:    config.Format.String(),
		PreviewFrameRate: config.FPS,
	}, config.Overlay, p.capture)
	log.Info("Opened %v pattern %dx%d %v @ %d fps", config.Pattern, config.Width, config.Height, config.Format, config.FPS)
	return p, nil
}

// Frame returns the frame the pattern delivers.
func (p *Pattern) Frame() []byte {
	return p.frame
}

func (p *Pattern) capture(quit <-chan struct{}) {
	ticker := p.config.Clock.Ticker(time.Second / time.Duration(p.config.FPS))
	defer ticker.Stop()

	start := p.config.Clock.Now()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			p.Deliver(p.frame, p.config.Clock.Since(start))
		}
	}
}

var colorBarsRGB = [][3]int{
	{192, 192, 192}, // White (75%)
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
}

// BT.601 studio swing.
func rgbToYUV(c [3]int) (y, u, v byte) {
	r, g, b := c[0], c[1], c[2]
	y = byte(((66*r + 129*g + 25*b + 128) >> 8) + 16)
	u = byte(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
	v = byte(((112*r - 94*g - 18*b + 128) >> 8) + 128)
	return
}

func (p *Pattern) colorAt(x int) (y, u, v byte) {
	if p.config.Pattern == PatternGray {
		return 128, 128, 128
	}
	bar := x * len(colorBarsRGB) / p.config.Width
	return rgbToYUV(colorBarsRGB[bar])
}

func (p *Pattern) fill() {
	w, h := p.config.Width, p.config.Height
	switch p.config.Format {
	case pixfmt.YUV420SP:
		chroma := p.frame[w*h:]
		for x := 0; x < w; x += 2 {
			y, u, v := p.colorAt(x)
			for row := 0; row < h; row++ {
				p.frame[row*w+x] = y
				p.frame[row*w+x+1] = y
			}
			for row := 0; row < (h+1)/2; row++ {
				chroma[row*w+x] = v
				chroma[row*w+x+1] = u
			}
		}
	case pixfmt.YUV422I:
		for x := 0; x < w; x += 2 {
			y, u, v := p.colorAt(x)
			for row := 0; row < h; row++ {
				i := (row*w + x) * 2
				p.frame[i] = y
				p.frame[i+1] = u
				p.frame[i+2] = y
				p.frame[i+3] = v
			}
		}
	}
}
