package v4l2

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/camerahal/internal/pixfmt"
)

func TestParsePath(t *testing.T) {
	cfg, err := ParsePath("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = ParsePath("/dev/video2:320x240:yuv420sp:15:hflip:overlay")
	require.NoError(t, err)
	assert.Equal(t, "/dev/video2", cfg.Device)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
	assert.Equal(t, pixfmt.YUV420SP, cfg.Format)
	assert.Equal(t, 15, cfg.FrameRate)
	assert.True(t, cfg.HFlip)
	assert.False(t, cfg.VFlip)
	assert.True(t, cfg.Overlay)

	_, err = ParsePath("/dev/video0:rgb565")
	assert.Equal(t, pixfmt.ErrUnsupportedFormat, errors.Cause(err))

	_, err = ParsePath("/dev/video0:321x240")
	assert.Error(t, err)

	_, err = ParsePath("/dev/video0:sepia")
	assert.Error(t, err)
}

func TestFourcc(t *testing.T) {
	code, err := fourcc(pixfmt.YUV422I)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x56595559), code)

	code, err = fourcc(pixfmt.YUV420SP)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3132564e), code)
}

func TestCompact(t *testing.T) {
	src := []byte{
		1, 2, 3, 4, 0xee, 0xee,
		5, 6, 7, 8, 0xee, 0xee,
		9, 10, 11, 12,
	}
	got := compact(nil, src, 4, 6, 3)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, got)

	tight := []byte{1, 2, 3, 4}
	assert.Equal(t, tight, compact(nil, tight, 4, 4, 1))
}
