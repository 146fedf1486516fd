package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(&cfg))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camerad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source: v4l2:/dev/video1:320x240
log_level: debug,surface=trace
display:
  kind: fbdev
  framebuffer: /dev/fb1
preview:
  lock_interval: 2ms
recording:
  enabled: true
  allocator: mmap
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v4l2:/dev/video1:320x240", cfg.Source)
	assert.Equal(t, DisplayFramebuffer, cfg.Display.Kind)
	assert.Equal(t, "/dev/fb1", cfg.Display.Framebuffer)
	assert.Equal(t, 2*time.Millisecond, cfg.Preview.LockInterval)
	assert.True(t, cfg.Recording.Enabled)
	assert.Equal(t, AllocatorMmap, cfg.Recording.Allocator)

	// Unset keys keep their defaults.
	assert.Equal(t, 5, cfg.Preview.LockRetries)
	assert.Equal(t, ":8000", cfg.Display.Address)
	assert.Equal(t, 5*time.Second, cfg.StatsInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		yaml string
		ok   bool
	}{
		"empty":            {"", true},
		"no display":       {"display: {kind: none}", true},
		"bad display":      {"display: {kind: hdmi}", false},
		"no source":        {`source: ""`, false},
		"bad log level":    {"log_level: shouty", false},
		"negative retries": {"preview: {lock_retries: -1}", false},
		"slow lock":        {"preview: {lock_interval: 2s}", false},
		"bad allocator":    {"recording: {allocator: ion}", false},
		"not yaml":         {"source: [", false},
	} {
		_, err := Parse([]byte(tc.yaml))
		if tc.ok {
			assert.NoError(t, err, name)
		} else {
			assert.Error(t, err, name)
		}
	}
}
