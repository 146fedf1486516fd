package camerahal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/camerahal/internal/surface"
	"github.com/lanikai/camerahal/internal/surface/surfacetest"
)

func TestRetryPolicyDefaults(t *testing.T) {
	for name, tc := range map[string]struct {
		cfg      Config
		retries  int
		interval time.Duration
	}{
		"zero value": {Config{}, surface.DefaultLockRetries, surface.DefaultLockInterval},
		"default":    {DefaultConfig(), surface.DefaultLockRetries, surface.DefaultLockInterval},
		"explicit":   {Config{LockRetries: 2, LockInterval: 3 * time.Millisecond}, 2, 3 * time.Millisecond},
		"none":       {Config{LockRetries: -1, LockInterval: -1}, 0, 0},
	} {
		p := tc.cfg.retryPolicy()
		assert.Equal(t, tc.retries, p.Retries, name)
		assert.Equal(t, tc.interval, p.Interval, name)
		assert.NotNil(t, p.Clock, name)
	}
}

func TestZeroConfigRetriesLock(t *testing.T) {
	hw := newFakeHardware("yuv420sp", false)
	d := New(hw, Config{LockInterval: -1})
	defer d.Close()

	fake := &surfacetest.Fake{FailLock: func(int) bool { return true }}
	require.NoError(t, d.SetPreviewWindow(fake))
	require.NoError(t, d.StartPreview())
	hw.Deliver(grayFrame, 0)

	assert.Equal(t, 1+surface.DefaultLockRetries, fake.Locks)
	assert.Equal(t, []string{"cancelled"}, fake.Dispositions)
}
