package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"

	"github.com/lanikai/camerahal/internal/config"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestTeardownRunsEveryStep(t *testing.T) {
	var order []string
	errCamera := errors.New("camera release failed")
	errDisplay := errors.New("framebuffer close failed")

	dev := closerFunc(func() error {
		order = append(order, "camera")
		return errCamera
	})
	err := teardown(dev, []func() error{
		func() error { order = append(order, "viewer"); return nil },
		func() error { order = append(order, "framebuffer"); return errDisplay },
	})

	assert.Equal(t, []string{"camera", "viewer", "framebuffer"}, order)
	assert.Equal(t, []error{errCamera, errDisplay}, multierr.Errors(err))
}

func TestTeardownClean(t *testing.T) {
	dev := closerFunc(func() error { return nil })
	assert.NoError(t, teardown(dev, []func() error{func() error { return nil }}))
	assert.NoError(t, teardown(dev, nil))
}

func TestDeviceConfigKeepsExplicitZero(t *testing.T) {
	cfg := config.Default()
	dc := deviceConfig(&cfg)
	assert.Equal(t, cfg.Preview.LockRetries, dc.LockRetries)
	assert.Equal(t, cfg.Preview.LockInterval, dc.LockInterval)

	cfg.Preview.LockRetries = 0
	cfg.Preview.LockInterval = 0
	dc = deviceConfig(&cfg)
	assert.Equal(t, -1, dc.LockRetries)
	assert.Equal(t, time.Duration(-1), dc.LockInterval)
}
