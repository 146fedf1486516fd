package camerahal

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/lanikai/camerahal/internal/surface"
)

// Config tunes a Device. The zero value is usable: zero fields take their
// defaults. A negative LockRetries disables retrying and a negative
// LockInterval retries without sleeping.
type Config struct {
	// How hard to try locking a display buffer before giving up on a frame.
	LockRetries  int
	LockInterval time.Duration

	// Clock used between lock attempts. Defaults to the wall clock.
	Clock clock.Clock
}

func DefaultConfig() Config {
	return Config{
		LockRetries:  surface.DefaultLockRetries,
		LockInterval: surface.DefaultLockInterval,
	}
}

func (cfg Config) retryPolicy() RetryPolicy {
	p := surface.DefaultRetryPolicy()
	switch {
	case cfg.LockRetries > 0:
		p.Retries = cfg.LockRetries
	case cfg.LockRetries < 0:
		p.Retries = 0
	}
	switch {
	case cfg.LockInterval > 0:
		p.Interval = cfg.LockInterval
	case cfg.LockInterval < 0:
		p.Interval = 0
	}
	if cfg.Clock != nil {
		p.Clock = cfg.Clock
	}
	return p
}
