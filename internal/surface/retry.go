package surface

import (
	"time"

	"github.com/benbjohnson/clock"
)

const (
	DefaultLockRetries  = 5
	DefaultLockInterval = time.Millisecond
)

// RetryPolicy bounds how long Post keeps trying to lock a contended buffer.
// The first attempt is not a retry: a buffer is locked at most 1+Retries
// times.
type RetryPolicy struct {
	Retries  int
	Interval time.Duration

	// Clock used to sleep between attempts. Defaults to the wall clock.
	Clock clock.Clock
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:  DefaultLockRetries,
		Interval: DefaultLockInterval,
		Clock:    clock.New(),
	}
}

func (p RetryPolicy) sleep() {
	if p.Interval <= 0 {
		return
	}
	if p.Clock == nil {
		time.Sleep(p.Interval)
		return
	}
	p.Clock.Sleep(p.Interval)
}
