package media

import (
	"sync"
)

// A loopFunc is a long-running function, e.g. a capture loop. It should terminate
// promptly when the quit channel is closed.
type loopFunc func(quit <-chan struct{})

// A Loop runs a capture function in at most one goroutine at a time. Each
// Start() counts as a vote in favor of running it and Stop() withdraws one;
// the goroutine starts when the count goes from 0 to 1 and is joined when it
// returns to 0. Callers must match every Start with a Stop.
type Loop struct {
	run loopFunc

	votes int

	// Closed when the last vote is withdrawn, to trigger run loop exit.
	quit chan struct{}

	// Closed when the run loop actually terminates.
	terminated chan struct{}

	mu sync.Mutex
}

func NewLoop(run func(quit <-chan struct{})) *Loop {
	return &Loop{run: run}
}

func (loop *Loop) Start() {
	loop.mu.Lock()
	defer loop.mu.Unlock()

	loop.votes++
	if loop.votes > 1 {
		return
	}

	loop.quit = make(chan struct{})
	loop.terminated = make(chan struct{})
	go func(quit <-chan struct{}, terminated chan<- struct{}) {
		defer close(terminated)
		log.Debug("capture loop started")
		loop.run(quit)
	}(loop.quit, loop.terminated)
}

// Stop withdraws a vote. It blocks until the goroutine exits if this was the
// last one. Extra calls are ignored.
func (loop *Loop) Stop() {
	loop.mu.Lock()
	defer loop.mu.Unlock()

	if loop.votes == 0 {
		return
	}
	loop.votes--
	if loop.votes == 0 {
		close(loop.quit)
		<-loop.terminated
		log.Debug("capture loop stopped")

		loop.quit = nil
		loop.terminated = nil
	}
}

func (loop *Loop) Running() bool {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	return loop.votes > 0
}
