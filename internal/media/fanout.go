package media

import (
	"sync"
)

// Fanout copies byte slices to any number of subscribers. A slow subscriber
// loses its oldest pending slice rather than blocking the writer.
type Fanout struct {
	// Start is called when the first subscriber is added.
	Start func()

	// Stop is called when the last subscriber is removed.
	Stop func()

	subscribers map[chan []byte]*uint64

	mu sync.Mutex
}

func (f *Fanout) Subscribe(capacity int) <-chan []byte {
	if capacity <= 0 {
		panic("media.Fanout: subscriber capacity must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers == nil {
		f.subscribers = make(map[chan []byte]*uint64)
	}
	s := make(chan []byte, capacity)
	f.subscribers[s] = new(uint64)
	if f.Start != nil && len(f.subscribers) == 1 {
		f.Start()
	}
	return s
}

// Unsubscribe closes s. It returns how many slices s missed.
func (f *Fanout) Unsubscribe(s <-chan []byte) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	for c, missed := range f.subscribers {
		if c == s {
			close(c)
			delete(f.subscribers, c)
			if f.Stop != nil && len(f.subscribers) == 0 {
				go f.Stop()
			}
			return *missed
		}
	}
	return 0
}

// Subscribers returns the current subscriber count.
func (f *Fanout) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// Write passes p to every subscriber. Subscribers share p and must not
// modify it.
func (f *Fanout) Write(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for s, missed := range f.subscribers {
		select {
		case s <- p:
		default:
			// Drop oldest, add newest.
			select {
			case <-s:
			default:
			}
			s <- p
			*missed++
			log.Trace(5, "subscriber missed a frame (%d total)", *missed)
		}
	}
	return len(p), nil
}

func (f *Fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for s := range f.subscribers {
		close(s)
	}
	f.subscribers = nil
	return nil
}
