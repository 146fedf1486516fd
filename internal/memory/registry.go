package memory

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// Registry tracks memory handed to the client as video frames until the
// client returns it. Entries are kept in delivery order and released by the
// registry when removed.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func NewRegistry() *Registry {
	c := lru.New(0)
	c.OnEvicted = func(_ lru.Key, value interface{}) {
		value.(*Memory).Release()
	}
	return &Registry{cache: c}
}

// Add starts tracking m. Memory with no data cannot be returned by the
// client and is not tracked. If another entry already starts at the same
// address, that entry is released and replaced.
func (r *Registry) Add(m *Memory) {
	k := key(m.Bytes())
	if k == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// lru.Cache.Add overwrites in place without calling OnEvicted.
	if old, ok := r.cache.Get(k); ok && old.(*Memory) != m {
		old.(*Memory).Release()
	}
	r.cache.Add(k, m)
}

// Release releases and forgets the entry whose memory starts at data[0].
// It reports whether such an entry existed.
func (r *Registry) Release(data []byte) bool {
	k := key(data)
	if k == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.cache.Len()
	r.cache.Remove(k)
	return r.cache.Len() < n
}

// Drain releases every entry, oldest first, and returns how many there were.
func (r *Registry) Drain() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.cache.Len()
	for r.cache.Len() > 0 {
		r.cache.RemoveOldest()
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}
