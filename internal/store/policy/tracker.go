package policy

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// tracker keeps the counters shared by every policy plus a bounded
// window of recent victims. The window is only ever added to, peeked
// and removed from, so the LRU behaves as a FIFO of the last delta keys.
type tracker struct {
	hits        uint64
	misses      uint64
	sets        uint64
	evicts      uint64
	reuseEvicts uint64

	recent *simplelru.LRU[string, struct{}]
}

// newTracker builds a tracker. forget, if set, is called whenever a key
// leaves the recent window, either by aging out or by being re-set.
// delta must be positive: New validates it and the direct constructors
// default it.
func newTracker(delta int, forget func(key string)) *tracker {
	var onEvict simplelru.EvictCallback[string, struct{}]
	if forget != nil {
		onEvict = func(key string, _ struct{}) { forget(key) }
	}
	recent, err := simplelru.NewLRU[string, struct{}](delta, onEvict)
	if err != nil {
		panic(fmt.Sprintf("policy: recent window %d: %v", delta, err))
	}
	return &tracker{recent: recent}
}

// observe counts one access. It reports whether the access was a read
// miss on a recently evicted key.
func (t *tracker) observe(key string, isSet, live bool) bool {
	if isSet {
		t.sets++
		t.recent.Remove(key)
		return false
	}
	if live {
		t.hits++
		return false
	}
	t.misses++
	if t.recent.Contains(key) {
		t.reuseEvicts++
		return true
	}
	return false
}

func (t *tracker) evicted(key string) {
	t.evicts++
	t.recent.Add(key, struct{}{})
}

func (t *tracker) recentlyEvicted(key string) bool {
	return t.recent.Contains(key)
}

func (t *tracker) snapshot() Metrics {
	return Metrics{
		Hits:           t.hits,
		Misses:         t.misses,
		Sets:           t.sets,
		Evictions:      t.evicts,
		ReuseEvictions: t.reuseEvicts,
	}
}
