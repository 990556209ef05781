package policy

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// KeyMeta is per-key access metadata kept by the LRU policy.
type KeyMeta struct {
	LastAccess time.Time
	Hits       int
	Sets       int
}

// LRUPolicy implements the Least Recently Used (LRU) eviction strategy.
type LRUPolicy struct {
	mu       sync.Mutex
	capacity int
	keyspace Keyspace
	queue    *recency
	meta     map[string]*KeyMeta
	stats    *tracker
	now      func() time.Time
	logger   *zap.Logger
}

// NewLRU creates a new LRU policy instance.
func NewLRU(capacity int, ks Keyspace, opts ...Option) *LRUPolicy {
	return newLRU(capacity, ks, newConfig(opts...).defaulted())
}

func newLRU(capacity int, ks Keyspace, cfg config) *LRUPolicy {
	return &LRUPolicy{
		capacity: capacity,
		keyspace: ks,
		queue:    newRecency(),
		meta:     make(map[string]*KeyMeta),
		stats:    newTracker(cfg.delta, nil),
		now:      cfg.now,
		logger:   cfg.logger,
	}
}

func (p *LRUPolicy) Name() Kind { return KindLRU }

// Update moves a tracked key to the most recent position, appends a newly
// set key, then evicts from the least recent end while over capacity.
func (p *LRUPolicy) Update(key string, isSet bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := liveSet(p.keyspace)
	_, inCache := live[key]
	p.stats.observe(key, isSet, inCache)

	for _, k := range p.queue.retain(live) {
		delete(p.meta, k)
	}

	if !p.queue.touch(key) {
		if !isSet || !inCache {
			// read miss
			return nil
		}
		p.queue.pushBack(key)
		p.meta[key] = &KeyMeta{}
	}
	p.record(key, isSet)

	if p.capacity <= 0 {
		return nil
	}
	var victims []string
	for p.queue.len() > p.capacity {
		victim, _ := p.queue.oldest()
		p.queue.remove(victim)
		delete(p.meta, victim)
		p.keyspace.Delete(victim)
		p.stats.evicted(victim)
		victims = append(victims, victim)
		p.logger.Debug("lru evicted", zap.String("key", victim))
	}
	return victims
}

func (p *LRUPolicy) record(key string, isSet bool) {
	m := p.meta[key]
	m.LastAccess = p.now()
	if isSet {
		m.Sets++
	} else {
		m.Hits++
	}
}

// Meta returns the access metadata of a tracked key.
func (p *LRUPolicy) Meta(key string) (KeyMeta, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.meta[key]
	if !ok {
		return KeyMeta{}, false
	}
	return *m, true
}

// Keys returns the tracked keys from least to most recently used.
func (p *LRUPolicy) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.keys()
}

func (p *LRUPolicy) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.snapshot()
}
