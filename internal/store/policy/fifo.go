package policy

import (
	"sync"

	"go.uber.org/zap"
)

// FIFOPolicy implements the First-In-First-Out (FIFO) eviction strategy.
// Reads and overwrites never change a key's position.
type FIFOPolicy struct {
	mu       sync.Mutex
	capacity int
	keyspace Keyspace
	order    *recency
	stats    *tracker
	logger   *zap.Logger
}

// NewFIFO creates a new FIFO policy instance.
func NewFIFO(capacity int, ks Keyspace, opts ...Option) *FIFOPolicy {
	return newFIFO(capacity, ks, newConfig(opts...).defaulted())
}

func newFIFO(capacity int, ks Keyspace, cfg config) *FIFOPolicy {
	return &FIFOPolicy{
		capacity: capacity,
		keyspace: ks,
		order:    newRecency(),
		stats:    newTracker(cfg.delta, nil),
		logger:   cfg.logger,
	}
}

func (p *FIFOPolicy) Name() Kind { return KindFIFO }

func (p *FIFOPolicy) Update(key string, isSet bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := liveSet(p.keyspace)
	_, inCache := live[key]
	p.stats.observe(key, isSet, inCache)
	p.order.retain(live)

	if !isSet || !inCache {
		return nil
	}
	// pushBack keeps the first insertion position
	p.order.pushBack(key)

	if p.capacity <= 0 {
		return nil
	}
	var victims []string
	for p.order.len() > p.capacity {
		victim, _ := p.order.oldest()
		p.order.remove(victim)
		p.keyspace.Delete(victim)
		p.stats.evicted(victim)
		victims = append(victims, victim)
		p.logger.Debug("fifo evicted", zap.String("key", victim))
	}
	return victims
}

// Keys returns the tracked keys in insertion order.
func (p *FIFOPolicy) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.keys()
}

func (p *FIFOPolicy) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.snapshot()
}
