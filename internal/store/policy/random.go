package policy

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// RandomPolicy implements a random eviction strategy.
type RandomPolicy struct {
	mu       sync.Mutex
	capacity int
	keyspace Keyspace
	items    []string
	rnd      *rand.Rand
	stats    *tracker
	logger   *zap.Logger
}

// NewRandom creates a new Random policy instance.
// Without WithRand or WithSeed the source is time-seeded.
func NewRandom(capacity int, ks Keyspace, opts ...Option) *RandomPolicy {
	return newRandom(capacity, ks, newConfig(opts...).defaulted())
}

func newRandom(capacity int, ks Keyspace, cfg config) *RandomPolicy {
	return &RandomPolicy{
		capacity: capacity,
		keyspace: ks,
		items:    make([]string, 0),
		rnd:      cfg.rnd,
		stats:    newTracker(cfg.delta, nil),
		logger:   cfg.logger,
	}
}

func (p *RandomPolicy) Name() Kind { return KindRandom }

// Update adds a newly set key to the candidate pool and evicts uniformly
// chosen keys while the pool is over capacity.
func (p *RandomPolicy) Update(key string, isSet bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := liveSet(p.keyspace)
	_, inCache := live[key]
	p.stats.observe(key, isSet, inCache)
	p.reconcile(live)

	if !isSet || !inCache {
		return nil
	}
	if !p.contains(key) {
		p.items = append(p.items, key)
	}

	if p.capacity <= 0 {
		return nil
	}
	var victims []string
	for len(p.items) > p.capacity {
		idx := p.rnd.Intn(len(p.items))
		victim := p.items[idx]
		p.removeAt(idx)
		p.keyspace.Delete(victim)
		p.stats.evicted(victim)
		victims = append(victims, victim)
		p.logger.Debug("random evicted", zap.String("key", victim))
	}
	return victims
}

func (p *RandomPolicy) contains(key string) bool {
	for _, k := range p.items {
		if k == key {
			return true
		}
	}
	return false
}

// removeAt swaps the element with the last one and truncates.
func (p *RandomPolicy) removeAt(i int) {
	last := len(p.items) - 1
	p.items[i] = p.items[last]
	p.items = p.items[:last]
}

func (p *RandomPolicy) reconcile(live map[string]struct{}) {
	for i := len(p.items) - 1; i >= 0; i-- {
		if _, ok := live[p.items[i]]; !ok {
			p.removeAt(i)
		}
	}
}

// Len returns the size of the candidate pool.
func (p *RandomPolicy) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *RandomPolicy) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.snapshot()
}
