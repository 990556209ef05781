package policy

import (
	"container/list"
	"sync"

	"go.uber.org/zap"
)

// LFUPolicy implements the Least Frequently Used (LFU) eviction strategy
// with O(1) bookkeeping: keys are bucketed by frequency, each bucket kept
// in touch order, and minFreq names the lowest non-empty bucket.
type LFUPolicy struct {
	mu       sync.Mutex
	capacity int
	keyspace Keyspace

	freq    map[string]int
	groups  map[int]*list.List
	elems   map[string]*list.Element
	minFreq int

	stats  *tracker
	logger *zap.Logger
}

// NewLFU creates a new LFU policy instance.
func NewLFU(capacity int, ks Keyspace, opts ...Option) *LFUPolicy {
	return newLFU(capacity, ks, newConfig(opts...).defaulted())
}

func newLFU(capacity int, ks Keyspace, cfg config) *LFUPolicy {
	return &LFUPolicy{
		capacity: capacity,
		keyspace: ks,
		freq:     make(map[string]int),
		groups:   make(map[int]*list.List),
		elems:    make(map[string]*list.Element),
		stats:    newTracker(cfg.delta, nil),
		logger:   cfg.logger,
	}
}

func (p *LFUPolicy) Name() Kind { return KindLFU }

// Update bumps the frequency of a tracked key. A newly set key is inserted
// with frequency 1, first evicting the oldest key of the lowest frequency
// when the policy is full.
func (p *LFUPolicy) Update(key string, isSet bool) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := liveSet(p.keyspace)
	_, inCache := live[key]
	p.stats.observe(key, isSet, inCache)
	p.reconcile(live)

	if _, ok := p.freq[key]; ok {
		p.increment(key)
		return nil
	}
	if !isSet || !inCache {
		return nil
	}

	var victims []string
	if p.capacity > 0 && len(p.freq) >= p.capacity {
		if victim, ok := p.evict(); ok {
			victims = append(victims, victim)
		}
	}
	p.insert(key)
	return victims
}

func (p *LFUPolicy) increment(key string) {
	f := p.freq[key]
	p.detach(key, f)
	if _, ok := p.groups[f]; !ok && p.minFreq == f {
		p.minFreq = f + 1
	}
	p.attach(key, f+1)
}

func (p *LFUPolicy) insert(key string) {
	p.attach(key, 1)
	p.minFreq = 1
}

// evict pops the oldest key of the minFreq bucket. Callers must hold p.mu.
func (p *LFUPolicy) evict() (string, bool) {
	group, ok := p.groups[p.minFreq]
	if !ok {
		p.recomputeMin()
		if group, ok = p.groups[p.minFreq]; !ok {
			return "", false
		}
	}
	victim := group.Front().Value.(string)
	f := p.minFreq
	p.detach(victim, f)

	p.keyspace.Delete(victim)
	p.stats.evicted(victim)
	p.logger.Debug("lfu evicted", zap.String("key", victim), zap.Int("freq", f))
	return victim, true
}

func (p *LFUPolicy) attach(key string, f int) {
	group, ok := p.groups[f]
	if !ok {
		group = list.New()
		p.groups[f] = group
	}
	p.elems[key] = group.PushBack(key)
	p.freq[key] = f
}

// detach removes key from its bucket and drops the bucket once empty.
func (p *LFUPolicy) detach(key string, f int) {
	group := p.groups[f]
	group.Remove(p.elems[key])
	if group.Len() == 0 {
		delete(p.groups, f)
	}
	delete(p.elems, key)
	delete(p.freq, key)
}

// reconcile forgets keys that vanished from the keyspace.
func (p *LFUPolicy) reconcile(live map[string]struct{}) {
	for key, f := range p.freq {
		if _, ok := live[key]; !ok {
			p.detach(key, f)
		}
	}
	if _, ok := p.groups[p.minFreq]; !ok && len(p.groups) > 0 {
		p.recomputeMin()
	}
}

func (p *LFUPolicy) recomputeMin() {
	first := true
	for f := range p.groups {
		if first || f < p.minFreq {
			p.minFreq = f
			first = false
		}
	}
}

// Frequency returns the tracked frequency of key, 0 if untracked.
func (p *LFUPolicy) Frequency(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq[key]
}

// MinFrequency returns the lowest tracked frequency, 0 when nothing is tracked.
func (p *LFUPolicy) MinFrequency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.freq) == 0 {
		return 0
	}
	return p.minFreq
}

func (p *LFUPolicy) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.snapshot()
}
