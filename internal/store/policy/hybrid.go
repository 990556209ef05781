package policy

import (
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// Expert names one of the heuristics blended by the hybrid policy.
type Expert string

const (
	ExpertLRU Expert = "lru"
	ExpertLFU Expert = "lfu"
)

// Weights is the confidence given to each expert. The fields sum to 1.
type Weights struct {
	LRU float64 `json:"lru"`
	LFU float64 `json:"lfu"`
}

// HybridPolicy runs an LRU expert and a frequency expert side by side over
// the same keys and lets a weighted coin pick whose victim to evict. An
// expert whose victim is read again while still in the recent window is
// penalized with a multiplicative-weights update.
type HybridPolicy struct {
	mu       sync.Mutex
	capacity int
	keyspace Keyspace

	queue *recency
	freq  map[string]int

	weights      Weights
	learningRate float64
	epsilon      float64
	evictedBy    map[string]Expert
	rnd          *rand.Rand

	stats  *tracker
	logger *zap.Logger
}

// NewHybrid creates a new hybrid policy instance.
func NewHybrid(capacity int, ks Keyspace, opts ...Option) *HybridPolicy {
	return newHybrid(capacity, ks, newConfig(opts...).defaulted())
}

func newHybrid(capacity int, ks Keyspace, cfg config) *HybridPolicy {
	h := &HybridPolicy{
		capacity:     capacity,
		keyspace:     ks,
		queue:        newRecency(),
		freq:         make(map[string]int),
		weights:      cfg.weights,
		learningRate: cfg.learningRate,
		epsilon:      cfg.epsilon,
		evictedBy:    make(map[string]Expert),
		rnd:          cfg.rnd,
		logger:       cfg.logger,
	}
	h.stats = newTracker(cfg.delta, func(key string) { delete(h.evictedBy, key) })
	return h
}

func (h *HybridPolicy) Name() Kind { return KindHybrid }

// Update feeds one access to both experts. A write that leaves the keyspace
// at or above capacity triggers exactly one eviction.
func (h *HybridPolicy) Update(key string, isSet bool) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	live := liveSet(h.keyspace)
	_, inCache := live[key]

	if h.stats.observe(key, isSet, inCache) {
		if expert, ok := h.evictedBy[key]; ok {
			h.penalize(expert)
			delete(h.evictedBy, key)
		}
	}

	for _, k := range h.queue.retain(live) {
		delete(h.freq, k)
	}

	if !isSet {
		if inCache && h.queue.touch(key) {
			h.freq[key]++
		}
		return nil
	}
	if !inCache {
		return nil
	}

	if !h.queue.touch(key) {
		h.queue.pushBack(key)
	}
	h.freq[key]++

	if h.capacity > 0 && len(live) >= h.capacity {
		if victim, ok := h.evict(); ok {
			return []string{victim}
		}
	}
	return nil
}

// penalize shrinks the weight of a mistaken expert and renormalizes.
func (h *HybridPolicy) penalize(expert Expert) {
	switch expert {
	case ExpertLRU:
		h.weights.LRU = math.Max(h.weights.LRU*(1-h.learningRate), h.epsilon)
	case ExpertLFU:
		h.weights.LFU = math.Max(h.weights.LFU*(1-h.learningRate), h.epsilon)
	}
	total := h.weights.LRU + h.weights.LFU
	h.weights.LRU /= total
	h.weights.LFU /= total

	h.logger.Debug("hybrid weights updated",
		zap.String("penalized", string(expert)),
		zap.Float64("lru", h.weights.LRU),
		zap.Float64("lfu", h.weights.LFU),
	)
}

// choose samples an expert using the weights as a categorical distribution.
func (h *HybridPolicy) choose() Expert {
	if h.rnd.Float64() < h.weights.LRU {
		return ExpertLRU
	}
	return ExpertLFU
}

// proposal returns the victim the expert would pick. The frequency expert
// scans from least to most recently used, so ties go to the older key.
func (h *HybridPolicy) proposal(expert Expert) (string, bool) {
	if expert == ExpertLRU {
		return h.queue.oldest()
	}
	victim, best := "", 0
	for _, key := range h.queue.keys() {
		if f := h.freq[key]; victim == "" || f < best {
			victim, best = key, f
		}
	}
	return victim, victim != ""
}

// evict removes the chosen expert's victim from both experts and the keyspace.
func (h *HybridPolicy) evict() (string, bool) {
	expert := h.choose()
	victim, ok := h.proposal(expert)
	if !ok {
		return "", false
	}

	h.queue.remove(victim)
	delete(h.freq, victim)
	h.keyspace.Delete(victim)

	h.stats.evicted(victim)
	h.evictedBy[victim] = expert

	h.logger.Debug("hybrid evicted", zap.String("key", victim), zap.String("expert", string(expert)))
	return victim, true
}

// Weights returns the current expert weights.
func (h *HybridPolicy) Weights() Weights {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.weights
}

// EvictedBy returns the expert blamed for a recent eviction of key.
func (h *HybridPolicy) EvictedBy(key string) (Expert, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.evictedBy[key]
	return e, ok
}

func (h *HybridPolicy) Metrics() Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats.snapshot()
}
