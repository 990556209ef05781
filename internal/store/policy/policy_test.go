package policy

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memKeyspace is an insertion-ordered key set standing in for the store.
type memKeyspace struct {
	order []string
	live  map[string]struct{}
}

func newMemKeyspace() *memKeyspace {
	return &memKeyspace{live: make(map[string]struct{})}
}

func (m *memKeyspace) put(key string) {
	if _, ok := m.live[key]; ok {
		return
	}
	m.live[key] = struct{}{}
	m.order = append(m.order, key)
}

func (m *memKeyspace) Keys() []string {
	return append([]string(nil), m.order...)
}

func (m *memKeyspace) Delete(key string) bool {
	if _, ok := m.live[key]; !ok {
		return false
	}
	delete(m.live, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// set mirrors the dispatcher: commit to the keyspace, then notify the policy.
func set(p EvictionPolicy, ks *memKeyspace, key string) []string {
	ks.put(key)
	return p.Update(key, true)
}

func get(p EvictionPolicy, key string) []string {
	return p.Update(key, false)
}

func TestLRUPolicy_EvictsLeastRecent(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLRU(2, ks)

	assert.Empty(t, set(p, ks, "a"))
	assert.Empty(t, set(p, ks, "b"))
	assert.Equal(t, []string{"a"}, set(p, ks, "c"))
	assert.Equal(t, []string{"b", "c"}, ks.Keys())
}

func TestLRUPolicy_ReadRefreshesRecency(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLRU(2, ks)

	set(p, ks, "a")
	set(p, ks, "b")
	get(p, "a")

	assert.Equal(t, []string{"b"}, set(p, ks, "c"))
	assert.Equal(t, []string{"a", "c"}, p.Keys())
}

func TestLRUPolicy_ReadMissIsNoop(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLRU(2, ks)

	assert.Empty(t, get(p, "ghost"))
	assert.Empty(t, p.Keys())
	assert.Equal(t, uint64(1), p.Metrics().Misses)
}

func TestLRUPolicy_Meta(t *testing.T) {
	ks := newMemKeyspace()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewLRU(4, ks, WithClock(func() time.Time { return now }))

	set(p, ks, "a")
	get(p, "a")
	get(p, "a")

	meta, ok := p.Meta("a")
	require.True(t, ok)
	assert.Equal(t, 1, meta.Sets)
	assert.Equal(t, 2, meta.Hits)
	assert.Equal(t, now, meta.LastAccess)

	_, ok = p.Meta("missing")
	assert.False(t, ok)
}

func TestLFUPolicy_EvictsLeastFrequent(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLFU(2, ks)

	set(p, ks, "a")
	set(p, ks, "b")
	get(p, "a")

	assert.Equal(t, []string{"b"}, set(p, ks, "c"))
	assert.Equal(t, []string{"a", "c"}, ks.Keys())
	assert.Equal(t, 2, p.Frequency("a"))
	assert.Equal(t, 1, p.Frequency("c"))
	assert.Equal(t, 0, p.Frequency("b"))
}

func TestLFUPolicy_TieGoesToOldestInBucket(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLFU(3, ks)

	set(p, ks, "a")
	set(p, ks, "b")
	set(p, ks, "c")

	assert.Equal(t, []string{"a"}, set(p, ks, "d"))
}

func TestLFUPolicy_MinFrequency(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLFU(4, ks)

	assert.Equal(t, 0, p.MinFrequency())

	set(p, ks, "a")
	set(p, ks, "b")
	assert.Equal(t, 1, p.MinFrequency())

	get(p, "a")
	assert.Equal(t, 1, p.MinFrequency())

	get(p, "b")
	assert.Equal(t, 2, p.MinFrequency())

	set(p, ks, "c")
	assert.Equal(t, 1, p.MinFrequency())
}

func TestLFUPolicy_ReconcileRecomputesMin(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLFU(4, ks)

	set(p, ks, "a")
	get(p, "a")
	set(p, ks, "b")

	ks.Delete("b")
	get(p, "a")

	assert.Equal(t, 0, p.Frequency("b"))
	assert.Equal(t, 3, p.Frequency("a"))
	assert.Equal(t, 3, p.MinFrequency())
}

func TestPolicies_ReconcileExternalDeletes(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			ks := newMemKeyspace()
			p, err := New(kind, 2, ks, WithSeed(1))
			require.NoError(t, err)

			set(p, ks, "a")
			ks.Delete("a")
			set(p, ks, "b")

			// "a" vanished externally, so "b" alone must not trigger eviction.
			assert.Empty(t, get(p, "b"))
			assert.Equal(t, []string{"b"}, ks.Keys())
		})
	}
}

func TestPolicies_CapacityZeroNeverEvicts(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			ks := newMemKeyspace()
			p, err := New(kind, 0, ks, WithSeed(1))
			require.NoError(t, err)

			for i := 0; i < 50; i++ {
				key := string(rune('a' + i%26)) + string(rune('0'+i/26))
				assert.Empty(t, set(p, ks, key))
			}
			assert.Len(t, ks.Keys(), 50)
			assert.Equal(t, uint64(0), p.Metrics().Evictions)
			assert.Equal(t, uint64(50), p.Metrics().Sets)
		})
	}
}

func TestPolicies_ReuseEvictionCounted(t *testing.T) {
	ks := newMemKeyspace()
	p := NewLRU(1, ks)

	set(p, ks, "a")
	assert.Equal(t, []string{"a"}, set(p, ks, "b"))

	get(p, "a")
	get(p, "b")

	m := p.Metrics()
	assert.Equal(t, uint64(1), m.Hits)
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(2), m.Sets)
	assert.Equal(t, uint64(1), m.Evictions)
	assert.Equal(t, uint64(1), m.ReuseEvictions)

	// Re-setting a victim takes it out of the window.
	set(p, ks, "a")
	assert.False(t, p.stats.recentlyEvicted("a"))
	assert.True(t, p.stats.recentlyEvicted("b"))
}

func TestTracker_WindowIsBounded(t *testing.T) {
	tr := newTracker(2, nil)

	tr.evicted("a")
	tr.evicted("b")
	tr.evicted("c")

	assert.False(t, tr.recentlyEvicted("a"))
	assert.True(t, tr.recentlyEvicted("b"))
	assert.True(t, tr.recentlyEvicted("c"))
	assert.Equal(t, uint64(3), tr.snapshot().Evictions)
}

func TestTracker_RequiresPositiveWindow(t *testing.T) {
	assert.Panics(t, func() { newTracker(0, nil) })
}

func TestConstructors_DefaultInvalidOptions(t *testing.T) {
	cfg := newConfig(WithRecentWindow(-1), WithLearningRate(2), WithInitialWeights(Weights{LRU: 1})).defaulted()
	assert.Equal(t, DefaultRecentWindow, cfg.delta)
	assert.Equal(t, DefaultLearningRate, cfg.learningRate)
	assert.Equal(t, DefaultWeights, cfg.weights)

	ks := newMemKeyspace()
	var p *LRUPolicy
	require.NotPanics(t, func() { p = NewLRU(1, ks, WithRecentWindow(0)) })
	set(p, ks, "a")
	assert.Equal(t, []string{"a"}, set(p, ks, "b"))
	get(p, "a")
	assert.Equal(t, uint64(1), p.Metrics().ReuseEvictions)

	_, err := New(KindLRU, 1, ks, WithRecentWindow(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestHybridPolicy_EvictsOnceAtCapacity(t *testing.T) {
	ks := newMemKeyspace()
	h := NewHybrid(2, ks, WithSeed(3))

	assert.Empty(t, set(h, ks, "a"))
	// Both experts propose "a": it is the oldest and ties on frequency.
	assert.Equal(t, []string{"a"}, set(h, ks, "b"))
	assert.Equal(t, []string{"b"}, ks.Keys())

	expert, ok := h.EvictedBy("a")
	require.True(t, ok)
	assert.Contains(t, []Expert{ExpertLRU, ExpertLFU}, expert)
}

func TestHybridPolicy_PenalizesMistakenExpert(t *testing.T) {
	ks := newMemKeyspace()
	h := NewHybrid(2, ks, WithSeed(3))

	set(h, ks, "a")
	set(h, ks, "b")
	expert, ok := h.EvictedBy("a")
	require.True(t, ok)

	before := h.Weights()
	get(h, "a")
	after := h.Weights()

	want := before
	switch expert {
	case ExpertLRU:
		want.LRU *= 1 - DefaultLearningRate
	case ExpertLFU:
		want.LFU *= 1 - DefaultLearningRate
	}
	total := want.LRU + want.LFU
	assert.InDelta(t, want.LRU/total, after.LRU, 1e-12)
	assert.InDelta(t, want.LFU/total, after.LFU, 1e-12)
	assert.InDelta(t, 1.0, after.LRU+after.LFU, 1e-12)

	_, ok = h.EvictedBy("a")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), h.Metrics().ReuseEvictions)

	// A second miss on the same key does not penalize again.
	get(h, "a")
	assert.Equal(t, after, h.Weights())
}

func TestHybridPolicy_SetOfVictimDoesNotPenalize(t *testing.T) {
	ks := newMemKeyspace()
	h := NewHybrid(3, ks, WithSeed(5))

	set(h, ks, "a")
	set(h, ks, "b")
	victims := set(h, ks, "c")
	require.Len(t, victims, 1)

	before := h.Weights()
	set(h, ks, victims[0])
	assert.Equal(t, before, h.Weights())

	_, ok := h.EvictedBy(victims[0])
	assert.False(t, ok)
}

func TestHybridPolicy_WeightsStayBounded(t *testing.T) {
	h := NewHybrid(2, newMemKeyspace(), WithLearningRate(0.9))

	for i := 0; i < 500; i++ {
		h.penalize(ExpertLFU)
		w := h.Weights()
		assert.InDelta(t, 1.0, w.LRU+w.LFU, 1e-9)
		assert.GreaterOrEqual(t, w.LFU, DefaultEpsilon*(1-1e-9))
		assert.GreaterOrEqual(t, w.LRU, DefaultEpsilon*(1-1e-9))
	}
	assert.InDelta(t, DefaultEpsilon, h.Weights().LFU, 1e-9)
}

func TestHybridPolicy_FrequencyExpertProposal(t *testing.T) {
	ks := newMemKeyspace()
	// LFU weight of one forces the frequency expert.
	h := NewHybrid(3, ks, WithInitialWeights(Weights{LRU: 0, LFU: 1}), WithSeed(1))

	set(h, ks, "a")
	get(h, "a")
	set(h, ks, "b")
	get(h, "b")

	// "c" is the only key seen once, even though "a" is the least recent.
	assert.Equal(t, []string{"c"}, set(h, ks, "c"))
	expert, ok := h.EvictedBy("c")
	require.True(t, ok)
	assert.Equal(t, ExpertLFU, expert)
}

func TestHybridPolicy_SeededRunsAgree(t *testing.T) {
	run := func() ([]string, Weights) {
		ks := newMemKeyspace()
		h := NewHybrid(5, ks, WithRand(rand.New(rand.NewSource(42))))
		rnd := rand.New(rand.NewSource(7))
		var evicted []string
		for i := 0; i < 400; i++ {
			key := string(rune('a' + rnd.Intn(12)))
			if rnd.Float64() < 0.5 {
				evicted = append(evicted, set(h, ks, key)...)
			} else {
				evicted = append(evicted, get(h, key)...)
			}
		}
		return evicted, h.Weights()
	}

	v1, w1 := run()
	v2, w2 := run()
	assert.NotEmpty(t, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, w1, w2)
	assert.False(t, math.IsNaN(w1.LRU))
}

func TestFIFOPolicy_IgnoresReads(t *testing.T) {
	ks := newMemKeyspace()
	p := NewFIFO(2, ks)

	set(p, ks, "a")
	set(p, ks, "b")
	get(p, "a")
	set(p, ks, "a")

	assert.Equal(t, []string{"a"}, set(p, ks, "c"))
	assert.Equal(t, []string{"b", "c"}, p.Keys())
}

func TestRandomPolicy_EvictsFromPool(t *testing.T) {
	ks := newMemKeyspace()
	p := newRandom(2, ks, newConfig(WithRand(rand.New(rand.NewSource(42)))))

	set(p, ks, "a")
	set(p, ks, "b")
	victims := set(p, ks, "c")

	require.Len(t, victims, 1)
	assert.Contains(t, []string{"a", "b", "c"}, victims[0])
	assert.Equal(t, 2, p.Len())
	assert.Len(t, ks.Keys(), 2)
	assert.NotContains(t, ks.Keys(), victims[0])
}

func TestNew(t *testing.T) {
	ks := newMemKeyspace()

	for _, kind := range Kinds {
		p, err := New(kind, 3, ks)
		require.NoError(t, err)
		assert.Equal(t, kind, p.Name())
	}

	_, err := New("arc", 3, ks)
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = New(KindLRU, 3, ks, WithRecentWindow(0))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = New(KindHybrid, 3, ks, WithLearningRate(1))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Hybrid ")
	require.NoError(t, err)
	assert.Equal(t, KindHybrid, k)

	_, err = ParseKind("mru")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
