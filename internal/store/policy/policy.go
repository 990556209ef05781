package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned when a policy name does not match any Kind.
var ErrUnknownPolicy = errors.New("unknown eviction policy")

// Keyspace is the view of the store a policy reconciles against.
// Policies never mutate the store except through Delete.
type Keyspace interface {
	// Keys returns the live keys, purging expired ones.
	Keys() []string

	// Delete removes a key and reports whether it was alive.
	Delete(key string) bool
}

// EvictionPolicy defines the interface for eviction algorithms.
// Implementations allow the store to decouple capacity management from storage logic.
type EvictionPolicy interface {
	// Update is called once after every successful single-key store access.
	// isSet is true for write-class accesses. It returns the keys it evicted,
	// already removed from the keyspace.
	Update(key string, isSet bool) []string

	// Metrics returns a snapshot of the policy counters.
	Metrics() Metrics

	// Name returns the policy kind.
	Name() Kind
}

// Weighted is implemented by policies that blend several experts.
type Weighted interface {
	Weights() Weights
}

// Metrics are the raw counters every policy keeps.
type Metrics struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	Sets           uint64 `json:"sets"`
	Evictions      uint64 `json:"n_evicts"`
	ReuseEvictions uint64 `json:"n_reuse_evicts"`
}

// Kind names an eviction policy.
type Kind string

const (
	KindLRU    Kind = "lru"
	KindLFU    Kind = "lfu"
	KindHybrid Kind = "hybrid"
	KindFIFO   Kind = "fifo"
	KindRandom Kind = "random"
)

// Kinds lists every selectable policy.
var Kinds = []Kind{KindLRU, KindLFU, KindHybrid, KindFIFO, KindRandom}

// ParseKind resolves a case-insensitive policy name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
}

// New builds a fresh policy of the given kind. Capacity <= 0 disables eviction.
func New(kind Kind, capacity int, ks Keyspace, opts ...Option) (EvictionPolicy, error) {
	cfg := newConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch kind {
	case KindLRU:
		return newLRU(capacity, ks, cfg), nil
	case KindLFU:
		return newLFU(capacity, ks, cfg), nil
	case KindHybrid:
		return newHybrid(capacity, ks, cfg), nil
	case KindFIFO:
		return newFIFO(capacity, ks, cfg), nil
	case KindRandom:
		return newRandom(capacity, ks, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, kind)
	}
}

func liveSet(ks Keyspace) map[string]struct{} {
	keys := ks.Keys()
	live := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		live[k] = struct{}{}
	}
	return live
}
