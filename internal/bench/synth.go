// Package bench replays command workloads against every eviction policy
// and summarizes how well each one kept the keys that were read again.
package bench

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// SynthConfig shapes a phased workload: each phase has its own hot working
// set, and the generator keeps an LRU model of the live keys so that keys
// it pushes out can be written again later.
type SynthConfig struct {
	Phases           int
	WorkingSetSize   int
	CommandsPerPhase int

	InsertWSProb float64 // write a hot key
	InsertNoise  float64 // also write a key from another phase
	ReinsertProb float64 // also rewrite a key the model evicted

	ReadWSProb  float64 // read within the working set, otherwise noise
	ReadSetProb float64 // within the working set, read a recently written key

	Capacity int // size of the generator's own live-key model
	Seed     int64
}

func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Phases:           10,
		WorkingSetSize:   100,
		CommandsPerPhase: 200,
		InsertWSProb:     0.6,
		InsertNoise:      0.02,
		ReinsertProb:     0.8,
		ReadWSProb:       0.9,
		ReadSetProb:      0.8,
		Capacity:         20,
		Seed:             42,
	}
}

// ErrInvalidSynthConfig is returned for a workload shape that cannot be generated.
var ErrInvalidSynthConfig = errors.New("bench: invalid synth config")

// Validate rejects non-positive sizes and probabilities outside [0, 1].
func (c SynthConfig) Validate() error {
	sizes := []struct {
		name string
		v    int
	}{
		{"phases", c.Phases},
		{"working set size", c.WorkingSetSize},
		{"commands per phase", c.CommandsPerPhase},
		{"capacity", c.Capacity},
	}
	for _, sz := range sizes {
		if sz.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSynthConfig, sz.name, sz.v)
		}
	}
	probs := []struct {
		name string
		v    float64
	}{
		{"insert working set probability", c.InsertWSProb},
		{"insert noise probability", c.InsertNoise},
		{"reinsert probability", c.ReinsertProb},
		{"read working set probability", c.ReadWSProb},
		{"read set probability", c.ReadSetProb},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidSynthConfig, p.name, p.v)
		}
	}
	return nil
}

type synth struct {
	cfg SynthConfig
	rnd *rand.Rand
	out []string

	live        *simplelru.LRU[string, struct{}]
	recentSet   *simplelru.LRU[string, struct{}]
	evicted     []string
	evictedSeen map[string]struct{}
}

// Synthesize generates SET/GET command lines. The same config always
// yields the same workload.
func Synthesize(cfg SynthConfig) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &synth{
		cfg:         cfg,
		rnd:         rand.New(rand.NewSource(cfg.Seed)),
		evictedSeen: make(map[string]struct{}),
	}
	var err error
	s.live, err = simplelru.NewLRU[string, struct{}](cfg.Capacity, func(key string, _ struct{}) {
		if _, ok := s.evictedSeen[key]; !ok {
			s.evictedSeen[key] = struct{}{}
			s.evicted = append(s.evicted, key)
		}
	})
	if err != nil {
		return nil, err
	}
	if s.recentSet, err = simplelru.NewLRU[string, struct{}](cfg.Capacity, nil); err != nil {
		return nil, err
	}

	universe := make([]string, cfg.Phases*cfg.WorkingSetSize)
	for i := range universe {
		universe[i] = "k" + strconv.Itoa(i)
	}

	for phase := 0; phase < cfg.Phases; phase++ {
		lo, hi := phase*cfg.WorkingSetSize, (phase+1)*cfg.WorkingSetSize
		hot := universe[lo:hi]
		noise := make([]string, 0, len(universe)-len(hot))
		noise = append(noise, universe[:lo]...)
		noise = append(noise, universe[hi:]...)

		for i := 0; i < cfg.CommandsPerPhase; i++ {
			s.step(hot, noise)
		}
	}
	return s.out, nil
}

func (s *synth) step(hot, noise []string) {
	writeProb := s.rnd.Float64()
	if writeProb < s.cfg.InsertWSProb {
		s.write(s.pick(hot))
	}
	if writeProb < s.cfg.InsertNoise && len(noise) > 0 {
		s.write(s.pick(noise))
	}
	if writeProb < s.cfg.ReinsertProb && len(s.evicted) > 0 {
		s.write(s.pick(s.evicted))
	}

	readProb := s.rnd.Float64()
	var key string
	switch {
	case readProb >= s.cfg.ReadWSProb && len(noise) > 0:
		key = s.pick(noise)
	case readProb < s.cfg.ReadSetProb && s.recentSet.Len() > 0:
		key = s.pick(s.recentSet.Keys())
	default:
		key = s.pick(s.coldHot(hot))
	}
	s.materialize(key)
	s.out = append(s.out, "GET "+key)
}

// coldHot returns the hot keys not written recently, or all of them.
func (s *synth) coldHot(hot []string) []string {
	cold := make([]string, 0, len(hot))
	for _, k := range hot {
		if !s.recentSet.Contains(k) {
			cold = append(cold, k)
		}
	}
	if len(cold) == 0 {
		return hot
	}
	return cold
}

// materialize refreshes a live key, or makes room for it in the model.
func (s *synth) materialize(key string) {
	if s.live.Contains(key) {
		s.live.Get(key)
		return
	}
	for s.live.Len() >= s.cfg.Capacity {
		s.live.RemoveOldest()
	}
}

func (s *synth) write(key string) {
	s.materialize(key)
	s.live.Add(key, struct{}{})
	s.recentSet.Add(key, struct{}{})
	s.out = append(s.out, "SET "+key+" v"+key[1:])
}

func (s *synth) pick(keys []string) string {
	return keys[s.rnd.Intn(len(keys))]
}
