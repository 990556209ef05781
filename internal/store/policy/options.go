package policy

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRecentWindow is how many recent victims are remembered for reuse detection.
	DefaultRecentWindow = 10

	// DefaultLearningRate is the multiplicative penalty applied to a mistaken expert.
	DefaultLearningRate = 0.05

	// DefaultEpsilon is the floor below which no expert weight may fall.
	DefaultEpsilon = 1e-5
)

// DefaultWeights is the starting confidence of the hybrid experts.
var DefaultWeights = Weights{LRU: 0.8, LFU: 0.2}

// ErrInvalidOption is returned by New when an option value is out of range.
var ErrInvalidOption = errors.New("invalid policy option")

type config struct {
	delta        int
	learningRate float64
	epsilon      float64
	weights      Weights
	rnd          *rand.Rand
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a policy.
type Option func(*config)

func newConfig(opts ...Option) config {
	cfg := config{
		delta:        DefaultRecentWindow,
		learningRate: DefaultLearningRate,
		epsilon:      DefaultEpsilon,
		weights:      DefaultWeights,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rnd == nil {
		cfg.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return cfg
}

func (c config) validate() error {
	if c.delta <= 0 {
		return fmt.Errorf("%w: recent window must be positive, got %d", ErrInvalidOption, c.delta)
	}
	if c.learningRate <= 0 || c.learningRate >= 1 {
		return fmt.Errorf("%w: learning rate must be in (0, 1), got %g", ErrInvalidOption, c.learningRate)
	}
	if c.weights.LRU < c.epsilon || c.weights.LFU < c.epsilon {
		return fmt.Errorf("%w: weights must be at least %g", ErrInvalidOption, c.epsilon)
	}
	return nil
}

// defaulted replaces each out-of-range value with its default. The
// direct constructors use it since they cannot report an error.
func (c config) defaulted() config {
	if c.delta <= 0 {
		c.delta = DefaultRecentWindow
	}
	if c.learningRate <= 0 || c.learningRate >= 1 {
		c.learningRate = DefaultLearningRate
	}
	if c.weights.LRU < c.epsilon || c.weights.LFU < c.epsilon {
		c.weights = DefaultWeights
	}
	return c
}

// WithRecentWindow sets how many recent victims are tracked for reuse detection.
func WithRecentWindow(n int) Option {
	return func(c *config) { c.delta = n }
}

// WithLearningRate sets the hybrid penalty rate.
func WithLearningRate(lr float64) Option {
	return func(c *config) { c.learningRate = lr }
}

// WithInitialWeights sets the starting hybrid weights. They are normalized to sum to 1.
func WithInitialWeights(w Weights) Option {
	return func(c *config) {
		if total := w.LRU + w.LFU; total > 0 {
			w.LRU /= total
			w.LFU /= total
		}
		c.weights = w
	}
}

// WithRand sets the random source used by the hybrid and random policies.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rnd = r }
}

// WithSeed is shorthand for WithRand with a fresh source.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithLogger sets the logger for eviction and weight debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock sets the clock used for per-key access metadata.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}
