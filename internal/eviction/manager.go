// Package eviction holds the active eviction policy and its capacity.
package eviction

import (
	"sync"

	"adaptive-cache-service/internal/store/policy"

	"go.uber.org/zap"
)

// ErrUnknownPolicy is returned by SelectAlgorithm for a name matching no policy.
var ErrUnknownPolicy = policy.ErrUnknownPolicy

// Manager owns exactly one active policy. Switching the policy or the
// window rebuilds it from scratch.
type Manager struct {
	mu       sync.Mutex
	keyspace policy.Keyspace
	kind     policy.Kind
	window   int
	active   policy.EvictionPolicy
	opts     []policy.Option
	logger   *zap.Logger
}

// NewManager creates a manager running kind with the given window.
// A window <= 0 disables eviction.
func NewManager(ks policy.Keyspace, kind policy.Kind, window int, logger *zap.Logger, opts ...policy.Option) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		keyspace: ks,
		window:   clamp(window),
		opts:     append([]policy.Option{policy.WithLogger(logger)}, opts...),
		logger:   logger,
	}
	if err := m.rebuild(kind); err != nil {
		return nil, err
	}
	return m, nil
}

func clamp(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}

// rebuild replaces the active policy. Callers must hold m.mu or own m exclusively.
func (m *Manager) rebuild(kind policy.Kind) error {
	p, err := policy.New(kind, m.window, m.keyspace, m.opts...)
	if err != nil {
		return err
	}
	m.kind = kind
	m.active = p
	return nil
}

// SelectAlgorithm switches to the named policy, discarding prior bookkeeping.
func (m *Manager) SelectAlgorithm(name string) error {
	kind, err := policy.ParseKind(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.rebuild(kind); err != nil {
		return err
	}
	m.logger.Info("eviction policy selected", zap.String("policy", string(kind)), zap.Int("window", m.window))
	return nil
}

// SetWindow sets the capacity and restarts the active policy cold.
func (m *Manager) SetWindow(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = clamp(n)
	if err := m.rebuild(m.kind); err != nil {
		return err
	}
	m.logger.Info("eviction window set", zap.Int("window", m.window), zap.String("policy", string(m.kind)))
	return nil
}

// Window returns the current capacity, 0 when eviction is disabled.
func (m *Manager) Window() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window
}

// Algorithm returns the active policy kind.
func (m *Manager) Algorithm() policy.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind
}

// Evict forwards one access to the active policy and returns its victims.
func (m *Manager) Evict(key string, isSet bool) []string {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	return p.Update(key, isSet)
}

// Metrics returns the active policy's counters.
func (m *Manager) Metrics() policy.Metrics {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	return p.Metrics()
}

// Weights returns the hybrid expert weights, if the active policy has any.
func (m *Manager) Weights() (policy.Weights, bool) {
	m.mu.Lock()
	p := m.active
	m.mu.Unlock()
	if w, ok := p.(policy.Weighted); ok {
		return w.Weights(), true
	}
	return policy.Weights{}, false
}

// Report projects the active policy's state into a Report.
func (m *Manager) Report() Report {
	m.mu.Lock()
	kind, window, p := m.kind, m.window, m.active
	m.mu.Unlock()

	r := NewReport(kind, window, p.Metrics())
	if w, ok := p.(policy.Weighted); ok {
		weights := w.Weights()
		r.Weights = &weights
	}
	return r
}
