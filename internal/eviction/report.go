package eviction

import "adaptive-cache-service/internal/store/policy"

// Report is a read-only view of a policy's counters.
type Report struct {
	Policy   policy.Kind     `json:"policy"`
	Window   int             `json:"window"`
	Metrics  policy.Metrics  `json:"metrics"`
	HitRatio float64         `json:"hit_ratio"`
	Accuracy float64         `json:"accuracy"`
	Weights  *policy.Weights `json:"weights,omitempty"`
}

// NewReport derives hit ratio and accuracy from raw counters.
func NewReport(kind policy.Kind, window int, m policy.Metrics) Report {
	return Report{
		Policy:   kind,
		Window:   window,
		Metrics:  m,
		HitRatio: HitRatio(m),
		Accuracy: Accuracy(m),
	}
}

// HitRatio is hits / (hits + misses), 0 when nothing was read.
func HitRatio(m policy.Metrics) float64 {
	reads := m.Hits + m.Misses
	if reads == 0 {
		return 0
	}
	return float64(m.Hits) / float64(reads)
}

// Accuracy is the share of evictions that were not followed by a reuse
// miss, 0 when nothing was evicted. A victim missed repeatedly inside the
// window counts each time, so the result is floored at 0.
func Accuracy(m policy.Metrics) float64 {
	if m.Evictions == 0 || m.ReuseEvictions >= m.Evictions {
		return 0
	}
	return float64(m.Evictions-m.ReuseEvictions) / float64(m.Evictions)
}
