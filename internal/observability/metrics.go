package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheOperationsTotal counts commands by type and outcome
	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_operations_total",
		Help: "The total number of cache operations",
	}, []string{"type", "status"})

	// CacheHitsTotal counts read commands that found a live key
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "The total number of cache hits",
	})

	// CacheMissesTotal counts read commands on an absent or expired key
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "The total number of cache misses",
	})

	// CacheDurationSeconds measures latency
	CacheDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_duration_seconds",
		Help:    "The latency of cache operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// CacheEvictionsTotal counts keys removed by the eviction policy
	CacheEvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_evictions_total",
		Help: "The total number of keys evicted",
	}, []string{"policy"})

	// CacheEvictionWindow is the current eviction capacity, 0 when disabled
	CacheEvictionWindow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cache_eviction_window",
		Help: "The maximum number of live keys before eviction",
	})

	// CachePolicyWeight exposes the hybrid expert weights
	CachePolicyWeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cache_policy_weight",
		Help: "The confidence weight of each hybrid eviction expert",
	}, []string{"expert"})
)
