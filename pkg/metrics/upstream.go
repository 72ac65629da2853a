package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls to third-party lookup APIs (FIPE, ViaCEP, plates).
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
	cacheHit *prometheus.CounterVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of third-party API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"upstream"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_failure",
		Help: "Failed third-party API calls.",
	}, []string{"upstream"})
	cacheHit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_cache_hit",
		Help: "Third-party lookups served from cache.",
	}, []string{"upstream"})
	reg.MustRegister(duration, failure, cacheHit)
	return &UpstreamMetrics{duration: duration, failure: failure, cacheHit: cacheHit}
}

// ObserveCall records the latency of one call and counts it as failed when err is set.
func (m *UpstreamMetrics) ObserveCall(upstream string, elapsed time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	upstream = normalizeLabel(upstream)
	m.duration.WithLabelValues(upstream).Observe(elapsed.Seconds())
	if err != nil {
		m.failure.WithLabelValues(upstream).Inc()
	}
}

func (m *UpstreamMetrics) IncCacheHit(upstream string) {
	if m == nil || m.cacheHit == nil {
		return
	}
	m.cacheHit.WithLabelValues(normalizeLabel(upstream)).Inc()
}
