package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the resolver's Prometheus counters.
type Metrics struct {
	Requests     prometheus.Counter
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	LocatorScans prometheus.Counter
	Evaluations  prometheus.Counter
	DepthAborts  prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: "callsite",
			Subsystem: "resolver",
			Name:      name,
			Help:      help,
		})
	}
	return &Metrics{
		Requests:     counter("requests_total", "Top-level resolve requests"),
		CacheHits:    counter("cache_hits_total", "Requests answered from the result cache"),
		CacheMisses:  counter("cache_misses_total", "Requests that recomputed the result"),
		LocatorScans: counter("locator_scans_total", "Call locator passes over a text slice"),
		Evaluations:  counter("evaluations_total", "Argument literal evaluations"),
		DepthAborts:  counter("depth_aborts_total", "Requests abandoned at the recursion depth cap"),
	}
}
