package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	VisitorsCreated prometheus.Counter
	VisitorsDeleted prometheus.Counter
	EventsPublished prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VisitorsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitors_created_total",
			Help: "Total number of visitors registered",
		}),
		VisitorsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitors_deleted_total",
			Help: "Total number of visitors deleted",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitors_events_published_total",
			Help: "Total number of visitor events delivered to the bus",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitors_cache_hits_total",
			Help: "Cache-aside lookups answered from the cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visitors_cache_misses_total",
			Help: "Cache-aside lookups that fell through to the store",
		}),
	}
}
