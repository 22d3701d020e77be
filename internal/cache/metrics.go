package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_cache_hits_total",
		Help: "Number of cache reads served from Redis.",
	})
	misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_cache_misses_total",
		Help: "Number of cache reads that fell through to the store.",
	})
	opErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stats_cache_errors_total",
		Help: "Number of failed cache operations, including corrupt payloads.",
	})
	disabledGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stats_cache_disabled",
		Help: "1 when the cache has disabled itself for the process lifetime.",
	})
)
