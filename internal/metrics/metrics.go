package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Upstream labels for RequestSeconds.
const (
	UpstreamGeocoder = "geocoder"
	UpstreamPricing  = "pricing"
)

type Metrics struct {
	RoutesProcessed  *prometheus.CounterVec
	GeocodeLookups   *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	RecordsExtracted prometheus.Counter
	EntriesDropped   prometheus.Counter
	ActiveWorkers    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RoutesProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ridefare_routes_processed_total",
			Help: "Total number of routes processed, by final state.",
		}, []string{"status"}),
		GeocodeLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ridefare_geocode_lookups_total",
			Help: "Address resolutions by source (cache, memo, provider) and result.",
		}, []string{"source", "result"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ridefare_upstream_request_duration_seconds",
			Help:    "Duration of requests to the geocoding and pricing APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
		RecordsExtracted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ridefare_fare_records_total",
			Help: "Total number of fare records extracted from pricing responses.",
		}),
		EntriesDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ridefare_fare_entries_dropped_total",
			Help: "Malformed tier, product or fare entries skipped during extraction.",
		}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ridefare_active_workers",
			Help: "Current number of workers processing routes.",
		}),
	}
}

// Push sends everything gathered by reg to a Prometheus Pushgateway under the given job.
// Run-once commands call it right before exiting.
func Push(url, job string, reg prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(reg).Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}

	return nil
}
