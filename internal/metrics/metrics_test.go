package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UnknownOlympus/ridefare/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.RoutesProcessed.WithLabelValues("accumulated").Inc()
	m.GeocodeLookups.WithLabelValues("cache", "hit").Add(2)
	m.RecordsExtracted.Add(5)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RoutesProcessed.WithLabelValues("accumulated")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.GeocodeLookups.WithLabelValues("cache", "hit")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.RecordsExtracted), 0)
}

func TestPush(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordsExtracted.Inc()

	t.Run("pushgateway accepts", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		require.NoError(t, metrics.Push(srv.URL, "ridefare", reg))
		assert.Equal(t, "/metrics/job/ridefare", gotPath)
	})

	t.Run("pushgateway rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := metrics.Push(srv.URL, "ridefare", reg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to push metrics")
	})
}
