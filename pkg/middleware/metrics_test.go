package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric extracts the label-matched metric from a collector.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		if hasLabels(d, labels) {
			return d
		}
	}
	return nil
}

func hasLabels(d *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, lp := range d.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func counterValue(t *testing.T, labels map[string]string) float64 {
	t.Helper()
	m := collectMetric(t, httpRequestsTotal, labels)
	if m == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func newMetricsRouter(h http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/products/{id}", h)
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := newMetricsRouter(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	labels := map[string]string{"method": "GET", "route": "/api/v1/products/{id}", "status": "200"}
	before := counterValue(t, labels)

	for _, id := range []string{"p1", "p2", "p3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	}

	assert.InDelta(t, before+3, counterValue(t, labels), 0.001)
}

func TestPrometheusMetrics_CapturesStatus(t *testing.T) {
	r := newMetricsRouter(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	labels := map[string]string{"method": "GET", "route": "/api/v1/products/{id}", "status": "404"}
	before := counterValue(t, labels)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/p99", nil))

	assert.InDelta(t, before+1, counterValue(t, labels), 0.001)
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	r := newMetricsRouter(func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil))

	m := collectMetric(t, httpRequestDuration, map[string]string{"method": "GET", "route": "/api/v1/products/{id}"})
	require.NotNil(t, m)
	assert.Positive(t, m.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	var during float64
	r := newMetricsRouter(func(w http.ResponseWriter, r *http.Request) {
		d := &dto.Metric{}
		require.NoError(t, httpRequestsInFlight.Write(d))
		during = d.GetGauge().GetValue()
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil))

	after := &dto.Metric{}
	require.NoError(t, httpRequestsInFlight.Write(after))
	assert.GreaterOrEqual(t, during, 1.0)
	assert.Less(t, after.GetGauge().GetValue(), during)
}

func TestRoutePattern_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, "unmatched", routePattern(req))
}
