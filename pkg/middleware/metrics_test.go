package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	require.True(t, ok)
	d := &dto.Metric{}
	require.NoError(t, m.Write(d))
	return d.GetHistogram().GetSampleCount()
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-test"))
	r.Get("/api/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
	}

	counter := httpRequestsTotal.WithLabelValues("metrics-test", "GET", "/api/orders/{orderID}", "404")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))
	assert.Equal(t, uint64(3), histogramCount(t, httpRequestDuration.WithLabelValues("metrics-test", "GET", "/api/orders/{orderID}")))
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-test")))
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	h := PrometheusMetrics("metrics-unmatched")(okHandler)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	counter := httpRequestsTotal.WithLabelValues("metrics-unmatched", "GET", "unmatched", "200")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}
