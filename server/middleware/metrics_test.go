package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/permitagent/permitagent/server/metrics"
	"github.com/permitagent/permitagent/server/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	tests := []struct {
		name             string
		path             string
		expectedCode     int
		expectedEndpoint string
		expectedStatus   string
		expectedErrType  string
	}{
		{
			name:             "success request",
			path:             "/ok",
			expectedCode:     http.StatusOK,
			expectedEndpoint: "/ok",
			expectedStatus:   "200",
		},
		{
			name:             "error request",
			path:             "/fail",
			expectedCode:     http.StatusInternalServerError,
			expectedEndpoint: "/fail",
			expectedStatus:   "500",
			expectedErrType:  "server_error",
		},
		{
			name:             "unknown route",
			path:             "/does-not-exist/123",
			expectedCode:     http.StatusNotFound,
			expectedEndpoint: "unmatched",
			expectedStatus:   "404",
			expectedErrType:  "client_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewMetrics()

			r := chi.NewRouter()
			r.Use(middleware.PrometheusMetrics(m))
			r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.expectedCode, rec.Code)

			assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(tt.expectedEndpoint, tt.expectedStatus)))
			assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveRequests.WithLabelValues(http.MethodGet)))

			if tt.expectedErrType != "" {
				assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(tt.expectedErrType)))
			}
		})
	}
}

func TestMetricsHandlerExposesCompletionOutcomes(t *testing.T) {
	m := metrics.NewMetrics()
	m.CompletionsTotal.WithLabelValues(metrics.OutcomeAnswered).Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `permitagent_completions_total{outcome="answered"} 1`)
	assert.Contains(t, body, `permitagent_completions_total{outcome="misconfigured"} 0`)
	assert.Contains(t, body, "go_goroutines")
}
