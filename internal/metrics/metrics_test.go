package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/internal/metrics"
)

func TestNewMetricProvider_PrometheusExportsCounters(t *testing.T) {
	mp, err := metrics.NewMetricProvider(context.Background(),
		metrics.WithServiceName("tokensale-test"),
		metrics.WithPrometheus(),
	)
	require.NoError(t, err)
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("sale_test_operations_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sale_test_operations_total")
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := metrics.NewMetricProvider(context.Background(), func(c metrics.Config) metrics.Config {
		c.Provider = append(c.Provider, metrics.ProviderCfg{Provider: "statsd"})
		return c
	})
	assert.Error(t, err)
}
