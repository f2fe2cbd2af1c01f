package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/internal/cache"
	"usersvc/internal/metrics"
)

func TestMetrics_RecordsCacheTraffic(t *testing.T) {
	m := metrics.New()
	c := cache.New[string, int]("records", nil, m)

	c.Get("missing")
	c.Put("k", 1)
	c.Get("k")
	c.Get("k")
	c.Evict("k")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("records", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("records", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvicts.WithLabelValues("records")))
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.Hit("account_records")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `usersvc_cache_requests_total{cache="account_records",result="hit"} 1`)
}
