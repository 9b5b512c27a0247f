package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector() *Collector {
	return NewCollector("test", prometheus.NewRegistry())
}

func TestCollector_Admissions(t *testing.T) {
	c := newTestCollector()
	c.ObserveAdmission(domain.EndpointConvert, "admitted")
	c.ObserveAdmission(domain.EndpointConvert, "admitted")
	c.ObserveAdmission(domain.EndpointBatch, "schema_violation")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.admissions.WithLabelValues("convert", "admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.admissions.WithLabelValues("batch", "schema_violation")))
}

func TestCollector_RecordIsAStatsStore(t *testing.T) {
	c := newTestCollector()
	var store domain.StatsStore = c

	require.NoError(t, store.Record(context.Background(), domain.StatsEvent{Endpoint: domain.EndpointBatch, Allowed: true}))
	require.NoError(t, store.Record(context.Background(), domain.StatsEvent{Endpoint: domain.EndpointBatch}))
	require.NoError(t, store.Record(context.Background(), domain.StatsEvent{Endpoint: domain.EndpointBatch}))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisions.WithLabelValues("batch", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.decisions.WithLabelValues("batch", "denied")))
}

func TestCollector_ConversionsAndBatch(t *testing.T) {
	c := newTestCollector()
	c.ObserveConversion(domain.EndpointBatch, true)
	c.ObserveConversion(domain.EndpointBatch, false)
	c.ObserveBatchSize(42)
	c.ObserveOverload()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversions.WithLabelValues("batch", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversions.WithLabelValues("batch", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.overloads))
	assert.Equal(t, 1, testutil.CollectAndCount(c.batchSize))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveAdmission(domain.EndpointConvert, "admitted")
	c.ObserveRequest(http.MethodGet, "/health", 200, time.Millisecond)
	c.WatchInFlight(func() int { return 1 })
	assert.NoError(t, c.Record(context.Background(), domain.StatsEvent{}))
	assert.Nil(t, c.Registry())
}

func TestCollector_WatchInFlightReadsOnScrape(t *testing.T) {
	c := newTestCollector()
	inUse := 3
	c.WatchInFlight(func() int { return inUse })
	c.WatchInFlight(func() int { return 99 })

	assert.Equal(t, 3.0, testutil.ToFloat64(c.inflight))
	inUse = 0
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inflight))
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector()
	c.ObserveRequest(http.MethodPost, "/convert", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_http_requests_total{method="POST",route="/convert",status="200"} 1`))
}
