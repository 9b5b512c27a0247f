// Package metrics expõe os contadores Prometheus do gateway.
//
// Um *Collector nil é válido: todos os métodos viram no-op, o que permite
// desligar as métricas (METRICS_ENABLED=false) sem checagens nos chamadores.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"address-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "address_gateway"

// Collector agrega as métricas de admissão, cota, conversão e HTTP.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	admissions  *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	conversions *prometheus.CounterVec
	batchSize   prometheus.Histogram
	overloads   prometheus.Counter
	inflight    prometheus.GaugeFunc

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector registra as métricas em registry (um novo se nil).
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry:  registry,
		namespace: namespace,
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Admission pipeline outcomes by endpoint.",
		}, []string{"endpoint", "outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Quota decisions by endpoint.",
		}, []string{"endpoint", "decision"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Address conversions by endpoint and result.",
		}, []string{"endpoint", "result"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of addresses per admitted batch request.",
			Buckets:   []float64{1, 10, 100, 500, 1000, 5000, 10000},
		}),
		overloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overloaded_total",
			Help:      "Requests rejected by the concurrency ceiling.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.admissions,
		c.decisions,
		c.conversions,
		c.batchSize,
		c.overloads,
		c.requests,
		c.duration,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveAdmission conta um desfecho do pipeline ("admitted" ou o kind do erro).
func (c *Collector) ObserveAdmission(ep domain.Endpoint, outcome string) {
	if c == nil {
		return
	}
	c.admissions.WithLabelValues(string(ep), outcome).Inc()
}

// Record implementa domain.StatsStore.
func (c *Collector) Record(_ context.Context, ev domain.StatsEvent) error {
	if c == nil {
		return nil
	}
	decision := "allowed"
	if !ev.Allowed {
		decision = "denied"
	}
	c.decisions.WithLabelValues(string(ev.Endpoint), decision).Inc()
	return nil
}

func (c *Collector) ObserveConversion(ep domain.Endpoint, ok bool) {
	if c == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	c.conversions.WithLabelValues(string(ep), result).Inc()
}

func (c *Collector) ObserveBatchSize(n int) {
	if c == nil {
		return
	}
	c.batchSize.Observe(float64(n))
}

func (c *Collector) ObserveOverload() {
	if c == nil {
		return
	}
	c.overloads.Inc()
}

// WatchInFlight exporta inflight_requests lendo inUse a cada scrape
// (ex.: SlotPool.InUse do teto de concorrência). Só a primeira chamada registra.
func (c *Collector) WatchInFlight(inUse func() int) {
	if c == nil || inUse == nil || c.inflight != nil {
		return
	}
	c.inflight = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "inflight_requests",
		Help:      "Requests currently holding a concurrency slot.",
	}, func() float64 { return float64(inUse()) })
	c.registry.MustRegister(c.inflight)
}

// ObserveRequest registra status e latência; route é o padrão do chi, não a URL crua.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serve a exposição Prometheus do registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
