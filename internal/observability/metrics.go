package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facelyze-api/internal/ai"
)

// Collector holds the application's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	Analyses       *prometheus.CounterVec
	TokensCharged  *prometheus.CounterVec
	TokensCredited *prometheus.CounterVec
	ModelCalls     *prometheus.CounterVec
	ModelDuration  *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Face analyses by kind and outcome",
		}, []string{"kind", "outcome"}),
		TokensCharged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_charged_total",
			Help:      "Tokens debited from user balances",
		}, []string{"reason"}),
		TokensCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_credited_total",
			Help:      "Tokens credited to user balances",
		}, []string{"reason"}),
		ModelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Generative model calls by flow and result",
		}, []string{"flow", "result"}),
		ModelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Generative model call latencies in seconds",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}, []string{"flow"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Redis cache lookups by cache and result",
		}, []string{"cache", "result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Analyses,
		c.TokensCharged,
		c.TokensCredited,
		c.ModelCalls,
		c.ModelDuration,
		c.CacheLookups,
	)
	return c
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveModelCall(flow string, elapsed time.Duration, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ai.ErrInvalidOutput):
		result = "invalid_output"
	case errors.Is(err, ai.ErrUnavailable):
		result = "breaker_open"
	default:
		result = "error"
	}
	c.ModelCalls.WithLabelValues(flow, result).Inc()
	c.ModelDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

func (c *Collector) AnalysisOutcome(kind, outcome string) {
	c.Analyses.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) Charged(reason string, tokens int) {
	c.TokensCharged.WithLabelValues(reason).Add(float64(tokens))
}

func (c *Collector) Credited(reason string, tokens int) {
	c.TokensCredited.WithLabelValues(reason).Add(float64(tokens))
}

func (c *Collector) CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
