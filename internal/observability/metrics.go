package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	signEventsTotal    *prometheus.CounterVec
	signRejectedTotal  *prometheus.CounterVec
	persistSeconds     *prometheus.HistogramVec
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the room log.
func RegisterMetrics() {
	registerOnce.Do(func() {
		signEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomlog_sign_events_total",
			Help: "Sign events recorded, by kind and resolution mode.",
		}, []string{"kind", "mode"})

		signRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomlog_sign_rejected_total",
			Help: "Sign submissions rejected, by reason.",
		}, []string{"reason"})

		persistSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomlog_persist_seconds",
			Help:    "Latency of full document rewrites after a mutation.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1.0},
		}, []string{"op", "result"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomlog_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomlog_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(signEventsTotal, signRejectedTotal, persistSeconds,
			httpRequestsTotal, httpLatencySeconds)
	})
}

func SignEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return signEventsTotal
}

func SignRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return signRejectedTotal
}

func PersistLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return persistSeconds
}

func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
