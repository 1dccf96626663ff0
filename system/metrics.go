package system

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCounter tracks total HTTP requests
	RequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_console_http_requests_total",
		Help: "Total HTTP requests handled",
	}, []string{"method", "path", "status"})

	// ResponseTime measures request latency
	ResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weather_console_http_response_time_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	// UpstreamCallCounter tracks external API calls (weather API, LLM, S3)
	UpstreamCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "weather_console_upstream_calls_total",
		Help: "Outbound calls to upstream services",
	}, []string{"upstream", "status"})
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(ResponseTime)
	prometheus.MustRegister(UpstreamCallCounter)
}

// RecordRequest records one handled HTTP request.
func RecordRequest(method, path string, status int, duration float64) {
	RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	ResponseTime.WithLabelValues(method, path).Observe(duration)
}

// RecordUpstreamCall records one outbound call to an external service.
func RecordUpstreamCall(upstream string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	UpstreamCallCounter.WithLabelValues(upstream, status).Inc()
}
