package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_requests_total",
		Help: "Relay requests by handler and status code.",
	}, []string{"handler", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showgate_request_duration_seconds",
		Help:    "Relay request latency by handler.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	upstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showgate_upstream_failures_total",
		Help: "Provider/upstream fetch failures by operation.",
	}, []string{"op"})

	proxyBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showgate_proxy_bytes_total",
		Help: "Bytes relayed through the transport proxy.",
	})
)
