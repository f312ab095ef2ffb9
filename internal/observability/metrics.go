package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_tracking", Name: "ride_fetches_total", Help: "Ride snapshot fetches by result"},
		[]string{"result"},
	)
	RideFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "ride_tracking", Name: "ride_fetch_latency_seconds", Help: "Ride snapshot fetch latency seconds"})

	DirectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_tracking", Name: "directions_total", Help: "Route outcomes: provider, fallback, cache_hit"},
		[]string{"result"},
	)
	StaleDiscardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_tracking", Name: "stale_discards_total", Help: "Async results dropped because a newer request superseded them"},
		[]string{"kind"},
	)

	ViewersConnected = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_tracking", Name: "viewers_connected", Help: "Open tracking websocket sessions"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_tracking", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_tracking",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
