package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Route aggregation metrics
	// ============================================
	RouteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_route_requests_total",
			Help: "Total number of route aggregation requests",
		},
		[]string{"from_chain", "to_chain"},
	)

	RoutesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backend_routes_returned",
		Help:    "Number of routes returned per aggregation request",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
	})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backend_route_aggregation_duration_seconds",
		Help:    "Route aggregation fan-out duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ============================================
	// Provider adapter metrics
	// ============================================
	AdapterQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_adapter_quotes_total",
			Help: "Total adapter quotes by protocol and source (live/fallback)",
		},
		[]string{"protocol", "source"},
	)

	AdapterPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_adapter_panics_total",
			Help: "Total adapter invocations dropped by the aggregator's recover guard",
		},
		[]string{"protocol"},
	)

	// ============================================
	// Price oracle metrics
	// ============================================
	PriceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_price_cache_hits_total",
		Help: "Total price cache hits within the freshness window",
	})

	PriceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_price_cache_misses_total",
		Help: "Total price cache misses or expiries requiring a live fetch",
	})

	PriceFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_price_fetch_failures_total",
		Help: "Total live price fetch failures resolved by fallback",
	})

	// ============================================
	// Gas estimator metrics
	// ============================================
	GasPriceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_gas_price_fallbacks_total",
			Help: "Total gas price lookups served from per-chain fallback constants",
		},
		[]string{"chain"},
	)

	// ============================================
	// NATS event metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_events_published_total",
			Help: "Total NATS events published by subject",
		},
		[]string{"subject"},
	)

	// ============================================
	// WebSocket push metrics
	// ============================================
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_websocket_connections",
		Help: "Number of active websocket price stream connections",
	})
)
