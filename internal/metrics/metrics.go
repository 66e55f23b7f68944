package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Shard metrics
	ShardCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shardex_shard_count",
		Help: "Total number of shards in the registry",
	})

	PairCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shardex_pair_count",
		Help: "Total number of asset pairs with at least one shard",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"status"},
	)

	QuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shardex_quote_duration_seconds",
		Help:    "Quote request duration in seconds",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	QuoteRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_quote_rejections_total",
			Help: "Per-candidate quote failures seen while selecting a shard",
		},
		[]string{"reason"},
	)

	// Route metrics
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_route_requests_total",
			Help: "Total number of route requests",
		},
		[]string{"status"},
	)

	RouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shardex_route_duration_seconds",
		Help:    "Route computation duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	RouteHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shardex_route_hops",
		Help:    "Number of hops per computed route plan",
		Buckets: []float64{1, 2},
	})

	// Execution metrics
	SwapExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_swap_executions_total",
			Help: "Total number of swap executions",
		},
		[]string{"status"},
	)

	LiquidityOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_liquidity_ops_total",
			Help: "Total number of liquidity add/remove operations",
		},
		[]string{"op", "status"},
	)

	// Persistence metrics
	StorageWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardex_storage_writes_total",
		Help: "Total number of shard records written through to storage",
	})

	StorageWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardex_storage_write_failures_total",
		Help: "Total number of failed shard record writes",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shardex_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
