// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Settlement metrics
	SwapsSettled        prometheus.Counter
	SwapVolumeTotal     prometheus.Counter
	SwapFeesTotal       prometheus.Counter
	ClaimsCreated       prometheus.Counter
	PaymentsProcessed   *prometheus.CounterVec
	TransfersSettled    prometheus.Counter
	AirdropsSettled     prometheus.Counter
	SettlementsRejected *prometheus.CounterVec
	SettlementDuration  *prometheus.HistogramVec

	// Pool metrics
	PoolTotalVolume  prometheus.Gauge
	PoolExchangeRate prometheus.Gauge

	// Event fan-out metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	WSClientsActive prometheus.Gauge

	// Archive metrics
	EventsArchived     prometheus.Counter
	ArchiveFlushErrors prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSettlement prometheus.Gauge
	UptimeSeconds  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "msc_ledger"
	}

	return &Metrics{
		// Settlement metrics
		SwapsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "swaps_settled_total",
			Help:      "Total number of swaps settled",
		}),
		SwapVolumeTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "swap_volume_total",
			Help:      "Cumulative MSC input volume across settled swaps",
		}),
		SwapFeesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "swap_fees_total",
			Help:      "Cumulative fee amount retained across settled swaps",
		}),
		ClaimsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "claims_created_total",
			Help:      "Total number of ownership claims created",
		}),
		PaymentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "payments_processed_total",
			Help:      "Total number of payments processed by service tier",
		}, []string{"service"}),
		TransfersSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "transfers_settled_total",
			Help:      "Total number of direct token transfers settled",
		}),
		AirdropsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "airdrops_settled_total",
			Help:      "Total number of batch airdrops settled",
		}),
		SettlementsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "rejected_total",
			Help:      "Total number of rejected settlements by operation and reason",
		}, []string{"operation", "reason"}),
		SettlementDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Settlement operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		// Pool metrics
		PoolTotalVolume: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "total_volume",
			Help:      "Current cumulative MSC input volume of the exchange pool",
		}),
		PoolExchangeRate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "exchange_rate",
			Help:      "Current MSC/USDC exchange rate (1e6 scale)",
		}),

		// Event fan-out metrics
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of settlement events published by type",
		}, []string{"event_type"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of events dropped due to slow consumers",
		}),
		WSClientsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ws_clients_active",
			Help:      "Number of connected WebSocket clients",
		}),

		// Archive metrics
		EventsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "events_archived_total",
			Help:      "Total number of settlement events written to the archive",
		}),
		ArchiveFlushErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "flush_errors_total",
			Help:      "Total number of failed archive flushes",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSettlement: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_settlement_timestamp",
			Help:      "Unix timestamp of the last committed settlement",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSwapSettled records a committed swap.
func RecordSwapSettled(inputAmount, feeAmount uint64) {
	DefaultMetrics.SwapsSettled.Inc()
	DefaultMetrics.SwapVolumeTotal.Add(float64(inputAmount))
	DefaultMetrics.SwapFeesTotal.Add(float64(feeAmount))
}

// RecordClaimCreated increments the claims created counter.
func RecordClaimCreated() {
	DefaultMetrics.ClaimsCreated.Inc()
}

// RecordPaymentProcessed increments the payments counter for a service tier.
func RecordPaymentProcessed(service string) {
	DefaultMetrics.PaymentsProcessed.WithLabelValues(service).Inc()
}

// RecordRejection records a rejected settlement.
func RecordRejection(operation, reason string) {
	DefaultMetrics.SettlementsRejected.WithLabelValues(operation, reason).Inc()
}

// RecordSettlementDuration records how long a settlement took.
func RecordSettlementDuration(operation string, seconds float64) {
	DefaultMetrics.SettlementDuration.WithLabelValues(operation).Observe(seconds)
}

// UpdatePoolState updates the pool gauges after a committed settlement.
func UpdatePoolState(totalVolume, exchangeRate uint64) {
	DefaultMetrics.PoolTotalVolume.Set(float64(totalVolume))
	DefaultMetrics.PoolExchangeRate.Set(float64(exchangeRate))
}

// RecordEventPublished increments the published events counter.
func RecordEventPublished(eventType string) {
	DefaultMetrics.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// MarkSettlement updates the last settlement timestamp.
func MarkSettlement(ts int64) {
	DefaultMetrics.LastSettlement.Set(float64(ts))
}
