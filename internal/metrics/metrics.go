// Package metrics метрики Prometheus для реестра задач.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TaskTransitions переходы задач по целевому статусу.
var TaskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskbounty",
	Name:      "task_transitions_total",
	Help:      "Total task status transitions.",
}, []string{"status"})

// EscrowMovements суммы, прошедшие через escrow, по виду движения.
var EscrowMovements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskbounty",
	Name:      "escrow_movements_total",
	Help:      "Total amount moved by escrow, in the smallest currency unit.",
}, []string{"kind"})

// FeesCollected комиссии, зачисленные в пул.
var FeesCollected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "taskbounty",
	Name:      "fees_collected_total",
	Help:      "Total platform fees credited to the pool.",
})

// FeePool текущий размер пула комиссий.
var FeePool = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "taskbounty",
	Name:      "fee_pool_current",
	Help:      "Current platform fee pool.",
})

// LedgerErrors отказы операций по числовому коду ошибки.
var LedgerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskbounty",
	Name:      "ledger_errors_total",
	Help:      "Rejected ledger operations by error code.",
}, []string{"code"})

// AuditImbalance 1, если последняя сверка обнаружила расхождение.
var AuditImbalance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "taskbounty",
	Name:      "audit_imbalance",
	Help:      "Set to 1 when the last ledger audit found an imbalance.",
})

// EventsPublished события, отправленные подписчикам, по транспорту.
var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taskbounty",
	Name:      "events_published_total",
	Help:      "Ledger events delivered to subscribers.",
}, []string{"transport"})

// HTTPRequestDuration длительность HTTP запросов.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "taskbounty",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
