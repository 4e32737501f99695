package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "facility"

// Ledger Prometheus metrics.
var (
	LedgerOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by outcome code",
		},
		[]string{"op", "code"},
	)

	LedgerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_published_total",
			Help:      "Ledger events appended to the event stream",
		},
		[]string{"kind"},
	)
)

var ledgerMetricsRegistered bool

// RegisterLedgerMetrics registers Prometheus ledger metrics. Must be called once from main.
func RegisterLedgerMetrics() {
	if ledgerMetricsRegistered {
		return
	}
	prometheus.MustRegister(LedgerOperationsTotal)
	prometheus.MustRegister(LedgerEventsTotal)
	ledgerMetricsRegistered = true
}

// Recorder feeds ledger outcomes into the ledger metrics.
type Recorder struct{}

// RecordOperation counts one ledger operation outcome.
func (Recorder) RecordOperation(op, code string) {
	LedgerOperationsTotal.WithLabelValues(op, code).Inc()
}

// RecordEvent counts one published event.
func (Recorder) RecordEvent(kind string) {
	LedgerEventsTotal.WithLabelValues(kind).Inc()
}
