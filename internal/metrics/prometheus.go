package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess    = "success"
	OutcomeBadRequest = "bad_request"
	OutcomeFailed     = "failed"
)

type Metrics struct {
	writeRequests      *prometheus.CounterVec
	writesInFlight     prometheus.Gauge
	contractReads      *prometheus.CounterVec
	sendTransactionDur prometheus.Histogram
	droppedEvents      prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		writeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contract_write_requests_total",
			Help: "The total number of contract write requests by outcome",
		}, []string{"outcome"}),
		writesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contract_writes_in_flight",
			Help: "The number of write requests waiting on the wallet API",
		}),
		contractReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contract_reads_total",
			Help: "The total number of contract reads by outcome",
		}, []string{"outcome"}),
		sendTransactionDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "privy_send_transaction_seconds",
			Help:    "Time spent waiting for the wallet API to sign and broadcast",
			Buckets: prometheus.DefBuckets,
		}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transaction_events_dropped_total",
			Help: "The total number of transaction events dropped because the bus was full",
		}),
	}
	metrics.register(registerer)
	return metrics
}

func (m *Metrics) register(registerer prometheus.Registerer) {
	registerer.MustRegister(
		m.writeRequests,
		m.writesInFlight,
		m.contractReads,
		m.sendTransactionDur,
		m.droppedEvents,
	)
}

func (m *Metrics) IncrementWriteRequests(outcome string) {
	m.writeRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementWritesInFlight() {
	m.writesInFlight.Inc()
}

func (m *Metrics) DecrementWritesInFlight() {
	m.writesInFlight.Dec()
}

func (m *Metrics) IncrementContractReads(outcome string) {
	m.contractReads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSendTransaction(d time.Duration) {
	m.sendTransactionDur.Observe(d.Seconds())
}

func (m *Metrics) IncrementDroppedEvents() {
	m.droppedEvents.Inc()
}
