package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the generator counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	recordsTotal   prometheus.Counter
	bytesTotal     prometheus.Counter
	faultsTotal    prometheus.Counter
	batchesTotal   *prometheus.CounterVec
	encodeDuration prometheus.Histogram
	workersActive  prometheus.Gauge
}

// NewMetrics creates the generator metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegen_generator_records_total",
			Help: "Total number of records generated and encoded",
		}),
		bytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegen_generator_bytes_total",
			Help: "Total number of encoded bytes handed to sinks",
		}),
		faultsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegen_generator_faults_total",
			Help: "Total number of injected field faults",
		}),
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telegen_generator_batches_total",
			Help: "Total number of batches by outcome",
		}, []string{"status"}),
		encodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegen_generator_encode_duration_seconds",
			Help:    "Time spent encoding a single record",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		workersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telegen_generator_workers_active",
			Help: "Number of generator workers currently running",
		}),
	}
}

func (m *Metrics) recordBatch(records, bytes, faults int, err error) {
	if m == nil {
		return
	}
	status := statusSuccess
	if err != nil {
		status = statusError
	} else {
		m.recordsTotal.Add(float64(records))
		m.bytesTotal.Add(float64(bytes))
		m.faultsTotal.Add(float64(faults))
	}
	m.batchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) observeEncode(d time.Duration) {
	if m == nil {
		return
	}
	m.encodeDuration.Observe(d.Seconds())
}

func (m *Metrics) workerStarted() {
	if m != nil {
		m.workersActive.Inc()
	}
}

func (m *Metrics) workerStopped() {
	if m != nil {
		m.workersActive.Dec()
	}
}

const (
	statusSuccess = "success"
	statusError   = "error"
)
