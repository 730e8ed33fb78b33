package deposit

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sdr_client"

// Metrics collected during a deposit. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	FilesUploaded prometheus.Counter
	BytesUploaded prometheus.Counter
	Deposits      *prometheus.CounterVec
}

// NewMetrics creates the deposit metrics and registers them in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_uploaded_total",
			Help:      "The total number of files uploaded.",
		}),
		BytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_uploaded_total",
			Help:      "The total number of bytes uploaded.",
		}),
		Deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deposits_total",
			Help:      "The total number of deposits by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.FilesUploaded, m.BytesUploaded, m.Deposits)
	}
	return m
}

func (m *Metrics) fileUploaded(size int64) {
	if m == nil {
		return
	}
	m.FilesUploaded.Inc()
	m.BytesUploaded.Add(float64(size))
}

func (m *Metrics) deposit(outcome string) {
	if m == nil {
		return
	}
	m.Deposits.WithLabelValues(outcome).Inc()
}
