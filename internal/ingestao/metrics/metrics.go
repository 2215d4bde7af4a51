// Package metrics provides observability for the import pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the importer. A nil *Metrics is safe to call.
type Metrics struct {
	// Full batch latency, ZIP expansion included
	BatchLatency prometheus.Histogram

	// Processed files by event type and outcome
	Arquivos *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		BatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditafolha_ingestao_batch_duration_seconds",
			Help:    "Duration of full import batches including ZIP expansion",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		Arquivos: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auditafolha_ingestao_arquivos_total",
			Help: "Total processed files by event type and outcome",
		}, []string{"evento", "status"}), // status: "sucesso", "erro", "nao_suportado"
	}
}

// ObserveBatchLatency records the duration of one import batch.
func (m *Metrics) ObserveBatchLatency(d time.Duration) {
	if m != nil {
		m.BatchLatency.Observe(d.Seconds())
	}
}

// IncrementArquivo records one processed file.
func (m *Metrics) IncrementArquivo(evento, status string) {
	if m != nil {
		m.Arquivos.WithLabelValues(evento, status).Inc()
	}
}
