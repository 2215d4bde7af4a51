// Package metrics provides observability for audit runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the audit engine. A nil *Metrics is safe to call.
type Metrics struct {
	// Full audit run latency
	RunLatency prometheus.Histogram

	// Preparatory load latencies by source
	LoadLatency *prometheus.HistogramVec

	// Findings by direction and affected tax
	Divergencias *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditafolha_auditoria_run_duration_seconds",
			Help:    "Duration of full audit runs including preparatory loads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		LoadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditafolha_auditoria_load_duration_seconds",
			Help:    "Duration of preparatory load operations by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "base_conhecimento", "processos", "vinculos", "parametros"

		Divergencias: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auditafolha_auditoria_divergencias_total",
			Help: "Total findings emitted by impact direction and affected tax",
		}, []string{"tipo_impacto", "tributo"}),
	}
}

// ObserveRunLatency records the duration of a full audit run.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}

// ObserveLoadLatency records the duration of one preparatory load.
func (m *Metrics) ObserveLoadLatency(source string, d time.Duration) {
	if m != nil {
		m.LoadLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementDivergencia records one emitted finding.
func (m *Metrics) IncrementDivergencia(tipoImpacto, tributo string) {
	if m != nil {
		m.Divergencias.WithLabelValues(tipoImpacto, tributo).Inc()
	}
}
