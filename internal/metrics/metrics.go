package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DocumentsProcessed  prometheus.Counter
	DocumentsUnreadable prometheus.Counter
	DossiersEvaluated   prometheus.Counter
	NonConformities     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		DocumentsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossie_documents_processed_total",
			Help: "Total number of documents run through field extraction",
		}),
		DocumentsUnreadable: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossie_documents_unreadable_total",
			Help: "Total number of documents excluded because OCR text could not be acquired",
		}),
		DossiersEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossie_dossiers_evaluated_total",
			Help: "Total number of dossiers consolidated and evaluated",
		}),
		NonConformities: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossie_non_conformities_total",
			Help: "Total number of non-conformities raised by eligibility evaluation",
		}),
	}
}

func (m *Metrics) ObserveDocument(unreadable bool) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.Inc()
	if unreadable {
		m.DocumentsUnreadable.Inc()
	}
}

func (m *Metrics) ObserveDecision(nonConformities int) {
	if m == nil {
		return
	}
	m.DossiersEvaluated.Inc()
	m.NonConformities.Add(float64(nonConformities))
}
