package service

import "github.com/prometheus/client_golang/prometheus"

// Parse outcomes recorded by Metrics.Documents.
const (
	OutcomeParsed = "parsed"
	OutcomeEmpty  = "empty"
)

// Metrics groups the collectors the analyzer updates.
type Metrics struct {
	Documents *prometheus.CounterVec
	Skipped   *prometheus.CounterVec
	Samples   prometheus.Histogram
	Summaries prometheus.Counter
}

// NewMetrics creates the analyzer collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meterlens_documents_parsed_total",
				Help: "Documents parsed, by outcome",
			},
			[]string{"outcome"},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meterlens_parse_skipped_total",
				Help: "Periods and points skipped while parsing",
			},
			[]string{"kind"},
		),
		Samples: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meterlens_document_samples",
				Help:    "Samples produced per parsed document",
				Buckets: prometheus.ExponentialBuckets(4, 4, 8),
			},
		),
		Summaries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "meterlens_summaries_total",
				Help: "Statistics summaries computed",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.Documents, m.Skipped, m.Samples, m.Summaries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
