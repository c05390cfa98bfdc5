// Package service wires the parser, statistics and digest packages together
// behind one facade used by both transports.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterlens/internal/digest"
	"github.com/tejusbharadwaj/meterlens/internal/models"
	"github.com/tejusbharadwaj/meterlens/internal/parser"
	"github.com/tejusbharadwaj/meterlens/internal/stats"
	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

// Report is the analysis of one parsed document in one display zone.
type Report struct {
	Source  models.TimezoneMeta `json:"source_timezone"`
	Display timezone.Zone       `json:"display_timezone"`
	Parse   models.ParseReport  `json:"parse"`
	Summary stats.Summary       `json:"summary"`
	Digest  string              `json:"digest"`
}

// Analyzer runs documents through the parser and the statistics engine,
// logging and counting as it goes. It is safe for concurrent use.
type Analyzer struct {
	logger      *logrus.Logger
	metrics     *Metrics
	defaultZone string
}

// NewAnalyzer creates an analyzer. defaultZone is used when a caller does not
// name a display zone.
func NewAnalyzer(logger *logrus.Logger, metrics *Metrics, defaultZone string) *Analyzer {
	if defaultZone == "" {
		defaultZone = timezone.Default
	}
	return &Analyzer{logger: logger, metrics: metrics, defaultZone: defaultZone}
}

// Parse decodes a document. Malformed input yields an empty result, never an
// error; the only error is a cancelled context.
func (a *Analyzer) Parse(ctx context.Context, xmlText, countryHint string) (models.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ParseResult{}, err
	}

	start := time.Now()
	result := parser.Parse(xmlText, countryHint)

	outcome := OutcomeParsed
	if len(result.Samples) == 0 {
		outcome = OutcomeEmpty
	}
	a.metrics.Documents.WithLabelValues(outcome).Inc()
	a.metrics.Skipped.WithLabelValues("period").Add(float64(result.Report.SkippedPeriods))
	a.metrics.Skipped.WithLabelValues("point").Add(float64(result.Report.SkippedPoints))
	a.metrics.Samples.Observe(float64(len(result.Samples)))

	entry := a.logger.WithFields(logrus.Fields{
		"bytes":           len(xmlText),
		"samples":         len(result.Samples),
		"timezone":        result.Timezone.ShortLabel,
		"skipped_periods": result.Report.SkippedPeriods,
		"skipped_points":  result.Report.SkippedPoints,
		"duration":        time.Since(start),
	})
	if outcome == OutcomeEmpty || result.Report.SkippedPeriods > 0 || result.Report.SkippedPoints > 0 {
		entry.Warn("Document parsed with gaps")
	} else {
		entry.Debug("Document parsed")
	}
	return result, nil
}

// Validate runs the structural checks and returns the number of periods.
func (a *Analyzer) Validate(ctx context.Context, xmlText string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	periods, err := parser.Validate(xmlText)
	if err != nil {
		a.logger.WithError(err).Debug("Document failed validation")
		return 0, err
	}
	return periods, nil
}

// Summarize computes statistics and the digest for result as seen from the
// display zone. An empty zone selects the analyzer default.
func (a *Analyzer) Summarize(result models.ParseResult, displayZone string) Report {
	zone := a.zone(displayZone)
	summary := stats.Summarize(timezone.AdjustSamples(result.Samples, zone.Value))
	a.metrics.Summaries.Inc()

	return Report{
		Source:  result.Timezone,
		Display: zone,
		Parse:   result.Report,
		Summary: summary,
		Digest:  digest.Render(summary),
	}
}

// Prompt assembles the chat messages for a question about result.
func (a *Analyzer) Prompt(history []digest.Message, question string, result models.ParseResult, displayZone string, maxHistory int) []digest.Message {
	zone := a.zone(displayZone)
	return digest.Messages(history, question, timezone.AdjustSamples(result.Samples, zone.Value), maxHistory)
}

func (a *Analyzer) zone(value string) timezone.Zone {
	if value == "" {
		value = a.defaultZone
	}
	return timezone.Lookup(value)
}
