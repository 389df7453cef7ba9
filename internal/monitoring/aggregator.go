// Package monitoring derives the history dashboard from the raw record log.
// Every view is recomputed from the records passed in; nothing is cached.
package monitoring

import (
	"context"
	"fmt"

	"github.com/bizmatters/mindease/console/internal/metrics"
	"github.com/bizmatters/mindease/console/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("mindease-monitoring")

// RecordSource is the read side of the record store.
type RecordSource interface {
	MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error)
}

// LabelCounts buckets records by exact label. Records with any other label
// are not counted anywhere.
type LabelCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Tone is the badge and bar color class of a label.
type Tone string

const (
	ToneLow    Tone = "low"
	ToneMedium Tone = "medium"
	ToneHigh   Tone = "high"
)

// ChartBar is one bar of the distribution chart.
type ChartBar struct {
	Name  models.StressLabel `json:"name"`
	Count int                `json:"count"`
	Tone  Tone               `json:"tone"`
}

// Row is one table row of the dashboard.
type Row struct {
	models.MonitoringRecord
	Tone Tone `json:"tone"`
}

// Dashboard is the full derived view.
type Dashboard struct {
	Counts     LabelCounts `json:"counts"`
	Chart      []ChartBar  `json:"chart"`
	Rows       []Row       `json:"rows"`
	TotalCount int         `json:"total_count"`
}

// CountsByLabel counts records per known label.
func CountsByLabel(records []models.MonitoringRecord) LabelCounts {
	var counts LabelCounts
	for _, r := range records {
		switch r.PredictedLabel {
		case models.LabelLow:
			counts.Low++
		case models.LabelMedium:
			counts.Medium++
		case models.LabelHigh:
			counts.High++
		}
	}
	return counts
}

// DisplayOrder returns a new slice with the records in reverse order, most
// recent first. Duplicates are kept.
func DisplayOrder(records []models.MonitoringRecord) []models.MonitoringRecord {
	out := make([]models.MonitoringRecord, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}

// TotalCount counts every record, including ones with unknown labels, so it
// can exceed the sum of CountsByLabel.
func TotalCount(records []models.MonitoringRecord) int {
	return len(records)
}

// BadgeTone maps a label to its tone. Anything that is not High or Medium
// renders as low.
func BadgeTone(label models.StressLabel) Tone {
	switch label {
	case models.LabelHigh:
		return ToneHigh
	case models.LabelMedium:
		return ToneMedium
	}
	return ToneLow
}

// Summarize derives the dashboard from records.
func Summarize(records []models.MonitoringRecord) Dashboard {
	counts := CountsByLabel(records)

	ordered := DisplayOrder(records)
	rows := make([]Row, len(ordered))
	for i, r := range ordered {
		rows[i] = Row{MonitoringRecord: r, Tone: BadgeTone(r.PredictedLabel)}
	}

	return Dashboard{
		Counts: counts,
		Chart: []ChartBar{
			{Name: models.LabelLow, Count: counts.Low, Tone: ToneLow},
			{Name: models.LabelMedium, Count: counts.Medium, Tone: ToneMedium},
			{Name: models.LabelHigh, Count: counts.High, Tone: ToneHigh},
		},
		Rows:       rows,
		TotalCount: TotalCount(records),
	}
}

// Aggregator loads records once per view activation and summarizes them.
type Aggregator struct {
	source     RecordSource
	sourceName string
	metrics    *metrics.SessionMetrics
}

// NewAggregator wraps source. sourceName only labels metrics.
func NewAggregator(source RecordSource, sourceName string, m *metrics.SessionMetrics) *Aggregator {
	return &Aggregator{source: source, sourceName: sourceName, metrics: m}
}

// Ping checks the record store when the source supports it. Sources
// without a Ping (the scoring service) report nil; their health is the
// scoring service's.
func (a *Aggregator) Ping(ctx context.Context) error {
	p, ok := a.source.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("record store unreachable: %w", err)
	}
	return nil
}

// Load fetches the current records and returns their dashboard.
func (a *Aggregator) Load(ctx context.Context) (Dashboard, error) {
	ctx, span := tracer.Start(ctx, "monitoring.load")
	defer span.End()

	records, err := a.source.MonitoringData(ctx)
	if err != nil {
		span.RecordError(err)
		return Dashboard{}, fmt.Errorf("failed to load monitoring records: %w", err)
	}

	span.SetAttributes(
		attribute.String("monitoring.source", a.sourceName),
		attribute.Int("monitoring.records", len(records)),
	)
	a.metrics.RecordDashboardLoad(ctx, a.sourceName, len(records))

	return Summarize(records), nil
}
