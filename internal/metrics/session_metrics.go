package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("mindease-session-metrics")

// SessionMetrics records assessment, chat and gateway activity. A nil
// *SessionMetrics is valid and records nothing.
type SessionMetrics struct {
	submissionsCounter      metric.Int64Counter
	submissionsFailed       metric.Int64Counter
	submissionDuration      metric.Float64Histogram
	chatSendsCounter        metric.Int64Counter
	chatSendDuration        metric.Float64Histogram
	gatewayCallsCounter     metric.Int64Counter
	gatewayCallDuration     metric.Float64Histogram
	activeSessionsGauge     metric.Int64UpDownCounter
	dashboardRecordsCounter metric.Int64Counter
}

// NewSessionMetrics creates the instruments on the global meter provider.
func NewSessionMetrics() (*SessionMetrics, error) {
	submissionsCounter, err := meter.Int64Counter(
		"mindease.assessment.submissions",
		metric.WithDescription("Assessment submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	submissionsFailed, err := meter.Int64Counter(
		"mindease.assessment.failures",
		metric.WithDescription("Failed assessment submissions by stage and error kind"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	submissionDuration, err := meter.Float64Histogram(
		"mindease.assessment.duration",
		metric.WithDescription("Duration of the score and explain chain in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chatSendsCounter, err := meter.Int64Counter(
		"mindease.chat.sends",
		metric.WithDescription("Chat messages sent by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	chatSendDuration, err := meter.Float64Histogram(
		"mindease.chat.duration",
		metric.WithDescription("Duration of converse calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	gatewayCallsCounter, err := meter.Int64Counter(
		"mindease.gateway.calls",
		metric.WithDescription("Calls to the scoring service by operation and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	gatewayCallDuration, err := meter.Float64Histogram(
		"mindease.gateway.duration",
		metric.WithDescription("Round trip time of scoring service calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeSessionsGauge, err := meter.Int64UpDownCounter(
		"mindease.sessions.active",
		metric.WithDescription("Number of live session controllers"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	dashboardRecordsCounter, err := meter.Int64Counter(
		"mindease.monitoring.records_loaded",
		metric.WithDescription("Records loaded for the monitoring dashboard"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &SessionMetrics{
		submissionsCounter:      submissionsCounter,
		submissionsFailed:       submissionsFailed,
		submissionDuration:      submissionDuration,
		chatSendsCounter:        chatSendsCounter,
		chatSendDuration:        chatSendDuration,
		gatewayCallsCounter:     gatewayCallsCounter,
		gatewayCallDuration:     gatewayCallDuration,
		activeSessionsGauge:     activeSessionsGauge,
		dashboardRecordsCounter: dashboardRecordsCounter,
	}, nil
}

// RecordSubmissionStarted records a submission entering Pending.
func (sm *SessionMetrics) RecordSubmissionStarted(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.submissionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "started")))
}

// RecordSubmissionSucceeded records a submission reaching Succeeded.
func (sm *SessionMetrics) RecordSubmissionSucceeded(ctx context.Context, label string, duration time.Duration) {
	if sm == nil {
		return
	}
	sm.submissionsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", "succeeded"),
		attribute.String("stress.label", label),
	))
	sm.submissionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", "succeeded")))
}

// RecordSubmissionFailed records a submission reaching Failed at stage
// (score or explain).
func (sm *SessionMetrics) RecordSubmissionFailed(ctx context.Context, stage, errorKind string, duration time.Duration) {
	if sm == nil {
		return
	}
	sm.submissionsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "failed")))
	sm.submissionsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("error.kind", errorKind),
	))
	sm.submissionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", "failed")))
}

// RecordChatSend records a resolved converse call. errorKind is empty on success.
func (sm *SessionMetrics) RecordChatSend(ctx context.Context, errorKind string, duration time.Duration) {
	if sm == nil {
		return
	}
	status := "succeeded"
	if errorKind != "" {
		status = "failed"
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("error.kind", errorKind),
	)
	sm.chatSendsCounter.Add(ctx, 1, attrs)
	sm.chatSendDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGatewayCall records one round trip to the scoring service.
func (sm *SessionMetrics) RecordGatewayCall(ctx context.Context, op, outcome string, duration time.Duration) {
	if sm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	sm.gatewayCallsCounter.Add(ctx, 1, attrs)
	sm.gatewayCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSessionOpened increments the live session gauge for kind.
func (sm *SessionMetrics) RecordSessionOpened(ctx context.Context, kind string) {
	if sm == nil {
		return
	}
	sm.activeSessionsGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("session.kind", kind)))
}

// RecordSessionClosed decrements the live session gauge for kind.
func (sm *SessionMetrics) RecordSessionClosed(ctx context.Context, kind string) {
	if sm == nil {
		return
	}
	sm.activeSessionsGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("session.kind", kind)))
}

// RecordDashboardLoad records the number of records behind a dashboard view.
func (sm *SessionMetrics) RecordDashboardLoad(ctx context.Context, source string, records int) {
	if sm == nil {
		return
	}
	sm.dashboardRecordsCounter.Add(ctx, int64(records), metric.WithAttributes(attribute.String("source", source)))
}
