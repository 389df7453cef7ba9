package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bizmatters/mindease/console/internal/config"
	"github.com/bizmatters/mindease/console/internal/metrics"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	opScore          = "score"
	opExplain        = "explain"
	opConverse       = "converse"
	opMonitoringData = "monitoring_data"

	maxResponseBytes = 1 << 20
	bodySnippetBytes = 256
)

// ScoringGateway is the part of the remote service used by AssessmentSession.
type ScoringGateway interface {
	Score(ctx context.Context, answers models.AnswerSet) (*ScoreResponse, error)
	Explain(ctx context.Context, label models.StressLabel, factors []string) (*ExplainResponse, error)
}

// ConversationGateway is the part of the remote service used by ChatSession.
type ConversationGateway interface {
	Converse(ctx context.Context, message string, history []string) (*ConverseResponse, error)
}

// RequestGateway is the full remote service contract.
type RequestGateway interface {
	ScoringGateway
	ConversationGateway
	MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error)
	IsHealthy(ctx context.Context) bool
}

// TokenSource supplies the bearer token attached to outgoing calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ScoreResponse is the validated result of a score call.
type ScoreResponse struct {
	Prediction int                `json:"prediction"`
	Label      models.StressLabel `json:"label"`
	Factors    []string           `json:"factors"`
}

// ExplainResponse is the validated result of an explain call.
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// ConverseResponse is the validated result of a converse call.
type ConverseResponse struct {
	Reply  string `json:"reply"`
	Advice string `json:"advice,omitempty"`
}

type explainRequest struct {
	Label   models.StressLabel `json:"label"`
	Factors []string           `json:"factors"`
}

type converseRequest struct {
	Message string   `json:"message"`
	History []string `json:"history"`
}

// MindEaseClient talks to the scoring, explanation and chat service. Every
// call is a single round trip: no retries and no caching.
type MindEaseClient struct {
	baseURL     string
	httpClient  *http.Client
	tracer      trace.Tracer
	breaker     *gobreaker.CircuitBreaker
	tokenSource TokenSource
	metrics     *metrics.SessionMetrics
}

// ClientOption configures a MindEaseClient.
type ClientOption func(*MindEaseClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *MindEaseClient) { c.httpClient = httpClient }
}

// WithTokenSource attaches a bearer token to every call.
func WithTokenSource(source TokenSource) ClientOption {
	return func(c *MindEaseClient) { c.tokenSource = source }
}

// WithMetrics records every round trip.
func WithMetrics(m *metrics.SessionMetrics) ClientOption {
	return func(c *MindEaseClient) { c.metrics = m }
}

// NewMindEaseClient creates a client for cfg.BaseURL. The circuit breaker is
// only installed when cfg.Breaker.Enabled is set.
func NewMindEaseClient(cfg config.ScoringConfig, opts ...ClientOption) *MindEaseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &MindEaseClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("mindease-client"),
	}

	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	settings := gobreaker.Settings{
		Name:        "mindease-scoring",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Score sends the full answer set and returns the classification.
func (c *MindEaseClient) Score(ctx context.Context, answers models.AnswerSet) (*ScoreResponse, error) {
	ctx, span := c.tracer.Start(ctx, "mindease.score")
	defer span.End()

	body, err := c.roundTrip(ctx, opScore, http.MethodPost, "/predict", answers.Values())
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var wire struct {
		Prediction *int      `json:"prediction"`
		Label      *string   `json:"label"`
		Factors    *[]string `json:"factors"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		err = malformed(opScore, fmt.Errorf("failed to decode response: %w", err))
		recordSpanError(span, err)
		return nil, err
	}

	resp, err := validateScore(wire.Prediction, wire.Label, wire.Factors)
	if err != nil {
		err = malformed(opScore, err)
		recordSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("stress.label", string(resp.Label)),
		attribute.Int("stress.factors", len(resp.Factors)),
	)
	return resp, nil
}

func validateScore(prediction *int, label *string, factors *[]string) (*ScoreResponse, error) {
	if prediction == nil {
		return nil, errors.New("missing prediction")
	}
	if *prediction < 0 || *prediction > 2 {
		return nil, fmt.Errorf("prediction %d out of range", *prediction)
	}
	if label == nil {
		return nil, errors.New("missing label")
	}
	if !models.StressLabel(*label).Valid() {
		return nil, fmt.Errorf("unknown label %q", *label)
	}
	if got := models.StressLabel(*label).Prediction(); got != *prediction {
		return nil, fmt.Errorf("label %q does not match prediction %d", *label, *prediction)
	}
	if factors == nil {
		return nil, errors.New("missing factors")
	}
	return &ScoreResponse{
		Prediction: *prediction,
		Label:      models.StressLabel(*label),
		Factors:    *factors,
	}, nil
}

// Explain asks for a narrative explanation of label and factors.
func (c *MindEaseClient) Explain(ctx context.Context, label models.StressLabel, factors []string) (*ExplainResponse, error) {
	ctx, span := c.tracer.Start(ctx, "mindease.explain")
	defer span.End()

	span.SetAttributes(attribute.String("stress.label", string(label)))

	if factors == nil {
		factors = []string{}
	}
	body, err := c.roundTrip(ctx, opExplain, http.MethodPost, "/explain", explainRequest{Label: label, Factors: factors})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var wire struct {
		Explanation *string `json:"explanation"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		err = malformed(opExplain, fmt.Errorf("failed to decode response: %w", err))
		recordSpanError(span, err)
		return nil, err
	}
	if wire.Explanation == nil {
		err = malformed(opExplain, errors.New("missing explanation"))
		recordSpanError(span, err)
		return nil, err
	}

	return &ExplainResponse{Explanation: *wire.Explanation}, nil
}

// Converse sends a chat message together with its context.
func (c *MindEaseClient) Converse(ctx context.Context, message string, history []string) (*ConverseResponse, error) {
	ctx, span := c.tracer.Start(ctx, "mindease.converse")
	defer span.End()

	span.SetAttributes(attribute.Int("chat.history_length", len(history)))

	if history == nil {
		history = []string{}
	}
	body, err := c.roundTrip(ctx, opConverse, http.MethodPost, "/chat", converseRequest{Message: message, History: history})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var wire struct {
		Reply  *string `json:"reply"`
		Advice *string `json:"advice"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		err = malformed(opConverse, fmt.Errorf("failed to decode response: %w", err))
		recordSpanError(span, err)
		return nil, err
	}
	if wire.Reply == nil {
		err = malformed(opConverse, errors.New("missing reply"))
		recordSpanError(span, err)
		return nil, err
	}

	resp := &ConverseResponse{Reply: *wire.Reply}
	if wire.Advice != nil {
		resp.Advice = *wire.Advice
	}
	return resp, nil
}

// MonitoringData fetches every historical record in append order.
func (c *MindEaseClient) MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error) {
	ctx, span := c.tracer.Start(ctx, "mindease.monitoring_data")
	defer span.End()

	body, err := c.roundTrip(ctx, opMonitoringData, http.MethodGet, "/monitoring-data", nil)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var wire []struct {
		ID               *int64  `json:"id"`
		PredictedLabel   *string `json:"predicted_label"`
		PredictedFactors string  `json:"predicted_factors"`
		AnxietyLevel     *int    `json:"anxiety_level"`
		SleepQuality     *int    `json:"sleep_quality"`
		StudyLoad        *int    `json:"study_load"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		err = malformed(opMonitoringData, fmt.Errorf("failed to decode response: %w", err))
		recordSpanError(span, err)
		return nil, err
	}

	records := make([]models.MonitoringRecord, 0, len(wire))
	for i, item := range wire {
		if item.ID == nil {
			err = malformed(opMonitoringData, fmt.Errorf("record %d is missing id", i))
			recordSpanError(span, err)
			return nil, err
		}
		// A null label is kept as "": counted in the total, in no bucket.
		var label models.StressLabel
		if item.PredictedLabel != nil {
			label = models.StressLabel(*item.PredictedLabel)
		}
		records = append(records, models.MonitoringRecord{
			ID:               *item.ID,
			PredictedLabel:   label,
			PredictedFactors: item.PredictedFactors,
			AnxietyLevel:     item.AnxietyLevel,
			SleepQuality:     item.SleepQuality,
			StudyLoad:        item.StudyLoad,
		})
	}

	span.SetAttributes(attribute.Int("monitoring.records", len(records)))
	return records, nil
}

// IsHealthy checks the service root endpoint.
func (c *MindEaseClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "mindease.health_check")
	defer span.End()

	if c.breaker != nil && c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second, Transport: c.httpClient.Transport}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))
	return healthy
}

// roundTrip performs one HTTP exchange through the breaker and returns the
// body of a 2xx response.
func (c *MindEaseClient) roundTrip(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	start := time.Now()

	var body []byte
	var err error
	if c.breaker != nil {
		var result interface{}
		result, err = c.breaker.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, op, method, path, payload)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = unreachable(op, err)
		}
		if err == nil {
			body = result.([]byte)
		}
	} else {
		body, err = c.doRequest(ctx, op, method, path, payload)
	}

	outcome := "ok"
	if kind, ok := KindOf(err); ok {
		outcome = kind.String()
	}
	c.metrics.RecordGatewayCall(ctx, op, outcome, time.Since(start))

	return body, err
}

func (c *MindEaseClient) doRequest(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, unreachable(op, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokenSource != nil {
		token, err := c.tokenSource.Token(ctx)
		if err != nil {
			return nil, unreachable(op, fmt.Errorf("failed to obtain service token: %w", err))
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("request.id", requestID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, unreachable(op, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unreachable(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(op, resp.StatusCode,
			fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, snippet(bodyBytes)))
	}

	return bodyBytes, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > bodySnippetBytes {
		return s[:bodySnippetBytes] + "..."
	}
	return s
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind, ok := KindOf(err); ok {
		span.SetAttributes(attribute.String("error.kind", kind.String()))
	}
}
