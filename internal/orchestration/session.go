package orchestration

import (
	"errors"
	"time"

	"github.com/bizmatters/mindease/console/internal/events"
	"github.com/bizmatters/mindease/console/internal/metrics"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Session rejections. Gateway failures never surface through these; they
// end up in the session's Failed state instead.
var (
	ErrSubmissionPending = errors.New("a submission is already pending")
	ErrNothingToDismiss  = errors.New("nothing to dismiss")
	ErrSendPending       = errors.New("a message is already being sent")
	ErrUnknownSuggestion = errors.New("unknown quick suggestion")
	ErrUnknownField      = models.ErrUnknownField
)

// AssessmentFailureMessage is the only failure text shown to the user.
const AssessmentFailureMessage = "Backend offline. Please start the scoring service."

const defaultTimeFormat = "03:04 PM"

var sessionTracer = otel.Tracer("mindease-session")

type sessionConfig struct {
	id         string
	publisher  events.Publisher
	metrics    *metrics.SessionMetrics
	now        func() time.Time
	timeFormat string
	tracer     trace.Tracer
}

// SessionOption configures AssessmentSession and ChatSession.
type SessionOption func(*sessionConfig)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(c *sessionConfig) { c.id = id }
}

// WithPublisher emits observer events for the session.
func WithPublisher(p events.Publisher) SessionOption {
	return func(c *sessionConfig) { c.publisher = p }
}

// WithSessionMetrics records submission and chat outcomes.
func WithSessionMetrics(m *metrics.SessionMetrics) SessionOption {
	return func(c *sessionConfig) { c.metrics = m }
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(c *sessionConfig) { c.now = now }
}

// WithTimeFormat sets the layout of chat timestamps.
func WithTimeFormat(layout string) SessionOption {
	return func(c *sessionConfig) {
		if layout != "" {
			c.timeFormat = layout
		}
	}
}

func newSessionConfig(opts []SessionOption) sessionConfig {
	cfg := sessionConfig{
		now:        time.Now,
		timeFormat: defaultTimeFormat,
		tracer:     sessionTracer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	return cfg
}

func (c sessionConfig) publish(eventType string, data map[string]interface{}) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(c.id, eventType, data)
}

func kindLabel(err error) string {
	if kind, ok := KindOf(err); ok {
		return kind.String()
	}
	return "internal"
}
