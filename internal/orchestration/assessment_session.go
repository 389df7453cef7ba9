package orchestration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bizmatters/mindease/console/internal/lifecycle"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

// AssessmentView is a snapshot of an assessment session for rendering.
type AssessmentView struct {
	SessionID string                   `json:"session_id"`
	Phase     lifecycle.Phase          `json:"phase"`
	Answers   models.AnswerSet         `json:"answers"`
	Result    *models.AssessmentResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// AssessmentSession owns one questionnaire: the answers being edited and
// the lifecycle of the score then explain chain.
type AssessmentSession struct {
	cfg     sessionConfig
	gateway ScoringGateway

	mu      sync.Mutex
	answers models.AnswerSet
	state   lifecycle.Lifecycle[models.AssessmentResult]
}

// NewAssessmentSession creates a session with every answer at 0.
func NewAssessmentSession(gateway ScoringGateway, opts ...SessionOption) *AssessmentSession {
	return &AssessmentSession{
		cfg:     newSessionConfig(opts),
		gateway: gateway,
		answers: models.NewAnswerSet(),
	}
}

func (s *AssessmentSession) ID() string { return s.cfg.id }

// UpdateField sets one answer, clamped into the field's range.
func (s *AssessmentSession) UpdateField(name string, value int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.answers.Set(name, value)
	if err != nil {
		return 0, err
	}
	return stored, nil
}

// Answers returns a copy of the current answers.
func (s *AssessmentSession) Answers() models.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// View returns the current snapshot.
func (s *AssessmentSession) View() AssessmentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *AssessmentSession) viewLocked() AssessmentView {
	view := AssessmentView{
		SessionID: s.cfg.id,
		Phase:     s.state.Phase(),
		Answers:   s.answers.Clone(),
	}
	if result, ok := s.state.Payload(); ok {
		view.Result = &result
	}
	if s.state.Phase() == lifecycle.Failed {
		view.Error = AssessmentFailureMessage
	}
	return view
}

// Submit scores a snapshot of the answers and, on success, asks for an
// explanation of exactly that score. Any stage failure fails the whole
// submission. The only error returned is ErrSubmissionPending.
func (s *AssessmentSession) Submit(ctx context.Context) (AssessmentView, error) {
	ctx, span := s.cfg.tracer.Start(ctx, "assessment.submit")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.cfg.id))

	s.mu.Lock()
	next, err := s.state.Apply(lifecycle.Begin[models.AssessmentResult]())
	if err != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, ErrSubmissionPending
	}
	s.state = next
	snapshot := s.answers.Clone()
	s.publishStateLocked()
	s.mu.Unlock()

	start := time.Now()
	s.cfg.metrics.RecordSubmissionStarted(ctx)

	result, stage, err := s.scoreAndExplain(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("submission.failed_stage", stage))
		logger.WithFields(logger.Fields{
			"session_id": s.cfg.id,
			"stage":      stage,
			"error_kind": kindLabel(err),
			"error":      err.Error(),
		}).Warn("assessment submission failed")
		s.cfg.metrics.RecordSubmissionFailed(ctx, stage, kindLabel(err), time.Since(start))

		s.state, _ = s.state.Apply(lifecycle.Reject[models.AssessmentResult](kindLabel(err)))
		s.publishStateLocked()
		return s.viewLocked(), nil
	}

	s.cfg.metrics.RecordSubmissionSucceeded(ctx, string(result.Label), time.Since(start))
	span.SetAttributes(attribute.String("stress.label", string(result.Label)))

	s.state, _ = s.state.Apply(lifecycle.Resolve(result))
	s.publishStateLocked()
	s.cfg.publish(models.EventTypeAssessmentScrollIntoView, map[string]interface{}{"anchor": "result"})
	return s.viewLocked(), nil
}

func (s *AssessmentSession) scoreAndExplain(ctx context.Context, answers models.AnswerSet) (models.AssessmentResult, string, error) {
	score, err := s.gateway.Score(ctx, answers)
	if err != nil {
		return models.AssessmentResult{}, opScore, err
	}
	if score == nil {
		return models.AssessmentResult{}, opScore, errors.New("score returned no result")
	}

	explanation, err := s.gateway.Explain(ctx, score.Label, score.Factors)
	if err != nil {
		return models.AssessmentResult{}, opExplain, err
	}
	if explanation == nil {
		return models.AssessmentResult{}, opExplain, errors.New("explain returned no result")
	}

	factors := make([]string, len(score.Factors))
	copy(factors, score.Factors)

	return models.AssessmentResult{
		Label:       score.Label,
		Level:       score.Label.Level(),
		Prediction:  score.Prediction,
		Factors:     factors,
		Explanation: explanation.Explanation,
	}, "", nil
}

// Dismiss clears a shown result or failure and returns to Idle.
func (s *AssessmentSession) Dismiss() (AssessmentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.Apply(lifecycle.Dismiss[models.AssessmentResult]())
	if err != nil {
		return s.viewLocked(), ErrNothingToDismiss
	}
	s.state = next
	s.publishStateLocked()
	return s.viewLocked(), nil
}

func (s *AssessmentSession) publishStateLocked() {
	data := map[string]interface{}{"phase": s.state.Phase().String()}
	if result, ok := s.state.Payload(); ok {
		data["label"] = string(result.Label)
	}
	s.cfg.publish(models.EventTypeAssessmentStateChanged, data)
}
