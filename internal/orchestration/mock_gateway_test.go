package orchestration

import (
	"context"
	"sync"

	"github.com/bizmatters/mindease/console/internal/models"
)

// MockGateway implements RequestGateway for session tests. When a gate
// channel is set the call blocks until a value is received on it.
type MockGateway struct {
	mu sync.Mutex

	scoreResponse    *ScoreResponse
	scoreError       error
	explainResponse  *ExplainResponse
	explainError     error
	converseResponse *ConverseResponse
	converseError    error
	records          []models.MonitoringRecord
	recordsError     error
	healthyResponse  bool

	scoreGate    chan struct{}
	converseGate chan struct{}
	entered      chan string

	scoreCalls    []models.AnswerSet
	explainCalls  []explainRequest
	converseCalls []converseRequest
}

func (m *MockGateway) Score(ctx context.Context, answers models.AnswerSet) (*ScoreResponse, error) {
	m.mu.Lock()
	m.scoreCalls = append(m.scoreCalls, answers.Clone())
	gate := m.scoreGate
	m.mu.Unlock()

	m.signal(opScore)
	if gate != nil {
		<-gate
	}
	return m.scoreResponse, m.scoreError
}

func (m *MockGateway) Explain(ctx context.Context, label models.StressLabel, factors []string) (*ExplainResponse, error) {
	m.mu.Lock()
	m.explainCalls = append(m.explainCalls, explainRequest{Label: label, Factors: factors})
	m.mu.Unlock()
	return m.explainResponse, m.explainError
}

func (m *MockGateway) Converse(ctx context.Context, message string, history []string) (*ConverseResponse, error) {
	m.mu.Lock()
	m.converseCalls = append(m.converseCalls, converseRequest{Message: message, History: history})
	gate := m.converseGate
	m.mu.Unlock()

	m.signal(opConverse)
	if gate != nil {
		<-gate
	}
	return m.converseResponse, m.converseError
}

func (m *MockGateway) MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error) {
	return m.records, m.recordsError
}

func (m *MockGateway) IsHealthy(ctx context.Context) bool {
	return m.healthyResponse
}

func (m *MockGateway) signal(op string) {
	if m.entered != nil {
		m.entered <- op
	}
}

func (m *MockGateway) explainCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.explainCalls)
}

var _ RequestGateway = (*MockGateway)(nil)
var _ RequestGateway = (*MindEaseClient)(nil)
