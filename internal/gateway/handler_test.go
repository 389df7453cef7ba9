package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bizmatters/mindease/console/internal/auth"
	"github.com/bizmatters/mindease/console/internal/events"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/internal/monitoring"
	"github.com/bizmatters/mindease/console/internal/orchestration"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGateway implements orchestration.RequestGateway for handler tests.
type MockGateway struct {
	scoreResponse    *orchestration.ScoreResponse
	scoreError       error
	explainResponse  *orchestration.ExplainResponse
	explainError     error
	converseResponse *orchestration.ConverseResponse
	converseError    error
	records          []models.MonitoringRecord
	recordsError     error
	healthyResponse  bool

	converseGate chan struct{}
	entered      chan struct{}
}

func (m *MockGateway) Score(ctx context.Context, answers models.AnswerSet) (*orchestration.ScoreResponse, error) {
	return m.scoreResponse, m.scoreError
}

func (m *MockGateway) Explain(ctx context.Context, label models.StressLabel, factors []string) (*orchestration.ExplainResponse, error) {
	return m.explainResponse, m.explainError
}

func (m *MockGateway) Converse(ctx context.Context, message string, history []string) (*orchestration.ConverseResponse, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.converseGate != nil {
		<-m.converseGate
	}
	return m.converseResponse, m.converseError
}

func (m *MockGateway) MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error) {
	return m.records, m.recordsError
}

func (m *MockGateway) IsHealthy(ctx context.Context) bool {
	return m.healthyResponse
}

var _ orchestration.RequestGateway = (*MockGateway)(nil)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, gw *MockGateway, opts RouterOptions) (*gin.Engine, *Handler) {
	t.Helper()
	aggregator := monitoring.NewAggregator(gw, "test", nil)
	h := NewHandler(gw, aggregator, events.NewBus(8), nil)
	return NewRouter(h, opts), h
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createSession(t *testing.T, router http.Handler, path string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := decode(t, w)["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		healthy        bool
		expectedStatus int
		expectedBody   string
	}{
		{name: "health", path: "/health", expectedStatus: http.StatusOK, expectedBody: "healthy"},
		{name: "ready", path: "/ready", healthy: true, expectedStatus: http.StatusOK, expectedBody: "ready"},
		{name: "not_ready", path: "/ready", healthy: false, expectedStatus: http.StatusServiceUnavailable, expectedBody: "scoring service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &MockGateway{healthyResponse: tt.healthy}, RouterOptions{})
			w := doJSON(t, router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandler_GetCatalog(t *testing.T) {
	router, _ := newTestRouter(t, &MockGateway{}, RouterOptions{})

	w := doJSON(t, router, http.MethodGet, "/api/assessment/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var catalog CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.NotEmpty(t, catalog.Groups)
	assert.NotEmpty(t, catalog.Reference)

	fields := 0
	for _, g := range catalog.Groups {
		fields += len(g.Fields)
	}
	assert.Equal(t, len(models.FieldNames()), fields)
}

func TestHandler_AssessmentFlow(t *testing.T) {
	gw := &MockGateway{
		scoreResponse:   &orchestration.ScoreResponse{Prediction: 2, Label: models.LabelHigh, Factors: []string{"High Anxiety"}},
		explainResponse: &orchestration.ExplainResponse{Explanation: "Your anxiety is elevated."},
	}
	router, _ := newTestRouter(t, gw, RouterOptions{})
	id := createSession(t, router, "/api/assessments")

	w := doJSON(t, router, http.MethodPut, "/api/assessments/"+id+"/fields/anxiety_level", map[string]int{"value": 99})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(21), body["value"], "value is clamped to the field maximum")

	w = doJSON(t, router, http.MethodPost, "/api/assessments/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "succeeded", body["phase"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, string(models.LabelHigh), result["label"])
	assert.Equal(t, "Your anxiety is elevated.", result["explanation"])

	w = doJSON(t, router, http.MethodPost, "/api/assessments/"+id+"/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode(t, w)["phase"])

	w = doJSON(t, router, http.MethodPost, "/api/assessments/"+id+"/dismiss", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrCodeNothingToDismiss, decode(t, w)["code"])

	w = doJSON(t, router, http.MethodDelete, "/api/assessments/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/assessments/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SubmitFailureIsReportedInView(t *testing.T) {
	gw := &MockGateway{scoreError: errors.New("connection refused")}
	router, _ := newTestRouter(t, gw, RouterOptions{})
	id := createSession(t, router, "/api/assessments")

	w := doJSON(t, router, http.MethodPost, "/api/assessments/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "failed", body["phase"])
	assert.Equal(t, orchestration.AssessmentFailureMessage, body["error"])
	assert.Nil(t, body["result"])
}

func TestHandler_UpdateAssessmentField_Errors(t *testing.T) {
	router, _ := newTestRouter(t, &MockGateway{}, RouterOptions{})
	id := createSession(t, router, "/api/assessments")

	tests := []struct {
		name           string
		path           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "unknown_field",
			path:           "/api/assessments/" + id + "/fields/shoe_size",
			body:           map[string]int{"value": 3},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.ErrCodeUnknownField,
		},
		{
			name:           "missing_value",
			path:           "/api/assessments/" + id + "/fields/anxiety_level",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   models.ErrCodeInvalidRequest,
		},
		{
			name:           "unknown_session",
			path:           "/api/assessments/nope/fields/anxiety_level",
			body:           map[string]int{"value": 3},
			expectedStatus: http.StatusNotFound,
			expectedCode:   models.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, decode(t, w)["code"])
		})
	}
}

func TestHandler_ChatFlow(t *testing.T) {
	gw := &MockGateway{converseResponse: &orchestration.ConverseResponse{Reply: "Try a short walk.", Advice: "Breathe"}}
	router, _ := newTestRouter(t, gw, RouterOptions{})
	id := createSession(t, router, "/api/chats")

	w := doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/messages", SendMessageRequest{Text: "I'm stressed"})
	require.Equal(t, http.StatusOK, w.Code)

	var view orchestration.ChatView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Messages, 3)
	assert.Equal(t, models.RoleUser, view.Messages[1].Role)
	assert.Equal(t, "Try a short walk.", view.Messages[2].Text)
	assert.Equal(t, "Breathe", view.Messages[2].Advice)

	w = doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/suggestions/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.QuickSuggestions[1], view.Messages[3].Text)

	w = doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/suggestions/99", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/clear", ClearChatRequest{Confirm: false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeConfirmRequired, decode(t, w)["code"])

	w = doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/clear", ClearChatRequest{Confirm: true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Messages, 1)
	assert.Equal(t, models.ChatClearedGreeting, view.Messages[0].Text)

	w = doJSON(t, router, http.MethodDelete, "/api/chats/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/chats/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SendChatMessage_WhilePending(t *testing.T) {
	gw := &MockGateway{
		converseResponse: &orchestration.ConverseResponse{Reply: "ok"},
		converseGate:     make(chan struct{}),
		entered:          make(chan struct{}, 1),
	}
	router, _ := newTestRouter(t, gw, RouterOptions{})
	id := createSession(t, router, "/api/chats")

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/messages", SendMessageRequest{Text: "one"})
	}()

	select {
	case <-gw.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first send never reached the gateway")
	}

	w := doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/messages", SendMessageRequest{Text: "two"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrCodeRequestPending, decode(t, w)["code"])

	w = doJSON(t, router, http.MethodPost, "/api/chats/"+id+"/clear", ClearChatRequest{Confirm: true})
	assert.Equal(t, http.StatusConflict, w.Code)

	close(gw.converseGate)
	assert.Equal(t, http.StatusOK, (<-first).Code)
}

func TestHandler_GetSuggestions(t *testing.T) {
	router, _ := newTestRouter(t, &MockGateway{}, RouterOptions{})

	w := doJSON(t, router, http.MethodGet, "/api/chat/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SuggestionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.QuickSuggestions, resp.Suggestions)
}

func TestHandler_GetMonitoring(t *testing.T) {
	tests := []struct {
		name           string
		gateway        *MockGateway
		expectedStatus int
		check          func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "success",
			gateway: &MockGateway{records: []models.MonitoringRecord{
				{ID: 1, PredictedLabel: models.LabelLow},
				{ID: 2, PredictedLabel: models.LabelHigh},
				{ID: 3, PredictedLabel: "Unknown"},
			}},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var dashboard monitoring.Dashboard
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
				assert.Equal(t, monitoring.LabelCounts{Low: 1, High: 1}, dashboard.Counts)
				assert.Equal(t, 3, dashboard.TotalCount)
				require.Len(t, dashboard.Rows, 3)
				assert.Equal(t, int64(3), dashboard.Rows[0].ID)
			},
		},
		{
			name:           "source_unavailable",
			gateway:        &MockGateway{recordsError: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, models.ErrCodeServiceUnavailable, decode(t, w)["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.gateway, RouterOptions{})
			w := doJSON(t, router, http.MethodGet, "/api/monitoring", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.check(t, w)
		})
	}
}

func TestRouter_ConsoleAuth(t *testing.T) {
	jm, err := auth.NewJWTManager("console-secret", "")
	require.NoError(t, err)
	router, _ := newTestRouter(t, &MockGateway{healthyResponse: true}, RouterOptions{ConsoleAuth: jm})

	w := doJSON(t, router, http.MethodGet, "/api/chat/suggestions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health stays public")

	token, err := jm.GenerateToken(context.Background(), "browser", auth.ScopeConsole, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/chat/suggestions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, &MockGateway{}, RouterOptions{})
	w := doJSON(t, router, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "panic"))
}

type recordStore struct {
	MockGateway
	pingErr error
}

func (s *recordStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func TestHandler_Ready_RecordStore(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   string
	}{
		{name: "store_up", expectedStatus: http.StatusOK, expectedBody: `"sessions"`},
		{name: "store_down", pingErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedBody: "record store unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &MockGateway{healthyResponse: true}
			aggregator := monitoring.NewAggregator(&recordStore{pingErr: tt.pingErr}, "postgres", nil)
			router := NewRouter(NewHandler(gw, aggregator, events.NewBus(8), nil), RouterOptions{})

			w := doJSON(t, router, http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestHandler_Ready_ReportsSessionCounts(t *testing.T) {
	router, _ := newTestRouter(t, &MockGateway{healthyResponse: true}, RouterOptions{})
	createSession(t, router, "/api/assessments")
	createSession(t, router, "/api/chats")
	createSession(t, router, "/api/chats")

	w := doJSON(t, router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessions, ok := decode(t, w)["sessions"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), sessions["assessments"])
	assert.Equal(t, float64(2), sessions["chats"])
}

func TestHandler_EvictIdle(t *testing.T) {
	router, h := newTestRouter(t, &MockGateway{}, RouterOptions{})
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	h.registry.now = clock.now

	idle := createSession(t, router, "/api/assessments")
	watched := createSession(t, router, "/api/chats")
	stream, cancel := h.bus.Subscribe(watched)
	defer cancel()

	clock.advance(time.Hour)
	assert.Equal(t, 1, h.EvictIdle(context.Background(), 30*time.Minute))

	w := doJSON(t, router, http.MethodGet, "/api/assessments/"+idle, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/chats/"+watched, nil)
	assert.Equal(t, http.StatusOK, w.Code, "sessions with an open stream are kept")

	// Once the stream goes away the session ages out like any other.
	cancel()
	_, open := <-stream
	assert.False(t, open)
	clock.advance(time.Hour)
	assert.Equal(t, 1, h.EvictIdle(context.Background(), 30*time.Minute))
	w = doJSON(t, router, http.MethodGet, "/api/chats/"+watched, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RunEvictionStopsWithContext(t *testing.T) {
	_, h := newTestRouter(t, &MockGateway{}, RouterOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.RunEviction(ctx, time.Minute, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("eviction loop did not stop")
	}
}

func TestRouter_IssueToken(t *testing.T) {
	jm, err := auth.NewJWTManager("console-secret", "")
	require.NoError(t, err)
	opts := RouterOptions{ConsoleAuth: jm, ConsoleAccessKey: "open-sesame", ConsoleTokenTTL: time.Hour}

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{name: "missing_key", body: map[string]string{}, expectedStatus: http.StatusBadRequest, expectedCode: models.ErrCodeInvalidRequest},
		{name: "wrong_key", body: TokenRequest{AccessKey: "guess"}, expectedStatus: http.StatusUnauthorized, expectedCode: models.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &MockGateway{}, opts)
			w := doJSON(t, router, http.MethodPost, "/api/auth/token", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, decode(t, w)["code"])
		})
	}

	t.Run("issued_token_opens_the_api", func(t *testing.T) {
		router, _ := newTestRouter(t, &MockGateway{}, opts)
		before := time.Now()

		w := doJSON(t, router, http.MethodPost, "/api/auth/token", TokenRequest{AccessKey: "open-sesame", Subject: "kiosk-1"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "kiosk-1", resp.Subject)
		assert.WithinDuration(t, before.Add(time.Hour), resp.ExpiresAt, 5*time.Second)

		claims, err := jm.ValidateToken(context.Background(), resp.Token, auth.ScopeConsole)
		require.NoError(t, err)
		assert.Equal(t, "kiosk-1", claims.Subject)

		req := httptest.NewRequest(http.MethodGet, "/api/chat/suggestions", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("subject_assigned_when_empty", func(t *testing.T) {
		router, _ := newTestRouter(t, &MockGateway{}, opts)
		w := doJSON(t, router, http.MethodPost, "/api/auth/token", TokenRequest{AccessKey: "open-sesame"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decode(t, w)["subject"])
	})
}
