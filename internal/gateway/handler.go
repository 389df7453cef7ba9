package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bizmatters/mindease/console/internal/events"
	"github.com/bizmatters/mindease/console/internal/metrics"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/internal/monitoring"
	"github.com/bizmatters/mindease/console/internal/orchestration"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	sessionKindAssessment = "assessment"
	sessionKindChat       = "chat"
)

// Handler serves the console API on top of the session controllers.
type Handler struct {
	registry    *Registry
	gateway     orchestration.RequestGateway
	aggregator  *monitoring.Aggregator
	bus         *events.Bus
	metrics     *metrics.SessionMetrics
	sessionOpts []orchestration.SessionOption
}

// NewHandler creates a console handler. sessionOpts are applied to every
// session it creates, after the publisher and metrics options.
func NewHandler(gateway orchestration.RequestGateway, aggregator *monitoring.Aggregator, bus *events.Bus, m *metrics.SessionMetrics, sessionOpts ...orchestration.SessionOption) *Handler {
	return &Handler{
		registry:    NewRegistry(),
		gateway:     gateway,
		aggregator:  aggregator,
		bus:         bus,
		metrics:     m,
		sessionOpts: sessionOpts,
	}
}

func (h *Handler) newSessionOptions() []orchestration.SessionOption {
	opts := []orchestration.SessionOption{
		orchestration.WithPublisher(h.bus),
		orchestration.WithSessionMetrics(h.metrics),
	}
	return append(opts, h.sessionOpts...)
}

// CatalogResponse is the questionnaire definition.
type CatalogResponse struct {
	Groups    []models.FieldGroup    `json:"groups"`
	Reference []models.ReferenceBand `json:"reference"`
}

// UpdateFieldRequest sets one answer.
type UpdateFieldRequest struct {
	Value *int `json:"value" binding:"required"`
}

// UpdateFieldResponse echoes the stored (clamped) value.
type UpdateFieldResponse struct {
	Name  string                       `json:"name"`
	Value int                          `json:"value"`
	View  orchestration.AssessmentView `json:"view"`
}

// SendMessageRequest is a chat message from the user.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ClearChatRequest must carry the user's confirmation.
type ClearChatRequest struct {
	Confirm bool `json:"confirm"`
}

// SuggestionsResponse lists the quick suggestions.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// GetCatalog godoc
// @Summary Questionnaire catalog
// @Description Field groups with ranges plus the clinical reference bands
// @Tags assessments
// @Produce json
// @Success 200 {object} CatalogResponse
// @Security BearerAuth
// @Router /assessment/catalog [get]
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, CatalogResponse{
		Groups:    models.FieldGroups(),
		Reference: models.ReferenceBands(),
	})
}

// CreateAssessment godoc
// @Summary Start an assessment session
// @Tags assessments
// @Produce json
// @Success 201 {object} orchestration.AssessmentView
// @Security BearerAuth
// @Router /assessments [post]
func (h *Handler) CreateAssessment(c *gin.Context) {
	session := orchestration.NewAssessmentSession(h.gateway, h.newSessionOptions()...)
	h.registry.AddAssessment(session)
	h.metrics.RecordSessionOpened(c.Request.Context(), sessionKindAssessment)

	logger.WithFields(logger.Fields{"session_id": session.ID()}).Debug("assessment session created")
	c.JSON(http.StatusCreated, session.View())
}

// GetAssessment godoc
// @Summary Get an assessment session
// @Tags assessments
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} orchestration.AssessmentView
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assessments/{id} [get]
func (h *Handler) GetAssessment(c *gin.Context) {
	session, ok := h.assessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// UpdateAssessmentField godoc
// @Summary Set one answer
// @Description The value is clamped into the field's range
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param name path string true "Field name"
// @Param request body UpdateFieldRequest true "New value"
// @Success 200 {object} UpdateFieldResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assessments/{id}/fields/{name} [put]
func (h *Handler) UpdateAssessmentField(c *gin.Context) {
	session, ok := h.assessment(c)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	name := c.Param("name")
	stored, err := session.UpdateField(name, *req.Value)
	if err != nil {
		if errors.Is(err, orchestration.ErrUnknownField) {
			respondError(c, http.StatusBadRequest, models.ErrCodeUnknownField, "Unknown field: "+name)
			return
		}
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Failed to update field")
		return
	}

	c.JSON(http.StatusOK, UpdateFieldResponse{Name: name, Value: stored, View: session.View()})
}

// SubmitAssessment godoc
// @Summary Submit the questionnaire
// @Description Scores the answers and fetches an explanation. Scoring failures are reported in the returned view, not as an HTTP error.
// @Tags assessments
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} orchestration.AssessmentView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assessments/{id}/submit [post]
func (h *Handler) SubmitAssessment(c *gin.Context) {
	session, ok := h.assessment(c)
	if !ok {
		return
	}

	view, err := session.Submit(c.Request.Context())
	if errors.Is(err, orchestration.ErrSubmissionPending) {
		respondError(c, http.StatusConflict, models.ErrCodeRequestPending, "A submission is already in progress")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DismissAssessment godoc
// @Summary Dismiss the shown result or error
// @Tags assessments
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} orchestration.AssessmentView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assessments/{id}/dismiss [post]
func (h *Handler) DismissAssessment(c *gin.Context) {
	session, ok := h.assessment(c)
	if !ok {
		return
	}

	view, err := session.Dismiss()
	if errors.Is(err, orchestration.ErrNothingToDismiss) {
		respondError(c, http.StatusConflict, models.ErrCodeNothingToDismiss, "Nothing to dismiss")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteAssessment godoc
// @Summary End an assessment session
// @Tags assessments
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assessments/{id} [delete]
func (h *Handler) DeleteAssessment(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.RemoveAssessment(id) {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Session not found")
		return
	}
	h.bus.CloseSession(id)
	h.metrics.RecordSessionClosed(c.Request.Context(), sessionKindAssessment)
	c.Status(http.StatusNoContent)
}

// CreateChat godoc
// @Summary Start a chat session
// @Tags chat
// @Produce json
// @Success 201 {object} orchestration.ChatView
// @Security BearerAuth
// @Router /chats [post]
func (h *Handler) CreateChat(c *gin.Context) {
	session := orchestration.NewChatSession(h.gateway, h.newSessionOptions()...)
	h.registry.AddChat(session)
	h.metrics.RecordSessionOpened(c.Request.Context(), sessionKindChat)

	logger.WithFields(logger.Fields{"session_id": session.ID()}).Debug("chat session created")
	c.JSON(http.StatusCreated, session.View())
}

// GetChat godoc
// @Summary Get a chat session
// @Tags chat
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} orchestration.ChatView
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id} [get]
func (h *Handler) GetChat(c *gin.Context) {
	session, ok := h.chat(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// SendChatMessage godoc
// @Summary Send a chat message
// @Description Blank text is ignored. Connection failures are reported as a bot message.
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SendMessageRequest true "Message"
// @Success 200 {object} orchestration.ChatView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id}/messages [post]
func (h *Handler) SendChatMessage(c *gin.Context) {
	session, ok := h.chat(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	view, err := session.Send(c.Request.Context(), req.Text)
	h.respondChat(c, view, err)
}

// SendChatSuggestion godoc
// @Summary Send a quick suggestion
// @Tags chat
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Suggestion index"
// @Success 200 {object} orchestration.ChatView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id}/suggestions/{index} [post]
func (h *Handler) SendChatSuggestion(c *gin.Context) {
	session, ok := h.chat(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid suggestion index")
		return
	}

	view, err := session.SendSuggestion(c.Request.Context(), index)
	h.respondChat(c, view, err)
}

// ClearChat godoc
// @Summary Clear the conversation
// @Description Requires {"confirm": true}
// @Tags chat
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ClearChatRequest true "Confirmation"
// @Success 200 {object} orchestration.ChatView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id}/clear [post]
func (h *Handler) ClearChat(c *gin.Context) {
	session, ok := h.chat(c)
	if !ok {
		return
	}

	var req ClearChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
		respondError(c, http.StatusBadRequest, models.ErrCodeConfirmRequired, "Clearing the conversation must be confirmed")
		return
	}

	view, err := session.Clear()
	h.respondChat(c, view, err)
}

// DeleteChat godoc
// @Summary End a chat session
// @Tags chat
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id} [delete]
func (h *Handler) DeleteChat(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.RemoveChat(id) {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Session not found")
		return
	}
	h.bus.CloseSession(id)
	h.metrics.RecordSessionClosed(c.Request.Context(), sessionKindChat)
	c.Status(http.StatusNoContent)
}

// GetSuggestions godoc
// @Summary Quick chat suggestions
// @Tags chat
// @Produce json
// @Success 200 {object} SuggestionsResponse
// @Security BearerAuth
// @Router /chat/suggestions [get]
func (h *Handler) GetSuggestions(c *gin.Context) {
	suggestions := make([]string, len(models.QuickSuggestions))
	copy(suggestions, models.QuickSuggestions)
	c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

// GetMonitoring godoc
// @Summary Monitoring dashboard
// @Description Label distribution and records, most recent first
// @Tags monitoring
// @Produce json
// @Success 200 {object} monitoring.Dashboard
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /monitoring [get]
func (h *Handler) GetMonitoring(c *gin.Context) {
	dashboard, err := h.aggregator.Load(c.Request.Context())
	if err != nil {
		logger.WithFields(logger.Fields{"error": err.Error()}).Error("failed to load monitoring dashboard")
		respondError(c, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable, "Monitoring data is unavailable")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready reports whether the scoring service answers and, when records are
// read from Postgres, whether the record store does.
func (h *Handler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.gateway.IsHealthy(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "scoring service unavailable",
		})
		return
	}
	if err := h.aggregator.Ping(ctx); err != nil {
		logger.WithFields(logger.Fields{"error": err.Error()}).Warn("readiness check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "record store unavailable",
		})
		return
	}

	assessments, chats := h.registry.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"sessions": gin.H{"assessments": assessments, "chats": chats},
	})
}

// EvictIdle drops sessions untouched for ttl. Sessions with an open event
// stream are kept.
func (h *Handler) EvictIdle(ctx context.Context, ttl time.Duration) int {
	assessments, chats := h.registry.EvictIdle(ttl, func(id string) bool {
		return h.bus.SubscriberCount(id) > 0
	})
	for _, id := range assessments {
		h.bus.CloseSession(id)
		h.metrics.RecordSessionClosed(ctx, sessionKindAssessment)
	}
	for _, id := range chats {
		h.bus.CloseSession(id)
		h.metrics.RecordSessionClosed(ctx, sessionKindChat)
	}

	evicted := len(assessments) + len(chats)
	if evicted > 0 {
		liveAssessments, liveChats := h.registry.Counts()
		logger.WithFields(logger.Fields{
			"evicted":     evicted,
			"assessments": liveAssessments,
			"chats":       liveChats,
		}).Info("evicted idle sessions")
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (h *Handler) RunEviction(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.EvictIdle(ctx, ttl)
		}
	}
}

func (h *Handler) assessment(c *gin.Context) (*orchestration.AssessmentSession, bool) {
	session, ok := h.registry.Assessment(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Session not found")
	}
	return session, ok
}

func (h *Handler) chat(c *gin.Context) (*orchestration.ChatSession, bool) {
	session, ok := h.registry.Chat(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Session not found")
	}
	return session, ok
}

func (h *Handler) respondChat(c *gin.Context, view orchestration.ChatView, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, view)
	case errors.Is(err, orchestration.ErrSendPending):
		respondError(c, http.StatusConflict, models.ErrCodeRequestPending, "A message is already being sent")
	case errors.Is(err, orchestration.ErrUnknownSuggestion):
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Unknown suggestion")
	default:
		respondError(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Chat request failed")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Error: message, Code: code})
}
