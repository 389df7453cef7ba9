package orchestration

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bizmatters/mindease/console/internal/lifecycle"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

// ChatView is a snapshot of a chat session for rendering.
type ChatView struct {
	SessionID   string               `json:"session_id"`
	Messages    []models.ChatMessage `json:"messages"`
	Pending     bool                 `json:"pending"`
	Suggestions []string             `json:"suggestions"`
}

// ChatSession owns one chat transcript. Only one send may be in flight at a
// time so replies are appended in the order messages were sent.
type ChatSession struct {
	cfg     sessionConfig
	gateway ConversationGateway

	mu      sync.Mutex
	history []models.ChatMessage
	send    lifecycle.Lifecycle[models.ChatMessage]
}

// NewChatSession creates a transcript seeded with the greeting.
func NewChatSession(gateway ConversationGateway, opts ...SessionOption) *ChatSession {
	s := &ChatSession{
		cfg:     newSessionConfig(opts),
		gateway: gateway,
	}
	s.history = []models.ChatMessage{s.botMessage(models.ChatGreeting, s.cfg.now())}
	return s
}

func (s *ChatSession) ID() string { return s.cfg.id }

// History returns a copy of the transcript.
func (s *ChatSession) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

// View returns the current snapshot.
func (s *ChatSession) View() ChatView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *ChatSession) historyLocked() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *ChatSession) viewLocked() ChatView {
	suggestions := make([]string, len(models.QuickSuggestions))
	copy(suggestions, models.QuickSuggestions)
	return ChatView{
		SessionID:   s.cfg.id,
		Messages:    s.historyLocked(),
		Pending:     s.send.Phase() == lifecycle.Pending,
		Suggestions: suggestions,
	}
}

// Send appends text as a user message, then exactly one bot message: the
// reply on success or the connection error text on failure. Whitespace-only
// text is ignored. The only error returned is ErrSendPending.
//
// The context sent along is the text of every message in the transcript,
// including the one just appended.
func (s *ChatSession) Send(ctx context.Context, text string) (ChatView, error) {
	if strings.TrimSpace(text) == "" {
		return s.View(), nil
	}

	ctx, span := s.cfg.tracer.Start(ctx, "chat.send")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.cfg.id))

	s.mu.Lock()
	next, err := s.send.Apply(lifecycle.Begin[models.ChatMessage]())
	if err != nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, ErrSendPending
	}
	s.send = next

	sentAt := s.cfg.now()
	s.history = append(s.history, models.ChatMessage{
		Role:    models.RoleUser,
		Text:    text,
		Time:    sentAt.Format(s.cfg.timeFormat),
		Pending: true,
	})
	userIndex := len(s.history) - 1
	history := make([]string, len(s.history))
	for i, m := range s.history {
		history[i] = m.Text
	}
	s.publishAppendedLocked(userIndex)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("chat.history_length", len(history)))
	start := time.Now()
	resp, err := s.gateway.Converse(ctx, text, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[userIndex].Pending = false

	var reply models.ChatMessage
	if err != nil || resp == nil {
		if err != nil {
			span.RecordError(err)
		}
		logger.WithFields(logger.Fields{
			"session_id": s.cfg.id,
			"error_kind": kindLabel(err),
		}).Warn("chat send failed")
		s.cfg.metrics.RecordChatSend(ctx, kindLabel(err), time.Since(start))

		reply = s.botMessage(models.ChatConnectionError, sentAt)
		s.send, _ = s.send.Apply(lifecycle.Reject[models.ChatMessage](kindLabel(err)))
	} else {
		s.cfg.metrics.RecordChatSend(ctx, "", time.Since(start))

		reply = s.botMessage(resp.Reply, s.cfg.now())
		reply.Advice = resp.Advice
		s.send, _ = s.send.Apply(lifecycle.Resolve(reply))
	}

	s.history = append(s.history, reply)
	s.publishAppendedLocked(len(s.history) - 1)
	return s.viewLocked(), nil
}

// SendSuggestion sends the quick suggestion at index.
func (s *ChatSession) SendSuggestion(ctx context.Context, index int) (ChatView, error) {
	if index < 0 || index >= len(models.QuickSuggestions) {
		return s.View(), ErrUnknownSuggestion
	}
	return s.Send(ctx, models.QuickSuggestions[index])
}

// Clear resets the transcript to a single fresh bot message. Callers are
// expected to have confirmed with the user.
func (s *ChatSession) Clear() (ChatView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.send.Phase() == lifecycle.Pending {
		return s.viewLocked(), ErrSendPending
	}

	s.history = []models.ChatMessage{s.botMessage(models.ChatClearedGreeting, s.cfg.now())}
	s.send = lifecycle.Lifecycle[models.ChatMessage]{}
	s.cfg.publish(models.EventTypeChatCleared, map[string]interface{}{"messages": len(s.history)})
	return s.viewLocked(), nil
}

func (s *ChatSession) botMessage(text string, at time.Time) models.ChatMessage {
	return models.ChatMessage{
		Role: models.RoleBot,
		Text: text,
		Time: at.Format(s.cfg.timeFormat),
	}
}

func (s *ChatSession) publishAppendedLocked(index int) {
	m := s.history[index]
	s.cfg.publish(models.EventTypeChatMessageAppended, map[string]interface{}{
		"index":   index,
		"role":    string(m.Role),
		"text":    m.Text,
		"time":    m.Time,
		"advice":  m.Advice,
		"pending": m.Pending,
	})
}
