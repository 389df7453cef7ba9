package models

import (
	"time"
)

// SessionEvent is an observer notification emitted by a session controller.
type SessionEvent struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Event types
const (
	EventTypeAssessmentStateChanged   = "assessment.state_changed"
	EventTypeAssessmentScrollIntoView = "assessment.scroll_into_view"
	EventTypeChatMessageAppended      = "chat.message_appended"
	EventTypeChatCleared              = "chat.cleared"
)
