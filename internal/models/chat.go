package models

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage is one entry of the chat transcript. Pending is set on a user
// message while its converse call is in flight.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	Time    string `json:"time"`
	Advice  string `json:"advice,omitempty"`
	Pending bool   `json:"pending,omitempty"`
}

// Fixed bot texts.
const (
	ChatGreeting        = "Hello! I'm MindEase AI. I'm here to listen and help you navigate your stress. How are you feeling right now?"
	ChatClearedGreeting = "Chat cleared. How can I support you now?"
	ChatConnectionError = "I'm having trouble connecting to the server. Please check if the backend is running."
)

// QuickSuggestions are the canned prompts offered under the chat input.
var QuickSuggestions = []string{
	"I'm feeling overwhelmed",
	"I can't sleep",
	"Help me with a panic attack",
	"I have too much homework",
}
