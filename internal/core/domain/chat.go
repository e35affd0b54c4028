package domain

import "time"

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn in a conversation about an analysis
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// Conversation is the chat transcript one user holds about one analysis
type Conversation struct {
	ID         string        `json:"id"`
	AnalysisID string        `json:"analysisId"`
	UserID     string        `json:"userId"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// ChatRequest is a user question about an analysis
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatDelta is one streamed fragment of an assistant reply
type ChatDelta struct {
	Content string `json:"content"`
}

// ChatStreamDone terminates an SSE chat stream
const ChatStreamDone = "[DONE]"
