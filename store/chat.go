package store

import "time"

type ChatMessageRole string

const (
	ChatMessageRoleSystem    ChatMessageRole = "system"
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

// ChatMessage is a single transcript entry. Messages are immutable once
// created and a chat's message list is strictly append-only.
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      ChatMessageRole `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// Chat is a persisted conversation. Messages[0] is always the synthesized
// system persona message; LastActivity tracks the newest message timestamp.
type Chat struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActivity time.Time     `json:"lastActivity"`
	Messages     []ChatMessage `json:"messages"`
}

// MessageCount returns the number of visible messages, excluding the
// system persona message.
func (c *Chat) MessageCount() int {
	if len(c.Messages) == 0 {
		return 0
	}
	return len(c.Messages) - 1
}

// LastUserMessage returns the most recent user-role message, or nil.
func (c *Chat) LastUserMessage() *ChatMessage {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == ChatMessageRoleUser {
			return &c.Messages[i]
		}
	}
	return nil
}

// ChatSummary is the listing metadata for a chat, without its messages.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount int       `json:"messageCount"`
}
