package chat

import "time"

// Event topics published by the chat module.
const (
	TopicMessagePosted = "chat.message_posted"
)

// MessageEvent is the payload for chat.message_posted. MemberIDs carries
// the thread membership so the websocket hub can target delivery.
type MessageEvent struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	MemberIDs []string  `json:"member_ids"`
	PostedAt  time.Time `json:"posted_at"`
}
