package ws

import (
	"time"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageChatPosted      MessageType = "chat.message_posted"
	MessageLessonCreated   MessageType = "schedule.lesson_created"
	MessageLessonUpdated   MessageType = "schedule.lesson_updated"
	MessageLessonCancelled MessageType = "schedule.lesson_cancelled"
	MessageReportPublished MessageType = "reports.report_published"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
