package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Handler provides the WebSocket endpoint for real-time updates: chat
// messages, lesson changes, and published reports.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenService
	bus    module.EventBus
	logger *zap.Logger

	unsubs []func()
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to platform events.
func NewHandler(tokens *auth.TokenService, bus module.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/updates", h.handleUpdates)
}

// Hub exposes the connection hub, mainly for tests and health reporting.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// Close unsubscribes from the bus. Open connections drain on their own when
// the server shuts down.
func (h *Handler) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
}

// handleUpdates upgrades the connection to WebSocket and streams events the
// authenticated user is involved in.
func (h *Handler) handleUpdates(w http.ResponseWriter, r *http.Request) {
	// Validate JWT from query parameter (browser WS API doesn't support headers).
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token parameter", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Allow any origin since we validate via JWT token.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// chatPosted mirrors the chat module's event payload.
type chatPosted struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	MemberIDs []string  `json:"member_ids"`
	PostedAt  time.Time `json:"posted_at"`
}

// lessonChanged mirrors the schedule module's event payload.
type lessonChanged struct {
	LessonID  string    `json:"lesson_id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	StartsAt  time.Time `json:"starts_at"`
}

// reportPublished mirrors the reports module's event payload.
type reportPublished struct {
	ReportID  string `json:"report_id"`
	TutorID   string `json:"tutor_id"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
}

// subscribeToEvents forwards bus events to the people they concern. Chat
// messages go to the thread's members, lesson and report events to the
// tutor and student on the record.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.unsubs = append(h.unsubs, h.bus.Subscribe("chat.message_posted", func(_ context.Context, event module.Event) {
		var ev chatPosted
		if !decodePayload(event.Payload, &ev) {
			return
		}
		h.hub.SendToUsers(Message{
			Type:      MessageChatPosted,
			Timestamp: event.Timestamp,
			Data:      ev,
		}, ev.MemberIDs...)
	}))

	for topic, msgType := range map[string]MessageType{
		"schedule.lesson_created":   MessageLessonCreated,
		"schedule.lesson_updated":   MessageLessonUpdated,
		"schedule.lesson_cancelled": MessageLessonCancelled,
	} {
		msgType := msgType
		h.unsubs = append(h.unsubs, h.bus.Subscribe(topic, func(_ context.Context, event module.Event) {
			var ev lessonChanged
			if !decodePayload(event.Payload, &ev) {
				return
			}
			h.hub.SendToUsers(Message{
				Type:      msgType,
				Timestamp: event.Timestamp,
				Data:      ev,
			}, ev.TutorID, ev.StudentID)
		}))
	}

	h.unsubs = append(h.unsubs, h.bus.Subscribe("reports.report_published", func(_ context.Context, event module.Event) {
		var ev reportPublished
		if !decodePayload(event.Payload, &ev) {
			return
		}
		h.hub.SendToUsers(Message{
			Type:      MessageReportPublished,
			Timestamp: event.Timestamp,
			Data:      ev,
		}, ev.TutorID, ev.StudentID)
	}))

	h.logger.Info("subscribed to platform events for websocket delivery")
}

// decodePayload converts an event payload to the target struct through a
// JSON round trip, keeping this package decoupled from producer types.
func decodePayload(payload, target any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
