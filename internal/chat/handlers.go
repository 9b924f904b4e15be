package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/threads", Handler: m.handleListThreads},
		{Method: "POST", Path: "/threads", Handler: m.handleCreateThread},
		{Method: "GET", Path: "/threads/{id}", Handler: m.handleGetThread},
		{Method: "POST", Path: "/threads/{id}/join", Handler: m.handleJoinThread},
		{Method: "POST", Path: "/threads/{id}/members", Handler: m.handleAddMember},
		{Method: "GET", Path: "/threads/{id}/messages", Handler: m.handleListMessages},
		{Method: "POST", Path: "/threads/{id}/messages", Handler: m.handlePostMessage},
	}
}

// CreateThreadRequest is the payload for opening a thread.
type CreateThreadRequest struct {
	Kind      string   `json:"kind"`
	Title     string   `json:"title"`
	LessonID  string   `json:"lesson_id"`
	MemberIDs []string `json:"member_ids"`
}

// PostMessageRequest is the payload for posting a message.
type PostMessageRequest struct {
	Body string `json:"body"`
}

// AddMemberRequest is the payload for adding a thread member.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// handleListThreads returns the caller's threads, or all forum topics with
// ?kind=forum.
func (m *Module) handleListThreads(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var threads []Thread
	var err error
	if r.URL.Query().Get("kind") == KindForum {
		threads, err = m.store.ListForums(r.Context())
	} else {
		threads, err = m.store.ThreadsForUser(r.Context(), claims.UserID)
	}
	if err != nil {
		m.logger.Warn("failed to list threads", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}
	if threads == nil {
		threads = []Thread{}
	}
	chatWriteJSON(w, http.StatusOK, threads)
}

// handleCreateThread opens a new thread. Direct threads take exactly one
// peer, lesson threads reference a lesson, and forum topics are opened by
// staff with a title.
func (m *Module) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		chatWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	members := append([]string{claims.UserID}, req.MemberIDs...)
	switch req.Kind {
	case KindDirect:
		if len(req.MemberIDs) != 1 || req.MemberIDs[0] == claims.UserID {
			chatWriteError(w, http.StatusBadRequest, "direct threads take exactly one other member")
			return
		}
	case KindLesson:
		if req.LessonID == "" {
			chatWriteError(w, http.StatusBadRequest, "lesson threads require lesson_id")
			return
		}
	case KindForum:
		if !auth.StaffRoles[auth.Role(claims.Role)] {
			chatWriteError(w, http.StatusForbidden, "only staff can open forum topics")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			chatWriteError(w, http.StatusBadRequest, "forum topics require a title")
			return
		}
	default:
		chatWriteError(w, http.StatusBadRequest, "kind must be direct, lesson, or forum")
		return
	}

	thread := &Thread{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Title:     strings.TrimSpace(req.Title),
		LessonID:  req.LessonID,
		CreatedBy: claims.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.InsertThread(r.Context(), thread, members); err != nil {
		m.logger.Warn("failed to insert thread", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to create thread")
		return
	}
	chatWriteJSON(w, http.StatusCreated, thread)
}

// handleGetThread returns one thread if the caller may see it.
func (m *Module) handleGetThread(w http.ResponseWriter, r *http.Request) {
	thread, _, ok := m.accessibleThread(w, r)
	if !ok {
		return
	}
	chatWriteJSON(w, http.StatusOK, thread)
}

// handleJoinThread adds the caller to a forum topic.
func (m *Module) handleJoinThread(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	thread, err := m.store.GetThread(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get thread", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to join thread")
		return
	}
	if thread == nil {
		chatWriteError(w, http.StatusNotFound, "thread not found")
		return
	}
	if thread.Kind != KindForum {
		chatWriteError(w, http.StatusForbidden, "only forum topics are open to join")
		return
	}
	if err := m.store.AddMember(r.Context(), thread.ID, claims.UserID); err != nil {
		m.logger.Warn("failed to add member", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to join thread")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddMember adds a user to a thread. Thread creator or admin.
func (m *Module) handleAddMember(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	thread, err := m.store.GetThread(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get thread", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if thread == nil {
		chatWriteError(w, http.StatusNotFound, "thread not found")
		return
	}
	if thread.CreatedBy != claims.UserID && auth.Role(claims.Role) != auth.RoleAdmin {
		chatWriteError(w, http.StatusForbidden, "only the thread creator can add members")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		chatWriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := m.store.AddMember(r.Context(), thread.ID, req.UserID); err != nil {
		m.logger.Warn("failed to add member", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMessages pages through a thread's history, newest first.
//
//	@Summary		Thread history
//	@Tags			chat
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path string true "Thread ID"
//	@Param			before query string false "Page cursor (RFC 3339)"
//	@Param			limit query int false "Page size"
//	@Success		200 {array} Message
//	@Router			/chat/threads/{id}/messages [get]
func (m *Module) handleListMessages(w http.ResponseWriter, r *http.Request) {
	thread, _, ok := m.accessibleThread(w, r)
	if !ok {
		return
	}

	var before time.Time
	if s := r.URL.Query().Get("before"); s != "" {
		var err error
		if before, err = time.Parse(time.RFC3339, s); err != nil {
			chatWriteError(w, http.StatusBadRequest, "invalid before cursor")
			return
		}
	}
	limit := m.cfg.HistoryPageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	messages, err := m.store.ListMessages(r.Context(), thread.ID, before, limit)
	if err != nil {
		m.logger.Warn("failed to list messages", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []Message{}
	}
	for i := range messages {
		messages[i].HTML = renderMarkdown(messages[i].Body)
	}
	chatWriteJSON(w, http.StatusOK, messages)
}

// handlePostMessage appends a message to a thread the caller belongs to.
func (m *Module) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	thread, claims, ok := m.accessibleThread(w, r)
	if !ok {
		return
	}
	// Reading a forum is open; posting requires membership.
	isMember, err := m.store.IsMember(r.Context(), thread.ID, claims.UserID)
	if err != nil {
		m.logger.Warn("failed to check membership", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to post message")
		return
	}
	if !isMember {
		chatWriteError(w, http.StatusForbidden, "join the thread before posting")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		chatWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		chatWriteError(w, http.StatusBadRequest, "message body is required")
		return
	}
	if m.cfg.MaxMessageLength > 0 && len(body) > m.cfg.MaxMessageLength {
		chatWriteError(w, http.StatusBadRequest, "message exceeds the maximum length")
		return
	}

	msg := &Message{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		AuthorID:  claims.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.InsertMessage(r.Context(), msg); err != nil {
		m.logger.Warn("failed to insert message", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to post message")
		return
	}

	memberIDs, err := m.store.MemberIDs(r.Context(), thread.ID)
	if err != nil {
		m.logger.Warn("failed to list members for event", zap.Error(err))
		memberIDs = nil
	}
	m.publishEvent(r.Context(), TopicMessagePosted, MessageEvent{
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		MemberIDs: memberIDs,
		PostedAt:  msg.CreatedAt,
	})

	msg.HTML = renderMarkdown(msg.Body)
	chatWriteJSON(w, http.StatusCreated, msg)
}

// accessibleThread loads the thread in the path and enforces read access:
// members always, anyone for forum topics. On failure it writes the error
// response and returns ok=false.
func (m *Module) accessibleThread(w http.ResponseWriter, r *http.Request) (*Thread, *auth.Claims, bool) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		chatWriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, nil, false
	}
	thread, err := m.store.GetThread(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get thread", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to get thread")
		return nil, nil, false
	}
	if thread == nil {
		chatWriteError(w, http.StatusNotFound, "thread not found")
		return nil, nil, false
	}
	if thread.Kind == KindForum || auth.Role(claims.Role) == auth.RoleAdmin {
		return thread, claims, true
	}
	isMember, err := m.store.IsMember(r.Context(), thread.ID, claims.UserID)
	if err != nil {
		m.logger.Warn("failed to check membership", zap.Error(err))
		chatWriteError(w, http.StatusInternalServerError, "failed to get thread")
		return nil, nil, false
	}
	if !isMember {
		chatWriteError(w, http.StatusForbidden, "not a member of this thread")
		return nil, nil, false
	}
	return thread, claims, true
}

func chatWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func chatWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/chat-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
