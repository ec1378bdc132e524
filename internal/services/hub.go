package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"direct-chat-backend/internal/metrics"
	"direct-chat-backend/internal/models"
)

// Server-to-client event names on the realtime channel
const (
	EventNewMessage     = "newMessage"
	EventGetOnlineUsers = "getOnlineUsers"
)

// WSEvent is the envelope for every frame pushed over a websocket session
type WSEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the transport side of a live session. *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one live realtime connection bound to a user. A user may hold
// several sessions at once (multi-device).
type Session struct {
	UserID string

	mu   sync.Mutex // gorilla conns do not allow concurrent writes
	conn Conn
}

// Send marshals the event and writes it to the session's connection
func (s *Session) Send(event WSEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (s *Session) Close() error {
	return s.conn.Close()
}

// Hub is the in-memory presence registry and delivery router. It owns the
// userID -> session set mapping for the process lifetime; the websocket
// handler is the only mutator, delivery and presence broadcast only read.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Session]struct{})}
}

// Register binds a new connection to a user and returns its session. The
// user's entry is created on first registration.
func (h *Hub) Register(userID string, conn Conn) *Session {
	sess := &Session{UserID: userID, conn: conn}

	h.mu.Lock()
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		h.sessions[userID] = set
	}
	set[sess] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	log.Info().Str("user_id", userID).Int("sessions", count).Msg("Session registered")
	return sess
}

// Unregister removes a session; the user's entry is dropped once its last
// session is gone. Safe to call more than once for the same session.
func (h *Hub) Unregister(sess *Session) {
	h.mu.Lock()
	set, ok := h.sessions[sess.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, live := set[sess]; !live {
		h.mu.Unlock()
		return
	}
	delete(set, sess)
	if len(set) == 0 {
		delete(h.sessions, sess.UserID)
	}
	count := len(set)
	h.mu.Unlock()

	metrics.WSConnections.Dec()
	log.Info().Str("user_id", sess.UserID).Int("sessions", count).Msg("Session unregistered")
}

// SessionsFor returns a snapshot of the user's live sessions
func (h *Hub) SessionsFor(userID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.sessions[userID]
	if len(set) == 0 {
		return nil
	}
	sessions := make([]*Session, 0, len(set))
	for sess := range set {
		sessions = append(sessions, sess)
	}
	return sessions
}

// IsOnline reports whether the user has at least one live session
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// OnlineUserIDs returns a sorted snapshot of users with live sessions
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// DeliverMessage pushes a newMessage event to every live session of the
// receiver. Zero live sessions is not an error; the message is already
// persisted and will be picked up on the next historical fetch. A failed
// write drops that session only and is never surfaced to the sender.
func (h *Hub) DeliverMessage(msg *models.Message) {
	sessions := h.SessionsFor(msg.ReceiverID)
	if len(sessions) == 0 {
		return
	}

	event := WSEvent{Event: EventNewMessage, Data: msg}
	for _, sess := range sessions {
		if err := sess.Send(event); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", sess.UserID).
				Str("message_id", msg.ID).
				Msg("Failed to deliver message, dropping session")
			sess.Close()
			h.Unregister(sess)
			continue
		}
		metrics.MessagesDelivered.Inc()
	}
}

// BroadcastOnlineUsers pushes the current online user list to every live
// session. Called after every register and unregister.
func (h *Hub) BroadcastOnlineUsers() {
	event := WSEvent{Event: EventGetOnlineUsers, Data: h.OnlineUserIDs()}

	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, set := range h.sessions {
		for sess := range set {
			all = append(all, sess)
		}
	}
	h.mu.RUnlock()

	for _, sess := range all {
		if err := sess.Send(event); err != nil {
			log.Warn().Err(err).Str("user_id", sess.UserID).Msg("Failed to broadcast online users")
			sess.Close()
			h.Unregister(sess)
		}
	}
}
