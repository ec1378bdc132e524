// Package chatclient is a Go client for the chat backend: it wraps the REST
// surface, subscribes to the realtime channel and reconciles both into one
// consistent local view of conversations, unread counts and presence.
package chatclient

import (
	"sort"
	"sync"

	"direct-chat-backend/internal/models"
)

// Store is the client-side cache. Historical fetches and live pushes both
// land in a single buffer ordered by (created_at, id) and deduplicated by
// message id, so the view converges regardless of arrival order. The server
// remains authoritative; this cache never writes back.
type Store struct {
	mu           sync.Mutex
	viewerID     string
	selectedPeer string

	messages []*models.Message
	seen     map[string]struct{}

	summaries map[string]*models.UserSummary
	order     []string

	online map[string]struct{}
}

// NewStore creates an empty store for the given viewer
func NewStore(viewerID string) *Store {
	return &Store{
		viewerID:  viewerID,
		seen:      make(map[string]struct{}),
		summaries: make(map[string]*models.UserSummary),
		online:    make(map[string]struct{}),
	}
}

// SetUsers replaces the sidebar with a fresh server fetch, keeping server order
func (s *Store) SetUsers(summaries []*models.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = make(map[string]*models.UserSummary, len(summaries))
	s.order = s.order[:0]
	for _, summary := range summaries {
		cp := *summary
		s.summaries[cp.ID] = &cp
		s.order = append(s.order, cp.ID)
	}
}

// Users returns the sidebar entries in server order
func (s *Store) Users() []*models.UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.UserSummary, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.summaries[id]
		out = append(out, &cp)
	}
	return out
}

// SelectPeer opens a conversation: the message buffer resets and the peer's
// unread count drops to zero
func (s *Store) SelectPeer(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedPeer = peerID
	s.messages = s.messages[:0]
	s.seen = make(map[string]struct{})
	if summary, ok := s.summaries[peerID]; ok {
		summary.UnreadCount = 0
	}
}

// SelectedPeer returns the peer of the currently open conversation
func (s *Store) SelectedPeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedPeer
}

// MergeMessages folds messages into the open conversation's buffer.
// Messages for other pairs and duplicates are ignored.
func (s *Store) MergeMessages(msgs ...*models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(msgs...)
}

func (s *Store) mergeLocked(msgs ...*models.Message) {
	changed := false
	for _, msg := range msgs {
		if s.peerOf(msg) != s.selectedPeer || s.selectedPeer == "" {
			continue
		}
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		s.seen[msg.ID] = struct{}{}
		cp := *msg
		s.messages = append(s.messages, &cp)
		changed = true
	}
	if !changed {
		return
	}
	sort.SliceStable(s.messages, func(i, j int) bool {
		a, b := s.messages[i], s.messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Messages returns a copy of the open conversation, oldest first
func (s *Store) Messages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Message, len(s.messages))
	for i, msg := range s.messages {
		cp := *msg
		out[i] = &cp
	}
	return out
}

// ApplyIncoming folds one live message into the cache and reports whether it
// belongs to the open conversation. Messages for the open conversation keep
// the peer's unread count at zero; everything else bumps it.
func (s *Store) ApplyIncoming(msg *models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	peerID := s.peerOf(msg)
	if peerID == "" {
		return false
	}
	active := peerID == s.selectedPeer

	if active {
		s.mergeLocked(msg)
	}

	summary, ok := s.summaries[peerID]
	if !ok {
		// A peer the sidebar has not seen yet; track it so the unread
		// count survives until the next full fetch.
		summary = &models.UserSummary{User: models.User{ID: peerID}}
		s.summaries[peerID] = summary
		s.order = append(s.order, peerID)
	}
	cp := *msg
	summary.LastMessage = &cp
	if active || msg.SenderID == s.viewerID {
		summary.UnreadCount = 0
	} else {
		summary.UnreadCount++
	}

	return active
}

// peerOf returns the other party of a message, or "" when the viewer is not
// involved at all
func (s *Store) peerOf(msg *models.Message) string {
	switch s.viewerID {
	case msg.SenderID:
		return msg.ReceiverID
	case msg.ReceiverID:
		return msg.SenderID
	default:
		return ""
	}
}

// UnreadCount returns the viewer's unread count for a peer
func (s *Store) UnreadCount(peerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary, ok := s.summaries[peerID]; ok {
		return summary.UnreadCount
	}
	return 0
}

// SetOnlineUsers replaces the online set from a getOnlineUsers broadcast
func (s *Store) SetOnlineUsers(userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		s.online[id] = struct{}{}
	}
}

// IsOnline reports whether a user was in the last presence broadcast
func (s *Store) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[userID]
	return ok
}
