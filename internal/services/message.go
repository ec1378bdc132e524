package services

import (
	"context"
	"fmt"
	"time"

	"direct-chat-backend/internal/metrics"
	"direct-chat-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageStore is the persistence contract for messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListBetween(ctx context.Context, userA, userB string) ([]*models.Message, error)
	LatestBetween(ctx context.Context, userA, userB string) (*models.Message, error)
	CountUnreadFrom(ctx context.Context, peerID, viewerID string) (int, error)
	MarkReadFrom(ctx context.Context, peerID, viewerID string) (int64, error)
}

// UserStore is the slice of the user repository the message service needs
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListOthers(ctx context.Context, viewerID string) ([]*models.User, error)
}

// Deliverer routes a persisted message to the receiver's live sessions
type Deliverer interface {
	DeliverMessage(msg *models.Message)
	IsOnline(userID string) bool
}

// ImageUploader stores a base64 image payload and returns its durable URL
type ImageUploader interface {
	Upload(ctx context.Context, userID, data string) (string, error)
}

// PushSender notifies a device about a message that found no live session
type PushSender interface {
	NotifyNewMessage(ctx context.Context, deviceToken string, msg *models.Message) error
}

// SendRequest is the body of a send call. Image carries a base64 data URL.
type SendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// MessageService handles message-related business logic
type MessageService struct {
	messages MessageStore
	users    UserStore
	hub      Deliverer
	uploader ImageUploader // nil disables image sends
	push     PushSender    // nil disables offline pushes
}

// NewMessageService creates a new message service
func NewMessageService(
	messages MessageStore,
	users UserStore,
	hub Deliverer,
	uploader ImageUploader,
	push PushSender,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		hub:      hub,
		uploader: uploader,
		push:     push,
	}
}

// Send validates, persists and delivers a new message. Persistence always
// wins: once the row is written, delivery and push failures never roll it
// back or reach the sender.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID string, req SendRequest) (*models.Message, error) {
	if req.Text == "" && req.Image == "" {
		return nil, models.ErrEmptyMessage
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve receiver: %w", err)
	}

	var imageURL string
	if req.Image != "" {
		if s.uploader == nil {
			return nil, fmt.Errorf("image uploads are not configured")
		}
		imageURL, err = s.uploader.Upload(ctx, senderID, req.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      imageURL,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	metrics.MessagesPersisted.Inc()

	s.hub.DeliverMessage(msg)

	if !s.hub.IsOnline(receiverID) && s.push != nil && receiver.PushToken != nil {
		go s.notifyOffline(*receiver.PushToken, msg)
	}

	return msg, nil
}

// notifyOffline sends a best-effort APNs alert for an undelivered message
func (s *MessageService) notifyOffline(deviceToken string, msg *models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.push.NotifyNewMessage(ctx, deviceToken, msg); err != nil {
		log.Warn().
			Err(err).
			Str("receiver_id", msg.ReceiverID).
			Str("message_id", msg.ID).
			Msg("Failed to send push notification")
		return
	}
	metrics.PushesSent.Inc()
}

// Conversation returns the full history between viewer and peer, oldest first
func (s *MessageService) Conversation(ctx context.Context, viewerID, peerID string) ([]*models.Message, error) {
	messages, err := s.messages.ListBetween(ctx, viewerID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return messages, nil
}

// Sidebar returns every other user with their latest message and the
// viewer's unread count for that peer
func (s *MessageService) Sidebar(ctx context.Context, viewerID string) ([]*models.UserSummary, error) {
	users, err := s.users.ListOthers(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	summaries := make([]*models.UserSummary, 0, len(users))
	for _, user := range users {
		latest, err := s.messages.LatestBetween(ctx, viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest message: %w", err)
		}

		unread, err := s.messages.CountUnreadFrom(ctx, user.ID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}

		summaries = append(summaries, &models.UserSummary{
			User:        *user,
			LastMessage: latest,
			UnreadCount: unread,
		})
	}

	return summaries, nil
}

// MarkRead flips the read flag on every message from peer to viewer
func (s *MessageService) MarkRead(ctx context.Context, viewerID, peerID string) (int64, error) {
	updated, err := s.messages.MarkReadFrom(ctx, peerID, viewerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return updated, nil
}
