package services

import (
	"context"
	"fmt"

	appconfig "direct-chat-backend/internal/config"
	"direct-chat-backend/internal/models"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSNotifier sends push notifications for messages whose receiver had no
// live session at delivery time
type APNSNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNSNotifier creates a token-based APNs client
func NewAPNSNotifier(cfg appconfig.APNSConfig) (*APNSNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSNotifier{client: client, topic: cfg.Topic}, nil
}

// NotifyNewMessage pushes an alert for the message to the given device
func (n *APNSNotifier) NotifyNewMessage(ctx context.Context, deviceToken string, msg *models.Message) error {
	body := msg.Text
	if body == "" {
		body = "Sent you an image"
	}

	p := payload.NewPayload().
		AlertTitle("New message").
		AlertBody(body).
		Badge(1).
		Sound("default").
		Custom("sender_id", msg.SenderID)

	res, err := n.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload:     p,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("APNs rejected notification: %s", res.Reason)
	}
	return nil
}
