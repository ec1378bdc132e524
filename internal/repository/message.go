package repository

import (
	"context"
	"errors"
	"fmt"

	"direct-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, text, image, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.Image, msg.Read, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBetween retrieves all messages between two users in either direction,
// oldest first
func (r *MessageRepository) ListBetween(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text,
			&msg.Image, &msg.Read, &msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// LatestBetween retrieves the most recent message between two users, or nil
// when they have never exchanged one
func (r *MessageRepository) LatestBetween(ctx context.Context, userA, userB string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var msg models.Message
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text,
		&msg.Image, &msg.Read, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	return &msg, nil
}

// CountUnreadFrom counts unread messages sent by peer to viewer
func (r *MessageRepository) CountUnreadFrom(ctx context.Context, peerID, viewerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE
	`
	var count int
	err := r.db.QueryRow(ctx, query, peerID, viewerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkReadFrom marks every message from peer to viewer as read and returns
// how many rows changed
func (r *MessageRepository) MarkReadFrom(ctx context.Context, peerID, viewerID string) (int64, error) {
	query := `
		UPDATE messages
		SET read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE
	`
	result, err := r.db.Exec(ctx, query, peerID, viewerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return result.RowsAffected(), nil
}
