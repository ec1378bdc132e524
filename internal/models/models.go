package models

import "time"

// User represents a user in the system
type User struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	PushToken  *string   `json:"push_token,omitempty"`
	Token      string    `json:"token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message represents a direct message between two users. A message is
// immutable after creation except for the read flag.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserSummary is a sidebar entry for one peer: the user plus the latest
// message exchanged with the viewer and the viewer's unread count.
type UserSummary struct {
	User
	LastMessage *Message `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}
