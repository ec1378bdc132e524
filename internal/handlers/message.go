package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"direct-chat-backend/internal/middleware"
	"direct-chat-backend/internal/models"
	"direct-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// GetSidebar handles GET /api/v1/messages/users
func (h *MessageHandler) GetSidebar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)

	summaries, err := h.messageService.Sidebar(ctx, viewerID)
	if err != nil {
		log.Error().Err(err).Str("user_id", viewerID).Msg("Failed to build sidebar")
		respondError(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	respondJSON(w, summaries, http.StatusOK)
}

// GetConversation handles GET /api/v1/messages/{peer_id}
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peer_id")

	messages, err := h.messageService.Conversation(ctx, viewerID, peerID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", viewerID).
			Str("peer_id", peerID).
			Msg("Failed to load conversation")
		respondError(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	respondJSON(w, messages, http.StatusOK)
}

// SendMessage handles POST /api/v1/messages/send/{peer_id}
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	senderID := middleware.GetUserID(ctx)
	receiverID := chi.URLParam(r, "peer_id")

	var req services.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.messageService.Send(ctx, senderID, receiverID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyMessage):
			respondError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrUserNotFound):
			respondError(w, "Receiver not found", http.StatusNotFound)
		default:
			log.Error().
				Err(err).
				Str("sender_id", senderID).
				Str("receiver_id", receiverID).
				Msg("Failed to send message")
			respondError(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, msg, http.StatusCreated)
}

// MarkReadResponse is the body returned by POST /api/v1/messages/read/{peer_id}
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// MarkRead handles POST /api/v1/messages/read/{peer_id}
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peer_id")

	updated, err := h.messageService.MarkRead(ctx, viewerID, peerID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", viewerID).
			Str("peer_id", peerID).
			Msg("Failed to mark messages as read")
		respondError(w, "Failed to mark messages as read", http.StatusInternalServerError)
		return
	}

	respondJSON(w, MarkReadResponse{Updated: updated}, http.StatusOK)
}
