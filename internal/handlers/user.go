package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"direct-chat-backend/internal/middleware"
	"direct-chat-backend/internal/models"
	"direct-chat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest is the body of POST /api/v1/users
type CreateUserRequest struct {
	FullName   string `json:"full_name"`
	ProfilePic string `json:"profile_pic"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.FullName == "" {
		respondError(w, "full_name is required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.CreateUser(ctx, req.FullName, req.ProfilePic)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("full_name", user.FullName).
		Msg("User created")

	respondJSON(w, user, http.StatusCreated)
}

// UpdatePushTokenRequest is the body of PUT /api/v1/users/push-token
type UpdatePushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/v1/users/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update push token")
		respondError(w, "Failed to update push token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
