package handlers

import (
	"net/http"

	"direct-chat-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles the realtime channel
type WebSocketHandler struct {
	hub         *services.Hub
	userService *services.UserService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.Hub, userService *services.UserService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
	}
}

// HandleWebSocket handles GET /ws. The handshake requires the same signed
// token as the REST layer; a bare claimed user id is not accepted.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	sess := h.hub.Register(userID, conn)
	defer func() {
		h.hub.Unregister(sess)
		h.hub.BroadcastOnlineUsers()
	}()

	h.hub.BroadcastOnlineUsers()

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// Server-push protocol: inbound frames carry nothing, the loop only
	// watches for the transport to go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}
	}
}
