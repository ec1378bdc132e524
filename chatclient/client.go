package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"direct-chat-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client talks to the chat backend over REST and the realtime channel
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	store   *Store

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client for the given backend and credentials. viewerID must
// match the user the token was issued for.
func New(baseURL, token, viewerID string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		store:   NewStore(viewerID),
	}
}

// Store exposes the reconciled local state
func (c *Client) Store() *Store {
	return c.store
}

// Users fetches the sidebar and replaces the cached summaries
func (c *Client) Users(ctx context.Context) ([]*models.UserSummary, error) {
	var summaries []*models.UserSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/messages/users", nil, &summaries); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	c.store.SetUsers(summaries)
	return c.store.Users(), nil
}

// OpenConversation selects a peer, fetches the pair's history into the
// buffer and tells the server the messages were read
func (c *Client) OpenConversation(ctx context.Context, peerID string) ([]*models.Message, error) {
	c.store.SelectPeer(peerID)

	var messages []*models.Message
	path := "/api/v1/messages/" + url.PathEscape(peerID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	c.store.MergeMessages(messages...)

	if err := c.MarkRead(ctx, peerID); err != nil {
		log.Warn().Err(err).Str("peer_id", peerID).Msg("Failed to mark conversation as read")
	}

	return c.store.Messages(), nil
}

// Send posts a message to the open conversation and merges the server's
// response optimistically
func (c *Client) Send(ctx context.Context, text, image string) (*models.Message, error) {
	peerID := c.store.SelectedPeer()
	if peerID == "" {
		return nil, fmt.Errorf("no conversation selected")
	}

	body := map[string]string{"text": text, "image": image}
	var msg models.Message
	path := "/api/v1/messages/send/" + url.PathEscape(peerID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	c.store.ApplyIncoming(&msg)
	return &msg, nil
}

// MarkRead flips the server-side read flag for all messages from peer
func (c *Client) MarkRead(ctx context.Context, peerID string) error {
	path := "/api/v1/messages/read/" + url.PathEscape(peerID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// wsEvent mirrors the server's event envelope
type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Connect dials the realtime channel and pumps events into the store until
// the context ends or the transport dies. There is no automatic reconnect;
// callers dial again and refetch to resynchronize.
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go c.readLoop(conn)

	return nil
}

// Close tears down the realtime connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("Realtime channel closed unexpectedly")
			}
			return
		}

		var event wsEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Warn().Err(err).Msg("Failed to parse realtime event")
			continue
		}

		switch event.Event {
		case "newMessage":
			var msg models.Message
			if err := json.Unmarshal(event.Data, &msg); err != nil {
				log.Warn().Err(err).Msg("Failed to parse newMessage event")
				continue
			}
			if active := c.store.ApplyIncoming(&msg); active {
				go c.markReadQuietly(msg.SenderID)
			}
		case "getOnlineUsers":
			var userIDs []string
			if err := json.Unmarshal(event.Data, &userIDs); err != nil {
				log.Warn().Err(err).Msg("Failed to parse getOnlineUsers event")
				continue
			}
			c.store.SetOnlineUsers(userIDs)
		default:
			log.Debug().Str("event", event.Event).Msg("Ignoring unknown realtime event")
		}
	}
}

// markReadQuietly acknowledges a message that arrived in the open
// conversation; failures only cost a stale read flag until the next open
func (c *Client) markReadQuietly(peerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.MarkRead(ctx, peerID); err != nil {
		log.Warn().Err(err).Str("peer_id", peerID).Msg("Failed to acknowledge message")
	}
}

// websocketURL rewrites the REST base URL into the /ws endpoint
func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String(), nil
}

// doJSON performs one JSON request against the REST surface
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
