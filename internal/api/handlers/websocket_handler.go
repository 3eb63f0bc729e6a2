package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated requests to live event streams.
type WebSocketHandler struct {
	hub    *ws.Hub
	tokens *auth.TokenIssuer
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, tokens *auth.TokenIssuer) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin; the token parameter authenticates the connection.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}

	p, err := h.tokens.Verify(token)
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	case err != nil:
		writeMessage(w, http.StatusForbidden, "Forbidden")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, p)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		h.hub.Unregister(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Str("user_id", client.UserID).Msg("Error decoding websocket message")
		client.Reply(ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case ws.ActionPing:
		client.Reply(ws.NewPongMessage())
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Reply(ws.NewErrorMessage("Unknown action: " + msg.Action))
	}
}
