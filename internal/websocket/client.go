package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Send holds outbound messages. It is never closed; closed signals shutdown instead.
	Send   chan []byte
	closed chan struct{}
	once   sync.Once

	UserID string
	Admin  bool

	// expiresAt closes the connection when the token it was opened with runs out.
	expiresAt time.Time
}

// NewClient creates a client for the caller p. conn may be nil in tests that only exercise the hub.
func NewClient(hub *Hub, conn *websocket.Conn, p models.Principal) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		closed:    make(chan struct{}),
		UserID:    p.UserID,
		Admin:     p.IsAdmin(),
		expiresAt: p.ExpiresAt,
	}
}

// Done is closed once the hub has dropped the client.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

func (c *Client) close() {
	c.once.Do(func() { close(c.closed) })
}

// trySend queues message without blocking. It reports false when the buffer is full
// or the client is already closed.
func (c *Client) trySend(message []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// Reply queues a message for this client only, dropping it if the client cannot keep up.
func (c *Client) Reply(message []byte) {
	if !c.trySend(message) {
		log.Debug().Str("user_id", c.UserID).Msg("Dropped websocket reply")
	}
}

// ReadPump reads messages from the connection and hands each one to handle.
// It returns when the connection fails or is closed.
func (c *Client) ReadPump(handle func(*Client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", c.UserID).Msg("Unexpected websocket close")
			}
			return
		}
		handle(c, message)
	}
}

// WritePump writes queued messages to the connection and keeps it alive with pings.
// It closes the connection once the client's token expires.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	var expired <-chan time.Time
	if !c.expiresAt.IsZero() {
		timer := time.NewTimer(time.Until(c.expiresAt))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-expired:
			log.Debug().Str("user_id", c.UserID).Msg("Closing websocket with expired token")
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "token expired"))
			return
		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
