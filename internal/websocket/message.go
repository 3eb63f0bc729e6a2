package websocket

import (
	"encoding/json"

	"github.com/isdelr/finance-tracker-be/internal/models"
)

// Actions carried in Message.Action.
const (
	ActionEvent = "event"
	ActionPing  = "ping"
	ActionPong  = "pong"
	ActionError = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

func encode(msg Message) []byte {
	// Payloads are plain structs and strings; marshaling them cannot fail.
	b, _ := json.Marshal(msg)
	return b
}

// NewEventMessage wraps an audit event for delivery to clients.
func NewEventMessage(event models.Event) []byte {
	return encode(Message{Action: ActionEvent, Payload: event})
}

// NewErrorMessage builds an error notification for a single client.
func NewErrorMessage(text string) []byte {
	return encode(Message{Action: ActionError, Payload: map[string]string{"message": text}})
}

// NewPongMessage answers a client ping.
func NewPongMessage() []byte {
	return encode(Message{Action: ActionPong})
}
