package websocket

import (
	"context"
	"errors"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrHubBusy is returned by Publish when the delivery queue is full.
var ErrHubBusy = errors.New("websocket hub is busy")

type delivery struct {
	ownerID     string
	message     []byte
	// revokeAdmin names a user whose admin connections stop receiving everyone's events.
	revokeAdmin string
}

// Hub maintains the set of active clients and routes events to them.
// Every map is owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Admin clients receive every event.
	admins map[*Client]bool

	// A map of user IDs to the clients that user has open.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		admins:        make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		deliver:       make(chan delivery, 256),
		done:          make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			if client.Admin {
				h.admins[client] = true
			}
			h.addSubscription(client, client.UserID)
			log.Info().Int("total_clients", len(h.clients)).Str("user_id", client.UserID).Msg("Client connected")
		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case d := <-h.deliver:
			h.deliverTo(d)
		}
	}
}

// Register adds a client. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish routes an audit event to the owner's clients and to every admin client.
// It never blocks the caller.
func (h *Hub) Publish(_ context.Context, event models.Event) error {
	d := delivery{message: NewEventMessage(event)}
	if event.OwnerID != nil {
		d.ownerID = *event.OwnerID
	}
	if event.Type == models.EventUserRoleUpdated {
		d.revokeAdmin = event.SubjectID
	}
	select {
	case h.deliver <- d:
		return nil
	default:
		return ErrHubBusy
	}
}

func (h *Hub) deliverTo(d delivery) {
	for client := range h.admins {
		h.send(client, d.message)
	}
	for client := range h.subscriptions[d.ownerID] {
		if !client.Admin {
			h.send(client, d.message)
		}
	}
	if d.revokeAdmin != "" {
		h.dropAdmins(d.revokeAdmin)
	}
}

// dropAdmins disconnects the admin connections of userID after a role change.
// A token issued before the change keeps its old role until it expires.
func (h *Hub) dropAdmins(userID string) {
	for client := range h.subscriptions[userID] {
		if client.Admin {
			log.Info().Str("user_id", userID).Msg("Dropping admin websocket after role change")
			h.remove(client)
		}
	}
}

// send drops clients that cannot keep up.
func (h *Hub) send(client *Client, message []byte) {
	if !client.trySend(message) {
		log.Warn().Str("user_id", client.UserID).Msg("Dropping slow websocket client")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	delete(h.admins, client)
	h.removeSubscription(client)
	client.close()
}

func (h *Hub) addSubscription(client *Client, userID string) {
	if h.subscriptions[userID] == nil {
		h.subscriptions[userID] = make(map[*Client]bool)
	}
	h.subscriptions[userID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.UserID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
}
