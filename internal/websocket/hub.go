package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/modelboard/api/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	ProfileID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub pushes translation progress to clients watching a profile
type Hub struct {
	// Clients grouped by profile ID
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Broadcast messages to profile subscribers
	broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	ProfileID string
	Message   []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ProfileID] == nil {
				h.clients[client.ProfileID] = make(map[*Client]bool)
			}
			h.clients[client.ProfileID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for profile %s", client.ProfileID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("Client unregistered from profile %s", client.ProfileID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.ProfileID] {
				select {
				case client.Send <- msg.Message:
				default:
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client and closes its send channel. Caller holds mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.ProfileID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.ProfileID)
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribers returns the number of clients watching profileID
func (h *Hub) Subscribers(profileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[profileID])
}

// TranslationUpdated sends one persisted entry transition to the profile subscribers
func (h *Hub) TranslationUpdated(profileID, target string, entry model.TranslationEntry) {
	h.publish(profileID, model.WSTranslationMessage{
		Type:      model.WSMessageTypeTranslation,
		ProfileID: profileID,
		Target:    target,
		Entry:     entry,
	})
}

// TranslationsComplete tells the profile subscribers every target is done
func (h *Hub) TranslationsComplete(profileID string) {
	h.publish(profileID, model.WSCompleteMessage{
		Type:      model.WSMessageTypeComplete,
		ProfileID: profileID,
	})
}

// publish never blocks the caller: a full broadcast queue drops the message,
// and clients can always fall back to the translations endpoint.
func (h *Hub) publish(profileID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal websocket message: %v", err)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{ProfileID: profileID, Message: data}:
	default:
		log.Printf("Websocket broadcast queue full, dropping message for profile %s", profileID)
	}
}

// sendTo queues data for one client if it is still registered
func (h *Hub) sendTo(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.ProfileID][client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, profileID string) {
	client := &Client{
		ProfileID: profileID,
		Conn:      c,
		Send:      make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			h.sendTo(client, data)
		}
	}
}
