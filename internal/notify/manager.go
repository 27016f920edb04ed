package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the central registry of live WebSocket connections. A user may
// hold several connections at once (one per device), and every lifecycle
// event fans out to all of them.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// EventType defines the kind of WebSocket event being delivered.
type EventType string

const (
	EventOfferCreated   EventType = "offer_created"
	EventOfferAccepted  EventType = "offer_accepted"
	EventOfferRejected  EventType = "offer_rejected"
	EventOfferCountered EventType = "offer_countered"
	EventOfferCancelled EventType = "offer_cancelled"
	EventOfferExpired   EventType = "offer_expired"
	EventMeetupUpdated  EventType = "meetup_updated"
	EventTradeCompleted EventType = "trade_completed"
	EventNewMessage     EventType = "new_message"
	EventMessageRead    EventType = "message_read"
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
)

// Event is the wire envelope pushed to clients.
type Event struct {
	Type      EventType       `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewManager creates a connection manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient registers a new connection.
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	log.Printf("WebSocket client %s connected for user %s", client.ID, client.UserID)
}

// RemoveClient unregisters a connection.
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(m.userClients, userID)
		}
	}
	m.userMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	log.Printf("WebSocket client %s disconnected for user %s", clientID, userID)
}

// SendToUser delivers an event to every connection of the user.
func (m *Manager) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs, exists := m.userClients[userID]
	m.userMutex.RUnlock()

	if !exists || len(clientIDs) == 0 {
		// The user is offline. The underlying entity is already persisted,
		// so the state change is simply picked up on the next sync.
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	for clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		go func(c *Client) {
			select {
			case c.send <- eventJSON:
			default:
				// The send channel is full, the client is too slow.
				log.Printf("Send channel full for client %s, closing connection", c.ID)
				c.conn.Close()
				m.RemoveClient(c.ID)
			}
		}(client)
	}
}

// Push implements the lifecycle notifier over the connection registry.
// Delivery is best-effort.
func (m *Manager) Push(userID uuid.UUID, event string, payload any) {
	if userID == uuid.Nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling push payload: %v", err)
		return
	}
	m.SendToUser(userID.String(), Event{
		Type:      EventType(event),
		UserID:    userID.String(),
		Timestamp: time.Now(),
		Payload:   raw,
	})
}

// Shutdown closes every connection and clears the registry.
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
