package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"story-playback/internal/metrics"

	"go.uber.org/zap"
)

// Hub fans viewer session messages out to the websocket clients watching
// each session.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

type Message struct {
	SessionID string
	Payload   []byte

	// last disconnects the session's clients instead of delivering Payload.
	last bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.send)
					metrics.WebsocketClients.Dec()
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.SessionID]; !ok {
				h.clients[client.SessionID] = make(map[*Client]bool)
			}
			h.clients[client.SessionID][client] = true
			h.mu.Unlock()
			metrics.WebsocketClients.Inc()

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.SessionID] {
				if message.last {
					h.dropLocked(client)
					continue
				}
				select {
				case client.send <- message.Payload:
				default:
					h.logger.Warn("websocket client too slow, dropping it", zap.String("session_id", message.SessionID))
					h.dropLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers reports how many clients watch sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish queues payload for every client of sessionID. It never blocks: when
// nobody listens or the queue is full the message is dropped.
func (h *Hub) Publish(sessionID string, payload any) {
	if h.Subscribers(sessionID) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode websocket message", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &Message{SessionID: sessionID, Payload: data}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", zap.String("session_id", sessionID))
	}
}

// CloseSession disconnects every client of sessionID after the messages
// already queued for it.
func (h *Hub) CloseSession(sessionID string) {
	if h.Subscribers(sessionID) == 0 {
		return
	}
	select {
	case h.broadcast <- &Message{SessionID: sessionID, last: true}:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	metrics.WebsocketClients.Dec()
	if len(clients) == 0 {
		delete(h.clients, client.SessionID)
	}
}
