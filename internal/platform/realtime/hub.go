package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const clientSendBuffer = 32

// UserRoom is the personal room every connection of a user joins.
func UserRoom(userID string) string {
	return "user:" + userID
}

type Message struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Client struct {
	rooms []string
	send  chan []byte
}

func NewClient(rooms ...string) *Client {
	return &Client{rooms: rooms, send: make(chan []byte, clientSendBuffer)}
}

func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub fans messages out to rooms of connected clients. Delivery never blocks
// the publisher: a client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	bus    Bus
	origin string
}

func NewHub(bus Bus) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		bus:     bus,
		origin:  uuid.NewString(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, room := range c.rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ToRoom pushes an event to every local connection in room and, when a bus
// is configured, to the other instances. It reports local delivery only.
func (h *Hub) ToRoom(ctx context.Context, room, event string, payload any) bool {
	return h.publish(ctx, room, event, payload)
}

// Broadcast pushes an event to every connection.
func (h *Hub) Broadcast(ctx context.Context, event string, payload any) bool {
	return h.publish(ctx, "", event, payload)
}

func (h *Hub) publish(ctx context.Context, room, event string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("realtime payload marshal failed", "event", event, "err", err)
		return false
	}
	data, err := json.Marshal(Message{Event: event, Room: room, Payload: raw})
	if err != nil {
		slog.Warn("realtime message marshal failed", "event", event, "err", err)
		return false
	}

	delivered := h.deliver(room, data)
	if h.bus != nil {
		if err := h.bus.Publish(ctx, Envelope{Origin: h.origin, Room: room, Data: data}); err != nil {
			slog.Warn("realtime bus publish failed", "event", event, "err", err)
		}
	}
	return delivered > 0
}

func (h *Hub) deliver(room string, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if room != "" {
		targets = h.rooms[room]
	}
	sent := 0
	for c := range targets {
		select {
		case c.send <- data:
			sent++
		default:
			slog.Debug("realtime client buffer full, dropping message", "room", room)
		}
	}
	return sent
}

// Run relays messages published by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.bus == nil {
		<-ctx.Done()
		return nil
	}
	return h.bus.Subscribe(ctx, func(env Envelope) {
		if env.Origin == h.origin {
			return
		}
		h.deliver(env.Room, env.Data)
	})
}
