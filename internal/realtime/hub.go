package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/clinicore/hospital-platform/internal/observability/metrics"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Client is a single WebSocket subscriber.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Hub tracks connected clients and their topic subscriptions. All methods
// are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> subscriber set
	all     map[*Client]struct{}

	metrics *metrics.WorkflowMetrics
	logger  *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(m *metrics.WorkflowMetrics, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		metrics: m,
		logger:  logger,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
	h.metrics.ClientConnected()
}

// Unregister removes a client from every topic and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, topic := range client.Topics {
		h.dropSubscriber(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
	h.metrics.ClientDisconnected()
}

// Subscribe adds topics to a registered client.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
	client.Topics = append(client.Topics, topics...)
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remove := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		remove[t] = struct{}{}
		h.dropSubscriber(t, client)
	}

	remaining := client.Topics[:0]
	for _, t := range client.Topics {
		if _, rm := remove[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

// dropSubscriber must be called with the lock held.
func (h *Hub) dropSubscriber(topic string, client *Client) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// ProcessMessage applies an inbound subscription change.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast delivers an event to subscribers of its topic. Slow clients are
// skipped rather than blocking the hub.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("event marshal failed", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Topic] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of subscribers on one topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer in front of the router.
		return true
	},
}

// Handler upgrades HTTP connections and pumps messages between the socket
// and the hub.
type Handler struct {
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a WebSocket handler bound to the hub.
func NewHandler(hub *Hub, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

// ServeHTTP handles GET /ws. Clients start with no subscriptions and send
// {"action":"subscribe","topics":[...]} to pick their queues.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		Topics: []string{},
		Send:   make(chan []byte, 256),
	}
	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)
}

func (h *Handler) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
