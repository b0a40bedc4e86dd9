// Package websocket pushes dataset progress to connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Message types
const (
	MessageTypeStatus = "status"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

// Message is one frame sent to subscribers of a dataset.
type Message struct {
	Type         string `json:"type"`
	DatasetID    string `json:"dataset_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Step         string `json:"step,omitempty"`
	Progress     int    `json:"progress"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Client is one connection subscribed to a dataset
type Client struct {
	DatasetID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by dataset ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage
	done       chan struct{}

	logger *zap.Logger
}

type broadcastMessage struct {
	DatasetID string
	Message   []byte
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger.Named("ws_hub"),
	}
}

// Run serves registrations and broadcasts until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
			}
			h.clients = map[string]map[*Client]bool{}
			return

		case client := <-h.register:
			if h.clients[client.DatasetID] == nil {
				h.clients[client.DatasetID] = make(map[*Client]bool)
			}
			h.clients[client.DatasetID][client] = true
			h.logger.Debug("Client registered", zap.String("dataset_id", client.DatasetID))

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Debug("Client unregistered", zap.String("dataset_id", client.DatasetID))

		case msg := <-h.broadcast:
			for client := range h.clients[msg.DatasetID] {
				select {
				case client.Send <- msg.Message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.DatasetID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.DatasetID)
	}
}

// Register adds a new client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishStatus sends a status update to all subscribers of the dataset.
func (h *Hub) PublishStatus(datasetID, status, step string, progress int, errMsg string) {
	data, err := json.Marshal(Message{
		Type:         MessageTypeStatus,
		DatasetID:    datasetID,
		Status:       status,
		Step:         step,
		Progress:     progress,
		ErrorMessage: errMsg,
	})
	if err != nil {
		h.logger.Error("Failed to marshal status message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{DatasetID: datasetID, Message: data}:
	case <-h.done:
	}
}

// HandleConnection serves one connection. The snapshot, when given, is the
// first frame the client receives.
func (h *Hub) HandleConnection(c *websocket.Conn, datasetID string, snapshot *Message) {
	client := &Client{
		DatasetID: datasetID,
		Conn:      c,
		Send:      make(chan []byte, 256),
	}

	if snapshot != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			client.Send <- data
		}
	}

	if !h.Register(client) {
		return
	}
	defer h.Unregister(client)

	// Start writer goroutine
	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return c.WriteMessage(messageType, data)
	}
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					write(websocket.CloseMessage, []byte{})
					return
				}
				if err := write(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := write(websocket.PingMessage, nil); err != nil {
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
				h.logger.Warn("WebSocket error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == MessageTypePing {
			pong, _ := json.Marshal(Message{Type: MessageTypePong})
			if err := write(websocket.TextMessage, pong); err != nil {
				break
			}
		}
	}
}
