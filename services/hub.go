package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// RosterFunc loads the current participants of a quiz for a freshly
// connected dashboard.
type RosterFunc func(ctx context.Context, quizID uint) (interface{}, error)

// Hub fans quiz events out to the creators watching each quiz. Only the Run
// goroutine mutates the client set.
type Hub struct {
	clients    map[uint]map[*Client]bool
	broadcast  chan envelope
	unicast    chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	roster     RosterFunc
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	quizID uint
	userID uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type envelope struct {
	quizID uint
	client *Client
	data   []byte
}

func NewHub(roster RosterFunc) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		broadcast:  make(chan envelope, sendBuffer),
		unicast:    make(chan envelope, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		roster:     roster,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for quizID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, quizID)
			}
			h.mutex.Unlock()
			log.Info().Msg("live hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			set, ok := h.clients[client.quizID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.quizID] = set
			}
			set[client] = true
			h.mutex.Unlock()
			log.Debug().Str("client", client.id).Uint("quiz_id", client.quizID).Uint("user_id", client.userID).Msg("live client registered")
			go h.sendRoster(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.remove(client)
			h.mutex.Unlock()
			log.Debug().Str("client", client.id).Uint("quiz_id", client.quizID).Msg("live client unregistered")

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients[msg.quizID] {
				h.deliver(client, msg.data)
			}
			h.mutex.Unlock()

		case msg := <-h.unicast:
			h.mutex.Lock()
			if h.clients[msg.client.quizID][msg.client] {
				h.deliver(msg.client, msg.data)
			}
			h.mutex.Unlock()
		}
	}
}

// deliver drops clients that cannot keep up. Caller holds the lock.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		log.Warn().Str("client", client.id).Uint("quiz_id", client.quizID).Msg("live client send buffer full, closing")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.quizID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.quizID)
	}
}

func encodeMessage(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: messageType, Payload: payload})
}

// BroadcastToQuiz queues an event for every client watching quizID. Events
// are dropped rather than blocking the caller when the hub is saturated.
func (h *Hub) BroadcastToQuiz(quizID uint, messageType string, payload interface{}) {
	data, err := encodeMessage(messageType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", messageType).Msg("failed to encode live event")
		return
	}
	select {
	case h.broadcast <- envelope{quizID: quizID, data: data}:
	case <-h.done:
	default:
		log.Warn().Uint("quiz_id", quizID).Str("type", messageType).Msg("live hub saturated, dropping event")
	}
}

func (h *Hub) sendTo(client *Client, messageType string, payload interface{}) {
	data, err := encodeMessage(messageType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", messageType).Msg("failed to encode live event")
		return
	}
	select {
	case h.unicast <- envelope{client: client, data: data}:
	case <-h.done:
	}
}

func (h *Hub) sendRoster(client *Client) {
	if h.roster == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	roster, err := h.roster(ctx, client.quizID)
	if err != nil {
		log.Error().Err(err).Uint("quiz_id", client.quizID).Msg("failed to load roster")
		return
	}
	h.sendTo(client, EventRoster, roster)
}

// SetRoster installs the roster loader. It must be called before Run.
func (h *Hub) SetRoster(fn RosterFunc) {
	h.roster = fn
}

// ClientCount reports how many dashboards are watching quizID.
func (h *Hub) ClientCount(quizID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[quizID])
}

// RegisterClient attaches an upgraded connection to the quiz feed and starts
// its pumps. It returns nil when the hub is no longer running.
func (h *Hub) RegisterClient(conn *websocket.Conn, quizID, userID uint) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
		quizID: quizID,
		userID: userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("websocket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug().Err(err).Str("client", c.id).Msg("ignoring malformed live message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.hub.sendTo(c, "pong", "pong")
	case "request_roster":
		go c.hub.sendRoster(c)
	default:
		log.Debug().Str("type", msg.Type).Str("client", c.id).Msg("unknown live message type")
	}
}
