package status

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 40 * time.Second
	clientBuffer = 32
)

type Message struct {
	Message  string
	Time     time.Time
	Type     int
	Stage    string `json:",omitempty"`
	Progress float32
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("ws write msg error", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("ws write ping error", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains control frames, websocket close is noticed here
func (c *client) readPump() {
	defer c.hub.unregister(c)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// Hub broadcasts status messages to websocket clients and remembers the last one
type Hub struct {
	lock        sync.Mutex
	clients     map[*client]bool
	lastMessage []byte
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]bool),
		log:     log.Named("status"),
	}
}

func (h *Hub) register(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c] = true
	if h.lastMessage != nil {
		c.send <- h.lastMessage
	}
}

func (h *Hub) unregister(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades request and subscribes connection to messages
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	h.register(c)
	go c.writePump()
	go c.readPump()
}

func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) Last() []byte {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.lastMessage
}

func (h *Hub) Status(msg Message) {
	if math.IsNaN(float64(msg.Progress)) || math.IsInf(float64(msg.Progress), 0) {
		msg.Progress = 0
	}
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("status marshal failed", zap.Error(err))
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	h.lastMessage = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow client misses message
		}
	}
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(Message{Message: fmt.Sprintf(format, a...), Type: INFO})
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(Message{Message: fmt.Sprintf(format, a...), Type: ERROR})
}

// Progress matches processor.ProgressFunc
func (h *Hub) Progress(stage string, done, total int) {
	var progress float32
	if total > 0 {
		progress = float32(done) / float32(total)
	}
	h.Status(Message{
		Message:  fmt.Sprintf("%s %d/%d", stage, done, total),
		Type:     PROGRESS,
		Stage:    stage,
		Progress: progress,
	})
}
