package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/valhq/flowscope/pkg/topology"
)

const (
	// writeWait bounds a single message write to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings arrive in time.
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue; slow consumers that
	// fall this far behind are disconnected.
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard is served from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope for every message pushed to clients.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wsClient is one connected dashboard.
type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans the periodic topology snapshot out to all connected clients.
type Hub struct {
	server     *Server
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
}

func newHub(s *Server) *Hub {
	return &Hub{
		server:     s,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 1),
		done:       make(chan struct{}),
	}
}

// run owns the client set and the poll loop. It exits when ctx is
// cancelled, closing every client connection. The done channel is closed
// on exit so pumps blocked on register/unregister sends can bail out.
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	interval := h.server.cfg.Server.PollInterval.Duration()
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.server.metrics.WSClients.Set(float64(len(h.clients)))
			h.server.logger.Debug("ws client connected", "client", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.server.metrics.WSClients.Set(float64(len(h.clients)))
			h.server.logger.Debug("ws client disconnected", "client", c.id, "clients", len(h.clients))

		case msg := <-h.broadcast:
			h.send(msg)

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			msg, err := h.snapshot(ctx)
			if err != nil {
				h.server.logger.Warn("topology snapshot failed", "err", err)
				continue
			}
			h.send(msg)
			h.server.metrics.WSBroadcastsTotal.Inc()
		}
	}
}

// send delivers msg to every client, dropping clients whose queue is full.
func (h *Hub) send(msg []byte) {
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// snapshot builds the topology broadcast message.
func (h *Hub) snapshot(ctx context.Context) ([]byte, error) {
	containers, err := h.server.source.ListContainers(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wsMessage{
		Type: "topology_update",
		Data: topology.BuildTopology(containers),
	})
}

// handleWS upgrades the connection and registers the client. A fresh
// snapshot is queued immediately so the dashboard renders without waiting
// for the first poll tick.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.server.logger.Warn("ws upgrade failed", "err", err)
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	if msg, err := h.snapshot(r.Context()); err == nil {
		c.send <- msg
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// writePump pushes queued messages and periodic pings to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and keeps the pong deadline fresh. The
// feed is one-way; reads exist only to notice disconnects.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
