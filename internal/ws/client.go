package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closed    bool // guarded by hub.mu
	dashboard string
	connID    string
	logger    *zap.Logger
}

// ServeWS upgrades a page's connection and attaches it to the dashboard
// named by the "dashboard" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	dashboard := r.URL.Query().Get("dashboard")
	if dashboard == "" {
		http.Error(w, "missing dashboard", http.StatusBadRequest)
		return
	}
	if !h.handler.Exists(dashboard) {
		http.Error(w, "unknown dashboard", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.New().String()
	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		dashboard: dashboard,
		connID:    connID,
		logger:    h.logger.With(zap.String("connID", connID)),
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}
	client.reply(connectedMessage(dashboard, connID))

	// Start read/write pumps
	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one page event. Resulting state goes to every
// page of the dashboard; failures go back to the sender only.
func (c *Client) handleMessage(data []byte) {
	ev, err := parseEvent(data)
	if err != nil {
		c.logger.Debug("failed to parse event", zap.Error(err))
		return
	}

	if ev.Type == EventPing {
		c.reply(pongMessage())
		return
	}

	state, err := c.hub.handler.HandleEvent(c.dashboard, ev)
	if err != nil {
		c.logger.Debug("event rejected", zap.String("type", ev.Type), zap.Error(err))
		c.reply(noticeMessage(err.Error()))
		if ev.AckID != nil {
			c.reply(ackMessage(*ev.AckID, false))
		}
		return
	}

	if state != nil {
		c.hub.Publish(c.dashboard, state)
	}
	if ev.AckID != nil {
		c.reply(ackMessage(*ev.AckID, true))
	}
}

// reply queues a message for this client only. It is dropped once the hub
// has closed the client or when the send buffer is full.
func (c *Client) reply(msg []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Debug("send buffer full, dropping reply")
		return false
	}
}

// closeSend closes the send channel once. Callers hold hub.mu.
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
