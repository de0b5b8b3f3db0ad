package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/spinwheel-go/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum inbound message size
	maxMessageSize = 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one WebSocket connection. Outbound traffic flows through the
// send channel; the read pump dispatches inbound messages to the handler.
type Client struct {
	hub          *Hub
	handler      *Handler
	conn         *websocket.Conn
	connectionID model.ConnectionID
	logger       *slog.Logger

	// sendMu guards send against the hub closing the channel while the read
	// pump is still replying
	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, handler *Handler, conn *websocket.Conn, connectionID model.ConnectionID, logger *slog.Logger) *Client {
	return &Client{
		hub:          hub,
		handler:      handler,
		conn:         conn,
		connectionID: connectionID,
		send:         make(chan []byte, sendBufferSize),
		logger:       logger.With(slog.String("connection_id", string(connectionID))),
	}
}

// Send queues a per-client message, dropping it if the client is too slow or
// already closed
func (c *Client) Send(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client send buffer full, message dropped")
	}
}

// closeSend closes the outbound channel exactly once; later Sends are dropped
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads inbound messages until the connection drops, then reports
// the disconnect to the game core
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
		c.handler.onDisconnect(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.handler.readTimeout()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.handler.readTimeout()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read error", slog.String("error", err.Error()))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed client message", slog.String("error", err.Error()))
			continue
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.handler.readTimeout()))

		c.handler.dispatch(c, msg)
	}
}

// writePump forwards queued messages to the peer and keeps the connection
// alive with periodic pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.handler.pingInterval())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
