package websocket

import (
	"encoding/json"
	"time"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Command is a viewer control message sent by the client.
type Command struct {
	Action     string  `json:"action"`
	X          float64 `json:"x,omitempty"`
	Width      float64 `json:"width,omitempty"`
	SegmentID  string  `json:"segment_id,omitempty"`
	Event      string  `json:"event,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// CommandHandler applies a command and returns the reply sent back to the
// client that issued it.
type CommandHandler func(Command) (any, error)

type errorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type Client struct {
	SessionID string
	hub       *Hub
	conn      *ws.Conn
	send      chan []byte
	replies   chan []byte
	handle    CommandHandler
	logger    *zap.Logger
}

func NewClient(sessionID string, hub *Hub, conn *ws.Conn, handle CommandHandler) *Client {
	return &Client{
		SessionID: sessionID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		replies:   make(chan []byte, 16),
		handle:    handle,
		logger:    hub.logger.With(zap.String("session_id", sessionID)),
	}
}

// ReadPump reads commands until the connection fails, then unregisters the
// client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if c.handle == nil {
			continue
		}

		var cmd Command
		var reply any
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = errorReply{Type: "error", Error: "malformed command"}
		} else if reply, err = c.handle(cmd); err != nil {
			reply = errorReply{Type: "error", Error: err.Error()}
		}
		if reply == nil {
			continue
		}
		if !c.Send(reply) {
			return
		}
	}
}

// Send queues a direct reply to this client. It reports false when the
// client cannot keep up.
func (c *Client) Send(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to encode websocket reply", zap.Error(err))
		return true
	}
	select {
	case c.replies <- data:
		return true
	default:
		c.logger.Warn("websocket client not reading replies, closing")
		return false
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, message); err != nil {
				return
			}
		case reply := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.TextMessage, reply); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
