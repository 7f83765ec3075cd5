package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"quizmas-service/internal/game"
	"quizmas-service/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
	cleanupTimeout = 5 * time.Second
)

// Client is one socket connection. It owns a game session, which acts as
// host or player once the first create, resume or join message succeeds.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *game.Session

	hooks       *store.DisconnectHooks
	resumeToken string

	mu     sync.Mutex
	closed bool

	eventMu       sync.Mutex
	lastStatus    string
	timedQuestion int
}

// NewClient wraps conn. A non-empty resumeToken reattaches the connection as
// host of the token's game before any message is read.
func NewClient(hub *Hub, conn *websocket.Conn, resumeToken string) *Client {
	hooks := store.NewDisconnectHooks(hub.store)
	c := &Client{
		ID:            uuid.NewString(),
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan []byte, sendBuffer),
		Session:       hub.svc.NewSession(hooks),
		hooks:         hooks,
		resumeToken:   resumeToken,
		timedQuestion: -1,
	}
	c.Session.OnEvent(game.EventHandlerFunc(c.handleEvent))
	return c
}

func (c *Client) logger() *log.Entry {
	fields := log.Fields{"client_id": c.ID}
	if pin := c.Session.Pin(); pin != "" {
		fields["pin"] = pin
	}
	if id := c.Session.PlayerID(); id != "" {
		fields["player_id"] = id
	}
	return log.WithFields(fields)
}

// ReadPump reads messages until the connection fails and dispatches each one
// in order on this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.leave(c)
		c.Conn.Close()
	}()

	if c.resumeToken != "" {
		c.Hub.dispatchResume(context.Background(), c, c.resumeToken)
	}

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().Warnf("WebSocket error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError(codeInvalidInput, "Invalid message format")
			continue
		}
		c.Hub.dispatch(context.Background(), c, msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger().Debugf("Write failed: %v", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, payload any) {
	data, err := json.Marshal(outgoing{Type: msgType, Payload: payload})
	if err != nil {
		c.logger().Errorf("Failed to marshal %s message: %v", msgType, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.logger().Warn("Client send buffer full, closing connection")
		c.closeLocked()
	}
}

func (c *Client) SendError(code, message string) {
	c.SendMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// release detaches the session and runs the connection's disconnect cleanup.
func (c *Client) release() {
	c.Session.Close()
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	c.hooks.Fire(ctx)
}
