package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"quizmas-service/internal/auth"
	"quizmas-service/internal/game"
	"quizmas-service/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

// Hub tracks live connections and routes their messages to the game sessions
// they own.
type Hub struct {
	svc    *game.Service
	store  store.Store
	tokens *auth.TokenIssuer

	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client

	mu      sync.RWMutex
	done    chan struct{}
	shuffle func(n int, swap func(i, j int))
}

// NewHub builds a hub. tokens may be nil, in which case no host tokens are
// issued and resume_host is refused.
func NewHub(svc *game.Service, st store.Store, tokens *auth.TokenIssuer) *Hub {
	return &Hub{
		svc:        svc,
		store:      st,
		tokens:     tokens,
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		shuffle:    rand.Shuffle,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// Join hands a new client to the hub. It returns false once the hub stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Serve runs an upgraded connection until it closes.
func (h *Hub) Serve(conn *websocket.Conn, resumeToken string) {
	client := NewClient(h, conn, resumeToken)
	if !h.Join(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ValidateHostToken checks a token presented at connect time.
func (h *Hub) ValidateHostToken(token string) (*auth.HostClaims, error) {
	if h.tokens == nil {
		return nil, auth.ErrInvalidToken
	}
	return h.tokens.Validate(token)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	client.logger().Debug("Client registered")
	client.SendMessage(MessageTypeConnected, ConnectedPayload{ClientID: client.ID})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.logger().Debug("Client unregistered")
	client.close()
	go client.release()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for client := range clients {
		client.close()
		client.release()
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, msg Message) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MessageTypeCreateGame:
		err = h.handleCreateGame(ctx, c, msg.Payload)
	case MessageTypeResumeHost:
		var p ResumeHostPayload
		if err = decodePayload(msg.Payload, &p); err == nil {
			err = h.handleResumeHost(ctx, c, p.HostToken)
		}
	case MessageTypeJoinGame:
		err = h.handleJoinGame(ctx, c, msg.Payload)
	case MessageTypeStartGame:
		err = c.Session.StartSession(ctx)
	case MessageTypeReveal:
		err = c.Session.RevealCurrentQuestion(ctx)
	case MessageTypeShowLeaderboard:
		err = c.Session.ShowLeaderboard(ctx)
	case MessageTypeNextQuestion:
		err = c.Session.NextQuestion(ctx)
	case MessageTypeContinue:
		err = c.Session.ContinueAfterReveal(ctx)
	case MessageTypeEndGame:
		err = c.Session.EndSession(ctx)
	case MessageTypeCancelGame:
		err = c.Session.CancelSession(ctx)
	case MessageTypeSubmitAnswer:
		err = h.handleSubmitAnswer(ctx, c, msg.Payload)
	case MessageTypeGetStats:
		err = h.handleGetStats(c, msg.Payload)
	case MessageTypePing:
		c.SendMessage(MessageTypePong, nil)
	default:
		c.SendError(codeUnknownMessage, fmt.Sprintf("Unknown message type: %s", msg.Type))
		return
	}

	if err != nil {
		h.reportError(c, msg.Type, err)
	}
}

func (h *Hub) dispatchResume(ctx context.Context, c *Client, token string) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := h.handleResumeHost(ctx, c, token); err != nil {
		h.reportError(c, MessageTypeResumeHost, err)
	}
}

func (h *Hub) reportError(c *Client, msgType MessageType, err error) {
	code := errorCode(err)
	entry := c.logger().WithFields(log.Fields{"type": msgType, "code": code})
	if errors.Is(err, game.ErrPersistence) || code == codeInternal {
		entry.Errorf("Request failed: %v", err)
	} else {
		entry.Debugf("Request rejected: %v", err)
	}
	c.SendError(code, err.Error())
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", game.ErrInvalidInput, err)
	}
	return nil
}

func (h *Hub) handleCreateGame(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p CreateGamePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	hostID := p.HostID
	if hostID == "" {
		hostID = uuid.NewString()
	}

	pin, err := c.Session.CreateSession(ctx, hostID, p.QuizID, p.Settings)
	if err != nil {
		return err
	}

	payload := GameCreatedPayload{Pin: pin, HostID: hostID}
	if h.tokens != nil {
		token, err := h.tokens.Issue(hostID, pin)
		if err != nil {
			c.logger().Warnf("Failed to issue host token: %v", err)
		}
		payload.HostToken = token
	}
	c.SendMessage(MessageTypeGameCreated, payload)
	return nil
}

func (h *Hub) handleResumeHost(ctx context.Context, c *Client, token string) error {
	claims, err := h.ValidateHostToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrNotAuthorized, err)
	}
	if err := c.Session.AttachHost(ctx, claims.Pin, claims.HostID); err != nil {
		return err
	}
	c.logger().WithField("host_id", claims.HostID).Info("Host resumed")
	c.SendMessage(MessageTypeGameCreated, GameCreatedPayload{
		Pin:       claims.Pin,
		HostID:    claims.HostID,
		HostToken: token,
		Resumed:   true,
	})
	return nil
}

func (h *Hub) handleJoinGame(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p JoinGamePayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	res, err := c.Session.JoinSession(ctx, p.Pin, game.PlayerProfile{Name: p.Name, Avatar: p.Avatar})
	if err != nil {
		return err
	}
	c.SendMessage(MessageTypeJoined, res)
	return nil
}

func (h *Hub) handleSubmitAnswer(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p SubmitAnswerPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if len(p.Value) == 0 {
		return fmt.Errorf("%w: value is required", game.ErrInvalidInput)
	}
	feedback, err := c.Session.SubmitAnswer(ctx, p.Value)
	if err != nil {
		return err
	}
	c.SendMessage(MessageTypeAnswerResult, feedback)
	return nil
}

func (h *Hub) handleGetStats(c *Client, raw json.RawMessage) error {
	var p GetStatsPayload
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	rec := c.Session.Game()
	if rec == nil {
		return fmt.Errorf("%w: not attached to a game", game.ErrInvalidState)
	}
	q := rec.CurrentQuestion
	if p.QuestionIndex != nil {
		q = *p.QuestionIndex
	}
	c.SendMessage(MessageTypeAnswerStats, AnswerStatsPayload{
		QuestionIndex: q,
		Stats:         c.Session.AnswerStats(q),
	})
	return nil
}
