package handlers

import (
	"net/http"
	"strings"

	ws "quizmas-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins. An empty list
// or one containing "*" accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker matches the Origin header exactly. Requests without one are
// not from a browser and pass.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimSuffix(origin, "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		if !ok {
			log.Warnf("Rejected websocket origin %q", origin)
		}
		return ok
	}
}

// HandleWebSocket upgrades the request. A host_token query parameter resumes
// hosting the game the token was issued for.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("host_token")
	if token != "" {
		if _, err := h.hub.ValidateHostToken(token); err != nil {
			JsonError(c, http.StatusUnauthorized, "Invalid host token")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Failed to upgrade connection: %v", err)
		return
	}
	h.hub.Serve(conn, token)
}
