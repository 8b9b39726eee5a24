package websocket

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/notifier"
)

type WebSocketHandler struct {
	hub          *Hub
	authenticate AuthenticatorFunc
	authorize    TopicAuthorizer
	upgrader     websocket.Upgrader
	// MaxConnections caps the hub's subscribers; zero means unlimited.
	MaxConnections int
}

// NewWebSocketHandler builds the upgrade endpoint. A nil authorize admits every topic.
func NewWebSocketHandler(hub *Hub, auth AuthenticatorFunc, authorize TopicAuthorizer, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		authenticate: auth,
		authorize:    authorize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// non-browser clients send no origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP subscribes the caller to ?topic=, defaulting to the room list.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		log.Warn().Err(err).Msg("ws: authentication failed")
		_ = app_error.NewAppError(http.StatusUnauthorized, err.Error(), "token").JSON(w)
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = notifier.RoomListTopic
	}

	if h.authorize != nil {
		if appErr := h.authorize(r.Context(), userID, topic); appErr != nil {
			log.Warn().Err(appErr).Str("userID", userID).Str("topic", topic).Msg("ws: subscription refused")
			_ = appErr.JSON(w)
			return
		}
	}

	if h.MaxConnections > 0 && h.hub.ClientCount() >= h.MaxConnections {
		log.Warn().Int("max", h.MaxConnections).Msg("ws: connection limit reached")
		_ = app_error.NewAppError(http.StatusServiceUnavailable, "too many connections", "").JSON(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		log.Error().Err(err).Msg("ws: upgrade failed")
		return
	}

	client := NewClient(userID, topic, conn)
	h.hub.Subscribe(topic, client)
	client.Start(h.hub)
}
