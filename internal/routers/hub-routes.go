package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/handlers"
	hub_handler "github.com/xenn00/chat-rooms/internal/handlers/hub-handler"
	"github.com/xenn00/chat-rooms/internal/middleware"
	room_repo "github.com/xenn00/chat-rooms/internal/repo/room"
	"github.com/xenn00/chat-rooms/internal/websocket"
	"github.com/xenn00/chat-rooms/state"
)

func HubRouter(r chi.Router, conf *config.AppConfig, state *state.AppState, wsHub *websocket.Hub) {
	hubHandler := hub_handler.NewHubHandler(wsHub)
	wsHandler := websocket.NewWebSocketHandler(
		wsHub,
		websocket.JWTWebSocketAuth(state.JwtSecret.Public),
		websocket.RoomMemberAccess(room_repo.NewRoomRepo(state)),
		conf.CORS.AllowedOrigins,
	)
	wsHandler.MaxConnections = conf.WS.MaxConnections

	// token travels in the query string for browsers
	r.Handle("/api/v1/ws", wsHandler)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(state.JwtSecret.Public))
		protected.Get("/api/v1/ws/stats", handlers.WrapHandler(hubHandler.HandleGetStats))
	})
}
