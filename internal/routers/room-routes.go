package routers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/handlers"
	room_handler "github.com/xenn00/chat-rooms/internal/handlers/room-handler"
	"github.com/xenn00/chat-rooms/internal/middleware"
	"github.com/xenn00/chat-rooms/internal/notifier"
	"github.com/xenn00/chat-rooms/state"
)

func RoomRouter(r chi.Router, conf *config.AppConfig, state *state.AppState, n notifier.Notifier) {
	roomHandler := room_handler.NewRoomHandler(state, n)
	limiter := middleware.NewRateLimiter(state.Redis, middleware.RateLimiterConfig{
		Requests:  conf.RATELIMIT.Requests,
		Window:    time.Duration(conf.RATELIMIT.WindowSeconds) * time.Second,
		Whitelist: conf.RATELIMIT.Whitelist,
	})

	auth := middleware.JWTAuth(state.JwtSecret.Public)

	r.Get("/api/v1/rooms/health", roomHandler.Health)

	// limited before auth so rejected tokens still count
	r.With(limiter.Middleware, auth).Get("/api/v1/rooms", handlers.WrapHandler(roomHandler.ListRooms))

	r.Group(func(protected chi.Router) {
		protected.Use(auth)
		protected.Post("/api/v1/rooms", handlers.WrapHandler(roomHandler.CreateRoom))
		protected.Get("/api/v1/rooms/{roomId}", handlers.WrapHandler(roomHandler.GetRoom))
		protected.Post("/api/v1/rooms/{roomId}/join", handlers.WrapHandler(roomHandler.JoinRoom))
	})
}
