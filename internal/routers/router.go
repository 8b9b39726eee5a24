package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/middleware"
	"github.com/xenn00/chat-rooms/internal/notifier"
	"github.com/xenn00/chat-rooms/internal/queue"
	"github.com/xenn00/chat-rooms/internal/websocket"
	"github.com/xenn00/chat-rooms/state"
)

func NewRouter(conf *config.AppConfig, state *state.AppState, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   conf.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())

	n := notifier.NewQueueNotifier(queue.NewProducer(state.Redis))
	RoomRouter(r, conf, state, n)
	HubRouter(r, conf, state, hub)
	return r
}
