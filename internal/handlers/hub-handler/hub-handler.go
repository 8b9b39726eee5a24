package hub_handler

import (
	"net/http"
	"time"

	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/handlers"
	"github.com/xenn00/chat-rooms/internal/middleware"
	"github.com/xenn00/chat-rooms/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

type ClientInfo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

type TopicStats struct {
	Stats   map[string]any `json:"stats"`
	Clients []ClientInfo   `json:"clients"`
}

// HandleGetStats returns hub wide counters, or a single topic's subscribers
// when ?topic= is given.
func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	reqID := middleware.GetRequestId(r)

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket stats", h.Hub.GetHubStats(), reqID))
		return nil
	}

	clients := h.Hub.GetTopicClients(topic)
	clientList := make([]ClientInfo, 0, len(clients))
	for _, client := range clients {
		clientList = append(clientList, ClientInfo{
			ID:          client.ID,
			UserID:      client.UserID,
			ConnectedAt: client.ConnectedAt,
			LastSeen:    client.GetLastSeen(),
		})
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket topic stats", TopicStats{
		Stats:   h.Hub.GetTopicStats(topic),
		Clients: clientList,
	}, reqID))
	return nil
}
