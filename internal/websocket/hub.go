package websocket

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const inactiveThreshold = 2 * time.Minute

type Hub struct {
	// topic -> subscribers
	topics map[string]map[*Client]struct{}
	mu     sync.RWMutex

	// Hub lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	stats   HubStats
	statsMu sync.RWMutex

	cleanupTicker *time.Ticker
}

type HubStats struct {
	TotalTopics      int       `json:"total_topics"`
	TotalClients     int       `json:"total_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessageSent      int64     `json:"message_sent"`
	MessageDropped   int64     `json:"message_dropped"`
	LastReset        time.Time `json:"last_reset"`
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		topics: make(map[string]map[*Client]struct{}),
		ctx:    ctx,
		cancel: cancel,
		stats: HubStats{
			LastReset: time.Now(),
		},
		cleanupTicker: time.NewTicker(1 * time.Minute),
	}

	go hub.cleanupRoutine()

	return hub
}

// Subscribe adds a client to a topic. Pumps are started by the caller.
func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	size := len(h.topics[topic])
	h.mu.Unlock()

	h.updateStats(func(stats *HubStats) {
		stats.TotalConnections++
	})

	log.Info().Str("topic", topic).Str("clientID", client.ID).Str("userID", client.UserID).Int("topicSize", size).Msg("ws: client subscribed")
}

func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	if clients, ok := h.topics[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()

	log.Info().Str("topic", topic).Str("clientID", client.ID).Str("userID", client.UserID).Msg("ws: client unsubscribed")
}

// Publish fans a message out to every active subscriber of topic and
// returns how many clients accepted it. Slow consumers are dropped.
func (h *Hub) Publish(topic string, message OutgoingMessage) int {
	message.Topic = topic
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("ws: failed to marshal broadcast message")
		return 0
	}

	// snapshot, send outside of lock
	h.mu.RLock()
	var targets []*Client
	if clients, ok := h.topics[topic]; ok {
		targets = make([]*Client, 0, len(clients))
		for client := range clients {
			if client.IsClientActive() {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	delivered, dropped := 0, 0
	for _, c := range targets {
		select {
		case c.Send <- data:
			delivered++
		case <-c.ctx.Done():
		default:
			dropped++
			log.Warn().Str("topic", topic).Str("clientID", c.ID).Msg("ws: slow consumer, dropping client")
			h.Unsubscribe(topic, c)
			c.Close()
		}
	}

	h.updateStats(func(stats *HubStats) {
		stats.MessageSent += int64(delivered)
		stats.MessageDropped += int64(dropped)
	})

	log.Debug().Str("topic", topic).Int("targets", len(targets)).Str("messageType", message.Type).Msg("ws: broadcast completed")
	return delivered
}

// GetTopicClients returns all active clients subscribed to a topic
func (h *Hub) GetTopicClients(topic string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for client := range h.topics[topic] {
		if client.IsClientActive() {
			clients = append(clients, client)
		}
	}
	return clients
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.topics {
		n += len(clients)
	}
	return n
}

func (h *Hub) GetTopicStats(topic string) map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := map[string]any{
		"topic":  topic,
		"exists": false,
	}

	if clients, ok := h.topics[topic]; ok {
		active := 0
		users := make(map[string]struct{})
		for client := range clients {
			if client.IsClientActive() {
				active++
				users[client.UserID] = struct{}{}
			}
		}
		stats["exists"] = true
		stats["total_connections"] = len(clients)
		stats["active_connections"] = active
		stats["unique_users"] = len(users)
	}

	return stats
}

func (h *Hub) GetHubStats() HubStats {
	h.mu.RLock()
	topics := len(h.topics)
	clients := 0
	for _, subs := range h.topics {
		for client := range subs {
			if client.IsClientActive() {
				clients++
			}
		}
	}
	h.mu.RUnlock()

	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	h.stats.TotalTopics = topics
	h.stats.TotalClients = clients
	return h.stats
}

func (h *Hub) updateStats(fn func(*HubStats)) {
	h.statsMu.Lock()
	fn(&h.stats)
	h.statsMu.Unlock()
}

func (h *Hub) cleanupRoutine() {
	defer h.cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.cleanupTicker.C:
			h.performCleanup(time.Now())
		}
	}
}

func (h *Hub) performCleanup(now time.Time) int {
	var toRemove []*Client

	h.mu.RLock()
	for _, clients := range h.topics {
		for client := range clients {
			if !client.IsClientActive() || now.Sub(client.GetLastSeen()) > inactiveThreshold {
				toRemove = append(toRemove, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range toRemove {
		log.Info().Str("clientID", client.ID).Str("topic", client.Topic).Msg("ws: cleaning up inactive client")
		h.Unsubscribe(client.Topic, client)
		client.Close()
	}

	log.Debug().Int("cleaned", len(toRemove)).Msg("ws: cleanup routine completed")
	return len(toRemove)
}

// Close gracefully shuts down the hub
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	h.mu.Lock()
	var all []*Client
	for _, clients := range h.topics {
		for client := range clients {
			all = append(all, client)
		}
	}
	h.topics = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, client := range all {
		client.Close()
	}

	log.Info().Int("clients", len(all)).Msg("ws: hub shutdown completed")
}
