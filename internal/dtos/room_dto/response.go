package room_dto

import "time"

// UserSummary is the public face of a user reference.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RoomResponse is the safe projection of a room. It has no password field, so
// no serialization path can leak one.
type RoomResponse struct {
	ID                string        `json:"_id"`
	Name              string        `json:"name"`
	HasPassword       bool          `json:"hasPassword"`
	Creator           UserSummary   `json:"creator"`
	Participants      []UserSummary `json:"participants"`
	ParticipantsCount int           `json:"participantsCount"`
	CreatedAt         time.Time     `json:"createdAt"`
	IsCreator         bool          `json:"isCreator"`
}

type SortMetadata struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type PaginationMetadata struct {
	Total        int64        `json:"total"`
	Page         int          `json:"page"`
	PageSize     int          `json:"pageSize"`
	TotalPages   int          `json:"totalPages"`
	HasMore      bool         `json:"hasMore"`
	CurrentCount int          `json:"currentCount"`
	Sort         SortMetadata `json:"sort"`
}

// RoomListResponse is also the cached value for a list query.
type RoomListResponse struct {
	Rooms    []RoomResponse     `json:"rooms"`
	Metadata PaginationMetadata `json:"metadata"`
}

type DatabaseHealth struct {
	Connected bool  `json:"connected"`
	LatencyMs int64 `json:"latency_ms"`
}

type HealthResponse struct {
	Success      bool           `json:"success"`
	Timestamp    time.Time      `json:"timestamp"`
	Database     DatabaseHealth `json:"database"`
	LastActivity *time.Time     `json:"lastActivity,omitempty"`
}
