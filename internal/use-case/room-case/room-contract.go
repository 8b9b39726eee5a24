package room_service

import (
	"context"
	"time"

	"github.com/xenn00/chat-rooms/internal/dtos/room_dto"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
)

type RoomServiceContract interface {
	ListRooms(ctx context.Context, req room_dto.ListRoomsRequest, viewerID string) (*room_dto.RoomListResponse, *app_error.AppError)
	CreateRoom(ctx context.Context, req room_dto.CreateRoomRequest, creatorID string) (*room_dto.RoomResponse, *app_error.AppError)
	GetRoom(ctx context.Context, roomID, viewerID string) (*room_dto.RoomResponse, *app_error.AppError)
	JoinRoom(ctx context.Context, roomID, userID string, req room_dto.JoinRoomRequest) (*room_dto.RoomResponse, *app_error.AppError)
	// Health never fails; a down store is reported in the payload.
	Health(ctx context.Context) *room_dto.HealthResponse
}

// Cache is the slice of the cache client the directory needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
