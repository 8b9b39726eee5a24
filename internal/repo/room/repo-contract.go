package room_repo

import (
	"context"
	"time"

	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
)

type RoomRepoContract interface {
	CountRooms(ctx context.Context, filter entity.RoomFilter) (int64, *app_error.AppError)
	FindRooms(ctx context.Context, filter entity.RoomFilter, page entity.RoomPageQuery) ([]*entity.Room, *app_error.AppError)
	// FindRoomByID never returns the password hash.
	FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError)
	// FindRoomWithSecret includes the password hash for admission checks.
	FindRoomWithSecret(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError)
	InsertRoom(ctx context.Context, room *entity.Room) *app_error.AppError
	// AddParticipant appends userID atomically and returns the updated room.
	AddParticipant(ctx context.Context, roomID, userID string) (*entity.Room, *app_error.AppError)
	LatestActivity(ctx context.Context) (*time.Time, *app_error.AppError)
	Ping(ctx context.Context) (time.Duration, error)
}
