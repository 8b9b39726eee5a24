package websocket

import (
	"context"
	"net/http"

	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/notifier"
)

// TopicAuthorizer decides whether userID may subscribe to topic.
type TopicAuthorizer func(ctx context.Context, userID, topic string) *app_error.AppError

type RoomLookup interface {
	FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError)
}

// RoomMemberAccess lets anyone follow the room list, but only participants
// follow a room's own topic, whose events carry member details.
func RoomMemberAccess(rooms RoomLookup) TopicAuthorizer {
	return func(ctx context.Context, userID, topic string) *app_error.AppError {
		if topic == notifier.RoomListTopic {
			return nil
		}

		room, err := rooms.FindRoomByID(ctx, topic)
		if err != nil {
			return err
		}
		if !room.HasParticipant(userID) {
			return app_error.NewAppError(http.StatusForbidden, "join the room before subscribing to it", "topic")
		}
		return nil
	}
}
