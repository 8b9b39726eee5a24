package user_repo

import (
	"context"

	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
)

type UserRepoContract interface {
	// FindUsersByIDs returns the public fields of every known id; unknown ids are absent from the map.
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]*entity.User, *app_error.AppError)
}
