package user_repo

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/state"
)

type UserRepo struct {
	AppState *state.AppState
}

func NewUserRepo(appState *state.AppState) UserRepoContract {
	return &UserRepo{
		AppState: appState,
	}
}

func (r *UserRepo) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*entity.User, *app_error.AppError) {
	result := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*entity.User
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.User{}).
		Select("id", "username", "email").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		log.Error().Err(err).Int("ids", len(ids)).Msg("failed to resolve users")
		return nil, app_error.NewUpstreamError("failed to resolve room members", "db-error", err)
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
