package room_service

import (
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/entity"
	"github.com/xenn00/chat-rooms/internal/utils"
)

// CheckPassword admits anyone into an open room. Protected rooms compare the
// supplied password against the stored argon2id hash in constant time.
func CheckPassword(room *entity.Room, supplied string) bool {
	if !room.HasPassword {
		return true
	}
	if room.Password == "" {
		// flagged as protected but no hash was loaded: fail closed
		return false
	}

	ok, err := utils.VerifyHash(room.Password, supplied)
	if err != nil {
		log.Error().Err(err).Str("roomID", room.ID).Msg("stored room password hash is unreadable")
		return false
	}
	return ok
}
