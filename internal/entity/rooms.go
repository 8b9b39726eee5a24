package entity

import (
	"strings"
	"time"
	"unicode"
)

const MaxRoomNameRunes = 100

// Room is the directory entry for a chat room. Password holds the argon2id
// hash and is only populated by the secret-aware store reads.
type Room struct {
	ID           string
	Name         string
	Creator      string
	Participants []string
	Password     string
	HasPassword  bool
	CreatedAt    time.Time
}

// NormalizeRoomName trims, drops control characters and caps the length.
// An empty result means the name is blank.
func NormalizeRoomName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	if runes := []rune(name); len(runes) > MaxRoomNameRunes {
		name = string(runes[:MaxRoomNameRunes])
	}
	return strings.TrimSpace(name)
}

func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type RoomFilter struct {
	// Search is matched as a literal, case-insensitive substring of the name.
	Search string
}

type RoomPageQuery struct {
	Page      int
	PageSize  int
	SortField string
	SortDesc  bool
}
