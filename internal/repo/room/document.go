package room_repo

import (
	"strings"
	"time"

	"github.com/xenn00/chat-rooms/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type roomDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Creator      string        `bson:"creator"`
	Participants []string      `bson:"participants"`
	Password     string        `bson:"password,omitempty"`
	HasPassword  bool          `bson:"hasPassword"`
	CreatedAt    time.Time     `bson:"createdAt"`
}

// encodeRoomName is applied on every write.
func encodeRoomName(name string) string {
	return entity.NormalizeRoomName(name)
}

// decodeRoomName is applied on every read.
func decodeRoomName(name string) string {
	return strings.TrimSpace(name)
}

func encodeRoom(room *entity.Room) (roomDocument, error) {
	doc := roomDocument{
		Name:         encodeRoomName(room.Name),
		Creator:      room.Creator,
		Participants: room.Participants,
		Password:     room.Password,
		HasPassword:  room.Password != "",
		CreatedAt:    room.CreatedAt.UTC(),
	}
	if doc.Participants == nil {
		doc.Participants = []string{}
	}

	if room.ID != "" {
		oid, err := bson.ObjectIDFromHex(room.ID)
		if err != nil {
			return roomDocument{}, err
		}
		doc.ID = oid
	}
	return doc, nil
}

func decodeRoom(doc roomDocument) *entity.Room {
	participants := doc.Participants
	if participants == nil {
		participants = []string{}
	}

	return &entity.Room{
		ID:           doc.ID.Hex(),
		Name:         decodeRoomName(doc.Name),
		Creator:      doc.Creator,
		Participants: participants,
		Password:     doc.Password,
		HasPassword:  doc.HasPassword || doc.Password != "",
		CreatedAt:    doc.CreatedAt,
	}
}
