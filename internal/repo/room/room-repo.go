package room_repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/state"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const roomsCollection = "rooms"

var hidePassword = bson.M{"password": 0}

type RoomRepo struct {
	AppState   *state.AppState
	collection *mongo.Collection
}

func NewRoomRepo(appState *state.AppState) RoomRepoContract {
	return &RoomRepo{
		AppState:   appState,
		collection: appState.Mongo.Database(appState.MongoDatabase).Collection(roomsCollection),
	}
}

// EnsureIndexes creates the indexes backing the list sort and search.
func (r *RoomRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	return err
}

func buildFilter(filter entity.RoomFilter) bson.M {
	if filter.Search == "" {
		return bson.M{}
	}
	return bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}}
}

func (r *RoomRepo) CountRooms(ctx context.Context, filter entity.RoomFilter) (int64, *app_error.AppError) {
	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")
		return 0, app_error.NewUpstreamError("failed to count rooms", "mongo", err)
	}
	return count, nil
}

func (r *RoomRepo) FindRooms(ctx context.Context, filter entity.RoomFilter, page entity.RoomPageQuery) ([]*entity.Room, *app_error.AppError) {
	dir := 1
	if page.SortDesc {
		dir = -1
	}

	// _id breaks ties so identical queries return identical order
	opts := options.Find().
		SetSort(bson.D{{Key: page.SortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(page.Page * page.PageSize)).
		SetLimit(int64(page.PageSize)).
		SetProjection(hidePassword)

	cur, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		log.Error().Err(err).Msg("failed to query rooms")
		return nil, app_error.NewUpstreamError("failed to fetch rooms", "mongo", err)
	}
	defer cur.Close(ctx)

	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, app_error.NewUpstreamError("failed to decode rooms", "mongo", err)
	}

	rooms := make([]*entity.Room, 0, len(docs))
	for _, doc := range docs {
		rooms = append(rooms, decodeRoom(doc))
	}
	return rooms, nil
}

func (r *RoomRepo) FindRoomByID(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	return r.findOne(ctx, roomID, options.FindOne().SetProjection(hidePassword))
}

func (r *RoomRepo) FindRoomWithSecret(ctx context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	return r.findOne(ctx, roomID, options.FindOne())
}

func (r *RoomRepo) findOne(ctx context.Context, roomID string, opts *options.FindOneOptionsBuilder) (*entity.Room, *app_error.AppError) {
	oid, err := bson.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, app_error.NewNotFoundError("room not found", "room-id")
	}

	var doc roomDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app_error.NewNotFoundError("room not found", "room-id")
		}
		log.Error().Err(err).Str("roomID", roomID).Msg("failed to fetch room")
		return nil, app_error.NewUpstreamError("failed to fetch room", "mongo", err)
	}
	return decodeRoom(doc), nil
}

func (r *RoomRepo) InsertRoom(ctx context.Context, room *entity.Room) *app_error.AppError {
	doc, err := encodeRoom(room)
	if err != nil {
		return app_error.NewValidationError("invalid room id", "room-id")
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		log.Error().Err(err).Msg("failed to insert room")
		return app_error.NewUpstreamError("failed to create room", "mongo", err)
	}

	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		room.ID = oid.Hex()
	}
	room.Name = doc.Name
	room.HasPassword = doc.HasPassword
	return nil
}

func (r *RoomRepo) AddParticipant(ctx context.Context, roomID, userID string) (*entity.Room, *app_error.AppError) {
	oid, err := bson.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, app_error.NewNotFoundError("room not found", "room-id")
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(hidePassword)

	var doc roomDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"participants": userID}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app_error.NewNotFoundError("room not found", "room-id")
		}
		log.Error().Err(err).Str("roomID", roomID).Str("userID", userID).Msg("failed to add participant")
		return nil, app_error.NewUpstreamError("failed to join room", "mongo", err)
	}
	return decodeRoom(doc), nil
}

func (r *RoomRepo) LatestActivity(ctx context.Context) (*time.Time, *app_error.AppError) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"createdAt": 1})

	var doc roomDocument
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, app_error.NewUpstreamError("failed to read last activity", "mongo", err)
	}
	return &doc.CreatedAt, nil
}

// Ping checks the connection and measures a minimal round trip against the collection.
func (r *RoomRepo) Ping(ctx context.Context) (time.Duration, error) {
	if err := r.AppState.Mongo.Ping(ctx, nil); err != nil {
		return 0, err
	}

	start := time.Now()
	err := r.collection.FindOne(ctx, bson.M{}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}
	return time.Since(start), nil
}
