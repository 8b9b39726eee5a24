package room_service

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/dtos/room_dto"
	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/metrics"
	"github.com/xenn00/chat-rooms/internal/notifier"
	room_repo "github.com/xenn00/chat-rooms/internal/repo/room"
	user_repo "github.com/xenn00/chat-rooms/internal/repo/user"
	"github.com/xenn00/chat-rooms/internal/utils"
	"github.com/xenn00/chat-rooms/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RoomService struct {
	Rooms    room_repo.RoomRepoContract
	Users    user_repo.UserRepoContract
	Cache    Cache
	Notifier notifier.Notifier
	TTL      time.Duration
	Now      func() time.Time
}

func NewRoomService(appState *state.AppState, n notifier.Notifier) RoomServiceContract {
	ttl := DefaultCacheTTLSeconds
	if config.Conf != nil && config.Conf.CACHE.TTLSeconds > 0 {
		ttl = config.Conf.CACHE.TTLSeconds
	}

	return &RoomService{
		Rooms:    room_repo.NewRoomRepo(appState),
		Users:    user_repo.NewUserRepo(appState),
		Cache:    appState.Cache,
		Notifier: n,
		TTL:      time.Duration(ttl) * time.Second,
		Now:      time.Now,
	}
}

func (s *RoomService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RoomService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultCacheTTLSeconds * time.Second
}

func (s *RoomService) ListRooms(ctx context.Context, req room_dto.ListRoomsRequest, viewerID string) (*room_dto.RoomListResponse, *app_error.AppError) {
	q := normalizeListQuery(req.Page, req.PageSize, req.SortField, req.SortOrder, req.Search)
	key := listCacheKey(q)

	var cached room_dto.RoomListResponse
	if s.readCache(ctx, "list", key, &cached) {
		return listWithViewer(cached, viewerID), nil
	}

	filter := entity.RoomFilter{Search: q.search}
	total, err := s.Rooms.CountRooms(ctx, filter)
	if err != nil {
		return nil, err
	}

	rooms, err := s.Rooms.FindRooms(ctx, filter, entity.RoomPageQuery{
		Page:      q.page,
		PageSize:  q.pageSize,
		SortField: sortFields[q.sortField],
		SortDesc:  q.sortOrder == orderDesc,
	})
	if err != nil {
		return nil, err
	}

	users, err := s.resolveUsers(ctx, rooms...)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := room_dto.RoomListResponse{
		Rooms:    make([]room_dto.RoomResponse, 0, len(rooms)),
		Metadata: paginationMetadata(q, total, len(rooms)),
	}
	for _, r := range rooms {
		list.Rooms = append(list.Rooms, buildProjection(r, users, now))
	}

	s.writeCache(ctx, key, list)
	return listWithViewer(list, viewerID), nil
}

func (s *RoomService) CreateRoom(ctx context.Context, req room_dto.CreateRoomRequest, creatorID string) (*room_dto.RoomResponse, *app_error.AppError) {
	// same normalisation the store applies, so a control-character-only name is blank too
	name := entity.NormalizeRoomName(req.Name)
	if name == "" {
		return nil, app_error.NewValidationError("room name is required", "name")
	}

	room := &entity.Room{
		Name:         name,
		Creator:      creatorID,
		Participants: []string{creatorID},
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	if req.Password != "" {
		hashed, err := utils.GenerateHash(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("failed to hash room password")
			return nil, app_error.NewUpstreamError("failed to create room", "password", err)
		}
		room.Password = hashed
	}

	if err := s.Rooms.InsertRoom(ctx, room); err != nil {
		return nil, err
	}
	metrics.RoomsCreated.Inc()

	users, err := s.resolveUsers(ctx, room)
	if err != nil {
		return nil, err
	}

	resp := buildProjection(room, users, s.now())
	s.Notifier.Publish(ctx, notifier.RoomListTopic, notifier.EventRoomCreated, resp)

	log.Info().Str("roomID", resp.ID).Str("creatorID", creatorID).Bool("hasPassword", resp.HasPassword).Msg("room created")

	// the list cache is left to expire on its own
	out := withViewer(resp, creatorID)
	return &out, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID, viewerID string) (*room_dto.RoomResponse, *app_error.AppError) {
	key := roomCacheKey(roomID)

	var cached room_dto.RoomResponse
	if s.readCache(ctx, "room", key, &cached) {
		out := withViewer(cached, viewerID)
		return &out, nil
	}

	room, err := s.Rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	users, err := s.resolveUsers(ctx, room)
	if err != nil {
		return nil, err
	}

	resp := buildProjection(room, users, s.now())
	s.writeCache(ctx, key, resp)

	out := withViewer(resp, viewerID)
	return &out, nil
}

func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID string, req room_dto.JoinRoomRequest) (*room_dto.RoomResponse, *app_error.AppError) {
	room, err := s.Rooms.FindRoomWithSecret(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if !CheckPassword(room, req.Password) {
		metrics.RoomJoins.WithLabelValues("denied").Inc()
		log.Warn().Str("roomID", roomID).Str("userID", userID).Msg("room join denied: password mismatch")
		return nil, app_error.NewAuthenticationError("incorrect room password", "password")
	}

	outcome := "rejoined"
	if !room.HasParticipant(userID) {
		// atomic $addToSet, concurrent joins never lose a member
		room, err = s.Rooms.AddParticipant(ctx, roomID, userID)
		if err != nil {
			return nil, err
		}
		outcome = "joined"
	}
	room.Password = ""
	metrics.RoomJoins.WithLabelValues(outcome).Inc()

	users, err := s.resolveUsers(ctx, room)
	if err != nil {
		return nil, err
	}

	resp := buildProjection(room, users, s.now())
	s.Notifier.Publish(ctx, roomID, notifier.EventRoomUpdate, resp)

	// refreshed only after the store write above has returned
	s.writeCache(ctx, roomCacheKey(roomID), resp)

	out := withViewer(resp, userID)
	return &out, nil
}

func (s *RoomService) Health(ctx context.Context) *room_dto.HealthResponse {
	resp := &room_dto.HealthResponse{
		Success:   true,
		Timestamp: s.now().UTC(),
	}

	latency, err := s.Rooms.Ping(ctx)
	if err != nil {
		log.Error().Err(err).Msg("health check: room store unreachable")
		return resp
	}
	metrics.StoreLatency.Observe(latency.Seconds())
	resp.Database = room_dto.DatabaseHealth{Connected: true, LatencyMs: latency.Milliseconds()}

	last, appErr := s.Rooms.LatestActivity(ctx)
	if appErr != nil {
		log.Warn().Err(appErr).Msg("health check: failed to read last activity")
	}
	resp.LastActivity = last

	return resp
}

func (s *RoomService) resolveUsers(ctx context.Context, rooms ...*entity.Room) (map[string]*entity.User, *app_error.AppError) {
	ids := referencedUsers(rooms...)
	if len(ids) == 0 || s.Users == nil {
		return map[string]*entity.User{}, nil
	}
	return s.Users.FindUsersByIDs(ctx, ids)
}

// readCache reports a hit only when the entry exists and decodes. Backend
// errors degrade to a miss so the store stays reachable.
func (s *RoomService) readCache(ctx context.Context, scope, key string, dst any) bool {
	raw, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues(scope, "error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
		return false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues(scope, "miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		metrics.CacheLookups.WithLabelValues(scope, "error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	metrics.CacheLookups.WithLabelValues(scope, "hit").Inc()
	return true
}

func (s *RoomService) writeCache(ctx context.Context, key string, value any) {
	if err := s.Cache.Set(ctx, key, value, s.ttl()); err != nil {
		metrics.CacheWriteFailures.Inc()
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
