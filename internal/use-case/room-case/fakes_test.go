package room_service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-rooms/internal/cache"
	"github.com/xenn00/chat-rooms/internal/entity"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// memoryRooms is an in-memory room store with per-method call counters.
type memoryRooms struct {
	mu      sync.Mutex
	rooms   map[string]*entity.Room
	order   []string
	seq     int
	calls   map[string]int
	pingErr error
}

func newMemoryRooms() *memoryRooms {
	return &memoryRooms{rooms: map[string]*entity.Room{}, calls: map[string]int{}}
}

func cloneRoom(r *entity.Room, withSecret bool) *entity.Room {
	c := *r
	c.Participants = append([]string(nil), r.Participants...)
	if !withSecret {
		c.Password = ""
	}
	return &c
}

func (m *memoryRooms) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memoryRooms) storeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *memoryRooms) seed(name, creator string, createdAt time.Time, participants ...string) *entity.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r := &entity.Room{
		ID:           fmt.Sprintf("room-%03d", m.seq),
		Name:         name,
		Creator:      creator,
		Participants: append([]string{creator}, participants...),
		CreatedAt:    createdAt,
	}
	m.rooms[r.ID] = r
	m.order = append(m.order, r.ID)
	return cloneRoom(r, false)
}

func (m *memoryRooms) matching(filter entity.RoomFilter) []*entity.Room {
	var out []*entity.Room
	for _, id := range m.order {
		r := m.rooms[id]
		if filter.Search == "" || strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			out = append(out, r)
		}
	}
	return out
}

func (m *memoryRooms) CountRooms(_ context.Context, filter entity.RoomFilter) (int64, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CountRooms"]++
	return int64(len(m.matching(filter))), nil
}

func (m *memoryRooms) FindRooms(_ context.Context, filter entity.RoomFilter, page entity.RoomPageQuery) ([]*entity.Room, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindRooms"]++

	rooms := m.matching(filter)
	sort.SliceStable(rooms, func(i, j int) bool {
		a, b := rooms[i], rooms[j]
		less := a.CreatedAt.Before(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID < b.ID)
		if page.SortField == "name" {
			less = a.Name < b.Name || (a.Name == b.Name && a.ID < b.ID)
		}
		if page.SortDesc {
			return !less
		}
		return less
	})

	start := min(page.Page*page.PageSize, len(rooms))
	end := min(start+page.PageSize, len(rooms))
	out := make([]*entity.Room, 0, end-start)
	for _, r := range rooms[start:end] {
		out = append(out, cloneRoom(r, false))
	}
	return out, nil
}

func (m *memoryRooms) find(roomID string, withSecret bool) (*entity.Room, *app_error.AppError) {
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, app_error.NewNotFoundError("room not found", "room-id")
	}
	return cloneRoom(r, withSecret), nil
}

func (m *memoryRooms) FindRoomByID(_ context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindRoomByID"]++
	return m.find(roomID, false)
}

func (m *memoryRooms) FindRoomWithSecret(_ context.Context, roomID string) (*entity.Room, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindRoomWithSecret"]++
	return m.find(roomID, true)
}

func (m *memoryRooms) InsertRoom(_ context.Context, room *entity.Room) *app_error.AppError {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["InsertRoom"]++
	m.seq++
	room.ID = fmt.Sprintf("room-%03d", m.seq)
	room.HasPassword = room.Password != ""
	m.rooms[room.ID] = cloneRoom(room, true)
	m.order = append(m.order, room.ID)
	return nil
}

func (m *memoryRooms) AddParticipant(_ context.Context, roomID, userID string) (*entity.Room, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["AddParticipant"]++
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, app_error.NewNotFoundError("room not found", "room-id")
	}
	if !r.HasParticipant(userID) {
		r.Participants = append(r.Participants, userID)
	}
	return cloneRoom(r, false), nil
}

func (m *memoryRooms) LatestActivity(_ context.Context) (*time.Time, *app_error.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *time.Time
	for _, r := range m.rooms {
		if latest == nil || r.CreatedAt.After(*latest) {
			t := r.CreatedAt
			latest = &t
		}
	}
	return latest, nil
}

func (m *memoryRooms) Ping(context.Context) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pingErr != nil {
		return 0, m.pingErr
	}
	return 3 * time.Millisecond, nil
}

type memoryUsers map[string]*entity.User

func (u memoryUsers) FindUsersByIDs(_ context.Context, ids []string) (map[string]*entity.User, *app_error.AppError) {
	out := make(map[string]*entity.User)
	for _, id := range ids {
		if user, ok := u[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

type published struct {
	Topic   string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(_ context.Context, topic, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{Topic: topic, Event: event, Payload: payload})
}

func (n *recordingNotifier) all() []published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]published(nil), n.events...)
}

type fixture struct {
	svc      *RoomService
	rooms    *memoryRooms
	notifier *recordingNotifier
	cache    *cache.Client
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewClient(cache.Options{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = c.Close() })

	rooms := newMemoryRooms()
	n := &recordingNotifier{}
	svc := &RoomService{
		Rooms: rooms,
		Users: memoryUsers{
			"alice": {ID: "alice", Username: "Alice", Email: "alice@example.com"},
			"bob":   {ID: "bob", Username: "Bob", Email: "bob@example.com"},
		},
		Cache:    c,
		Notifier: n,
		TTL:      300 * time.Second,
		Now:      func() time.Time { return fixedNow },
	}
	return &fixture{svc: svc, rooms: rooms, notifier: n, cache: c, mr: mr}
}

func requireKind(t *testing.T, err *app_error.AppError, kind app_error.Kind) {
	t.Helper()
	require.NotNil(t, err)
	require.Equal(t, kind, err.Kind)
}
