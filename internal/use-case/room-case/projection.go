package room_service

import (
	"time"

	"github.com/xenn00/chat-rooms/internal/dtos/room_dto"
	"github.com/xenn00/chat-rooms/internal/entity"
)

const (
	untitledRoom   = "Untitled"
	unknownUser    = "Unknown"
	unknownID      = "unknown"
	placeholderStr = ""
)

// userSummary resolves a user reference; ids the user store does not know
// keep their id with a placeholder name.
func userSummary(id string, users map[string]*entity.User) room_dto.UserSummary {
	summary := room_dto.UserSummary{ID: id, Name: unknownUser, Email: placeholderStr}
	if id == "" {
		summary.ID = unknownID
		return summary
	}
	if u, ok := users[id]; ok && u != nil {
		if u.Username != "" {
			summary.Name = u.Username
		}
		summary.Email = u.Email
	}
	return summary
}

// buildProjection is the only way a room leaves the service. isCreator is
// left false; callers set it per viewer.
func buildProjection(room *entity.Room, users map[string]*entity.User, now time.Time) room_dto.RoomResponse {
	resp := room_dto.RoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		HasPassword:  room.HasPassword,
		Creator:      userSummary(room.Creator, users),
		Participants: make([]room_dto.UserSummary, 0, len(room.Participants)),
		CreatedAt:    room.CreatedAt,
	}

	if resp.ID == "" {
		resp.ID = unknownID
	}
	if resp.Name == "" {
		resp.Name = untitledRoom
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	for _, p := range room.Participants {
		resp.Participants = append(resp.Participants, userSummary(p, users))
	}
	resp.ParticipantsCount = len(resp.Participants)

	return resp
}

func withViewer(resp room_dto.RoomResponse, viewerID string) room_dto.RoomResponse {
	resp.IsCreator = viewerID != "" && resp.Creator.ID == viewerID
	return resp
}

func listWithViewer(list room_dto.RoomListResponse, viewerID string) *room_dto.RoomListResponse {
	rooms := make([]room_dto.RoomResponse, len(list.Rooms))
	for i, r := range list.Rooms {
		rooms[i] = withViewer(r, viewerID)
	}
	list.Rooms = rooms
	return &list
}

func referencedUsers(rooms ...*entity.Room) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, r := range rooms {
		add(r.Creator)
		for _, p := range r.Participants {
			add(p)
		}
	}
	return ids
}

func paginationMetadata(q listQuery, total int64, returned int) room_dto.PaginationMetadata {
	totalPages := 0
	if q.pageSize > 0 {
		totalPages = int((total + int64(q.pageSize) - 1) / int64(q.pageSize))
	}
	return room_dto.PaginationMetadata{
		Total:        total,
		Page:         q.page,
		PageSize:     q.pageSize,
		TotalPages:   totalPages,
		HasMore:      int64(q.page*q.pageSize+returned) < total,
		CurrentCount: returned,
		Sort: room_dto.SortMetadata{
			Field: q.sortField,
			Order: q.sortOrder,
		},
	}
}
