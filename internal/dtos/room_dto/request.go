package room_dto

type CreateRoomRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password,omitempty" validate:"omitempty,max=128"`
}

type JoinRoomRequest struct {
	Password string `json:"password,omitempty" validate:"omitempty,max=128"`
}

// ListRoomsRequest carries the raw query shape; the service normalises it.
type ListRoomsRequest struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder string
	Search    string
}
