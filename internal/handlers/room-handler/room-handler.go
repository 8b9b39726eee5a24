package room_handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/xenn00/chat-rooms/internal/dtos/room_dto"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/handlers"
	"github.com/xenn00/chat-rooms/internal/middleware"
	"github.com/xenn00/chat-rooms/internal/notifier"
	room_service "github.com/xenn00/chat-rooms/internal/use-case/room-case"
	"github.com/xenn00/chat-rooms/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 16 << 10

type RoomHandler struct {
	Validate *validator.Validate
	Service  room_service.RoomServiceContract
}

func NewRoomHandler(state *state.AppState, n notifier.Notifier) *RoomHandler {
	return &RoomHandler{
		Validate: validator.New(),
		Service:  room_service.NewRoomService(state, n),
	}
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func currentUser(r *http.Request) (string, *app_error.AppError) {
	userID, ok := middleware.GetUserId(r)
	if !ok {
		return "", app_error.NewAuthenticationError("user id is not found in context", "context")
	}
	return userID, nil
}

// decodeBody accepts an empty body as the zero request.
func (h *RoomHandler) decodeBody(r *http.Request, dst any) *app_error.AppError {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return app_error.NewValidationError("Invalid body", "body")
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, dst); err != nil {
			return app_error.NewValidationError("Invalid JSON", "body")
		}
	}
	if err := h.Validate.Struct(dst); err != nil {
		return app_error.NewValidationError(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}
	return nil
}

func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := currentUser(r)
	if err != nil {
		return err
	}

	q := r.URL.Query()
	resp, err := h.Service.ListRooms(r.Context(), room_dto.ListRoomsRequest{
		Page:      queryInt(r, "page"),
		PageSize:  queryInt(r, "pageSize"),
		SortField: q.Get("sortField"),
		SortOrder: q.Get("sortOrder"),
		Search:    q.Get("search"),
	}, userID)
	if err != nil {
		return err
	}

	body := handlers.CreateResponse("", resp.Rooms, middleware.GetRequestId(r))
	body.Metadata = resp.Metadata
	handlers.WriteJSON(w, http.StatusOK, body)
	return nil
}

func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := currentUser(r)
	if err != nil {
		return err
	}

	var req room_dto.CreateRoomRequest
	if err := h.decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.Service.CreateRoom(r.Context(), req, userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusCreated, handlers.CreateResponse("room created", *resp, middleware.GetRequestId(r)))
	return nil
}

func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := currentUser(r)
	if err != nil {
		return err
	}

	resp, err := h.Service.GetRoom(r.Context(), chi.URLParam(r, "roomId"), userID)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("", *resp, middleware.GetRequestId(r)))
	return nil
}

func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, err := currentUser(r)
	if err != nil {
		return err
	}

	var req room_dto.JoinRoomRequest
	if err := h.decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.Service.JoinRoom(r.Context(), chi.URLParam(r, "roomId"), userID, req)
	if err != nil {
		return err
	}

	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("joined room", *resp, middleware.GetRequestId(r)))
	return nil
}

// Health is never cached by clients or proxies.
func (h *RoomHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := h.Service.Health(r.Context())

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	status := http.StatusOK
	if !resp.Database.Connected {
		status = http.StatusServiceUnavailable
	}
	handlers.WriteJSON(w, status, resp)
}
