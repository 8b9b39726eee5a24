package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-rooms/config"
	"github.com/xenn00/chat-rooms/internal/dtos"
	app_error "github.com/xenn00/chat-rooms/internal/errors"
	"github.com/xenn00/chat-rooms/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

// WrapHandler renders a returned AppError as the failure envelope. Causes are
// only exposed in development.
func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			reqID := middleware.GetRequestId(r)
			if app_error.IsKind(err, app_error.KindUpstream) {
				log.Error().Err(err).Str("requestID", reqID).Str("kind", string(err.Kind)).Msg("request failed")
			} else {
				log.Debug().Err(err).Str("requestID", reqID).Str("kind", string(err.Kind)).Msg("request rejected")
			}
			WriteJSON(w, err.Code, dtos.NewErrorResponse(err, reqID, config.IsDevelopment()))
		}
	}
}

func CreateResponse[T any](message string, data T, requestId string) dtos.Response[T] {
	return dtos.Response[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestId,
	}
}
