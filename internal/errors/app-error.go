package app_error

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind classifies an AppError independently of the transport status.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindNotFound       Kind = "NOT_FOUND"
	KindAuthentication Kind = "AUTHENTICATION_FAILED"
	KindUpstream       Kind = "UPSTREAM_ERROR"
	KindRateLimit      Kind = "TOO_MANY_REQUESTS"
	KindForbidden      Kind = "FORBIDDEN"
	KindUnavailable    Kind = "SERVICE_UNAVAILABLE"
)

type AppError struct {
	Code    int    `json:"-"`
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// JSON writes the bare error as the response. Used where no request envelope
// applies, such as a refused websocket handshake.
func (e *AppError) JSON(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	return json.NewEncoder(w).Encode(e)
}

// NewAppError derives the kind from the HTTP status.
func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: msg,
		Field:   field,
	}
}

func NewValidationError(msg, field string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: msg, Field: field}
}

func NewNotFoundError(msg, field string) *AppError {
	return &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: msg, Field: field}
}

func NewAuthenticationError(msg, field string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: msg, Field: field}
}

func NewUpstreamError(msg, field string, cause error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Kind: KindUpstream, Message: msg, Field: field, Cause: cause}
}

func NewRateLimitError(msg string) *AppError {
	return &AppError{Code: http.StatusTooManyRequests, Kind: KindRateLimit, Message: msg}
}

// IsKind reports whether err is, or wraps, an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindUpstream
	}
}
