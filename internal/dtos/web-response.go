package dtos

import app_error "github.com/xenn00/chat-rooms/internal/errors"

type Response[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      T      `json:"data"`
	Metadata  any    `json:"metadata,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Success   bool           `json:"success"`
	RequestID string         `json:"request_id,omitempty"`
	Error     *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse builds the failure envelope. The wrapped cause is only
// exposed when withDetails is set.
func NewErrorResponse(err *app_error.AppError, requestID string, withDetails bool) ErrorEnvelope {
	body := &ErrorResponse{
		Code:    string(err.Kind),
		Message: err.Message,
		Field:   err.Field,
	}
	if withDetails && err.Cause != nil {
		body.Details = err.Cause.Error()
	}
	return ErrorEnvelope{
		Success:   false,
		RequestID: requestID,
		Error:     body,
	}
}
