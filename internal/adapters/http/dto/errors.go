// Package dto holds the request and response shapes of the HTTP surface.
package dto

import "net/http"

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail is the machine-readable part of the envelope. Details maps
// field names to messages for validation failures.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound   = "NOT_FOUND"
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeBadRequest = "BAD_REQUEST"
	ErrorCodeInternal   = "INTERNAL_ERROR"

	// ErrorCodeUnavailable is returned when the request has no context
	// engine, or a downstream the request needs is down.
	ErrorCodeUnavailable = "SERVICE_UNAVAILABLE"

	// ErrorCodeProviderFailed is returned when a context provider aborted
	// the resolution pass.
	ErrorCodeProviderFailed = "PROVIDER_FAILED"
)

var statusByCode = map[string]int{
	ErrorCodeNotFound:       http.StatusNotFound,
	ErrorCodeValidation:     http.StatusBadRequest,
	ErrorCodeBadRequest:     http.StatusBadRequest,
	ErrorCodeUnavailable:    http.StatusServiceUnavailable,
	ErrorCodeProviderFailed: http.StatusBadGateway,
	ErrorCodeInternal:       http.StatusInternalServerError,
}

// HTTPStatusFromCode returns the status for code. Unknown codes are 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NewErrorResponse creates an envelope for code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// WithDetails sets the per-field messages. An empty map is dropped.
func (e *ErrorResponse) WithDetails(details map[string]string) *ErrorResponse {
	if len(details) > 0 {
		e.Error.Details = details
	}

	return e
}

// WithTraceID sets the trace ID echoed to the caller.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}
