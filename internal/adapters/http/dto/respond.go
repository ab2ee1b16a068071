package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// MapDomainError maps a domain error to an HTTP status and error envelope.
// Unknown errors become a 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusOK, nil

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.WithDetails(map[string]string{validationErr.Field: validationErr.Message})
		}

		return http.StatusBadRequest, resp

	case domain.IsProviderFailure(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeProviderFailed, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// GetTraceID returns the trace ID of the request's span, or "".
func GetTraceID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// HandleError writes the envelope for err. Internal errors are logged with
// their full message since the response hides it.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	if resp == nil {
		return
	}

	resp.WithTraceID(GetTraceID(c))

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "internal error",
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.JSON(status, resp)
}

// Abort stops the handler chain with an envelope for code.
func Abort(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// RespondValidation writes a 400 envelope carrying per-field messages.
func RespondValidation(c *gin.Context, err error) {
	resp := NewErrorResponse(ErrorCodeValidation, "request validation failed").
		WithDetails(ValidationErrors(err)).
		WithTraceID(GetTraceID(c))
	c.JSON(http.StatusBadRequest, resp)
}
