package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/voicebridge/internal/domain"
)

type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	ErrTypeValidation     = "validation_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypeNotFound       = "not_found_error"
	ErrTypeConflict       = "conflict_error"
	ErrTypeExternal       = "external_error"
	ErrTypeInternal       = "internal_error"
)

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConferenceFull):
		return http.StatusConflict, ErrTypeConflict
	case errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, domain.ErrSessionUnavailable), errors.Is(err, domain.ErrVendor):
		return http.StatusBadGateway, ErrTypeExternal
	}
	return http.StatusInternalServerError, ErrTypeInternal
}

// WriteError maps err to a status code and writes the JSON envelope.
func WriteError(c *gin.Context, err error) {
	status, typ := statusOf(err)
	writeError(c, status, typ, err.Error())
}

func writeError(c *gin.Context, status int, typ, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: &ErrorDetail{
		Message:   message,
		Type:      typ,
		RequestID: GetRequestID(c),
	}})
}
