package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roach88/attune/internal/engine"
	"github.com/roach88/attune/internal/logging"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func statusFor(kind engine.ErrorKind) int {
	switch kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindInsufficientData:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps an engine error to its status. Internal errors are
// logged and their detail withheld from the client.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := engine.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.For(c.Request.Context(), s.logger).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{
		Message: msg,
		Code:    string(kind),
		Field:   engine.Field(err),
	}})
}

func badRequest(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{
		Message: msg,
		Code:    string(engine.KindValidation),
		Field:   field,
	}})
}
