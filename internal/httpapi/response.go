package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/provider"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// ErrorKind classifies a failed request so clients need not parse messages.
type ErrorKind string

const (
	KindInvalidRequest   ErrorKind = "invalid_request"
	KindSessionNotFound  ErrorKind = "session_not_found"
	KindUnknownTopic     ErrorKind = "unknown_topic"
	KindGenerationFailed ErrorKind = "generation_failed"
	KindRateLimited      ErrorKind = "rate_limited"
	KindInternal         ErrorKind = "internal"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success   bool      `json:"success"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
}

func classify(err error) (ErrorKind, int) {
	var agentErr *orchestrate.AgentError
	var genErr *provider.GenerationError
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, session.ErrInvalidID):
		return KindInvalidRequest, http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return KindSessionNotFound, http.StatusNotFound
	case errors.Is(err, orchestrate.ErrUnknownTopic):
		return KindUnknownTopic, http.StatusUnprocessableEntity
	case errors.As(err, &agentErr), errors.As(err, &genErr):
		return KindGenerationFailed, http.StatusBadGateway
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited, http.StatusTooManyRequests
	default:
		return KindInternal, http.StatusInternalServerError
	}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func (s *Server) fail(c *gin.Context, err error, data any) {
	kind, status := classify(err)
	msg := err.Error()
	if kind == KindInternal {
		s.obs.Log().Error().Str("path", c.FullPath()).Err(err).Msg("request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, ErrorKind: kind, Message: msg, Data: data})
}
