package handlers

import (
	"errors"
	"net/http"

	"quizmas-service/internal/game"
	"quizmas-service/internal/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func JsonError(c *gin.Context, status int, message ...string) {
	msg := ""
	if len(message) > 0 {
		msg = message[0]
	}

	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyStarted), errors.Is(err, game.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, game.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server side failures are
// logged and their detail is not returned.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithField("path", c.FullPath()).Errorf("Request failed: %v", err)
		JsonError(c, status)
		return
	}
	JsonError(c, status, err.Error())
}
