package websocket

import (
	"errors"

	"quizmas-service/internal/game"
)

const (
	codeNotFound       = "not_found"
	codeAlreadyStarted = "already_started"
	codeNotAuthorized  = "not_authorized"
	codeInvalidState   = "invalid_state"
	codeNoQuestions    = "no_questions"
	codeCreationFailed = "creation_failed"
	codeInvalidInput   = "invalid_input"
	codePersistence    = "persistence"
	codeUnknownMessage = "unknown_message"
	codeInternal       = "internal"
)

// errorCode maps a session error to the stable code sent to clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrCreation):
		return codeCreationFailed
	case errors.Is(err, game.ErrNotFound):
		return codeNotFound
	case errors.Is(err, game.ErrAlreadyStarted):
		return codeAlreadyStarted
	case errors.Is(err, game.ErrNotAuthorized):
		return codeNotAuthorized
	case errors.Is(err, game.ErrInvalidState):
		return codeInvalidState
	case errors.Is(err, game.ErrNoQuestions):
		return codeNoQuestions
	case errors.Is(err, game.ErrInvalidInput):
		return codeInvalidInput
	case errors.Is(err, game.ErrPersistence):
		return codePersistence
	default:
		return codeInternal
	}
}
