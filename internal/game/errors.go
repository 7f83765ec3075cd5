package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("game not found")
	ErrAlreadyStarted  = errors.New("game has already started")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrInvalidState    = errors.New("invalid game state")
	ErrNoQuestions     = errors.New("no questions available")
	ErrCreation        = errors.New("failed to create game")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPersistence     = errors.New("persistence failure")
	ErrDuplicateAnswer = errors.New("answer already submitted")
)

// PersistenceError wraps a failure of the backing store or a content
// repository. errors.Is(err, ErrPersistence) holds for every PersistenceError.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func invalidState(op, status string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, op, status)
}
