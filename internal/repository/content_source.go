package repository

import (
	"context"
	"errors"

	"quizmas-service/internal/models"

	log "github.com/sirupsen/logrus"
)

type questionLister interface {
	List(ctx context.Context, category string) ([]*models.Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error)
}

type quizGetter interface {
	Get(ctx context.Context, id string) (*models.Quiz, error)
}

// ContentSource resolves the question set a game is drawn from.
type ContentSource struct {
	questions questionLister
	quizzes   quizGetter
}

func NewContentSource(questions questionLister, quizzes quizGetter) *ContentSource {
	return &ContentSource{questions: questions, quizzes: quizzes}
}

// QuizQuestions returns the quiz's questions in its stored order. An unknown
// quiz yields no questions so the caller can fall back to the full pool.
func (c *ContentSource) QuizQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	quiz, err := c.quizzes.Get(ctx, quizID)
	if errors.Is(err, ErrNotFound) {
		log.WithField("quiz_id", quizID).Warn("Quiz not found, using full question pool")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	found, err := c.questions.GetByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if missing := len(quiz.QuestionIDs) - len(found); missing > 0 {
		log.WithField("quiz_id", quizID).Warnf("Skipping %d missing questions", missing)
	}
	return deref(found), nil
}

func (c *ContentSource) AllQuestions(ctx context.Context) ([]models.Question, error) {
	found, err := c.questions.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return deref(found), nil
}

func deref(qs []*models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		out[i] = *q
	}
	return out
}
