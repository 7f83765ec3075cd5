package repository

import (
	"context"
	"fmt"

	"quizmas-service/internal/models"
)

type counter interface {
	Count(ctx context.Context) (int, error)
}

// StatsReader aggregates content counts and play totals.
type StatsReader struct {
	questions counter
	quizzes   counter
	history   HistoryStore
}

func NewStatsReader(questions, quizzes counter, history HistoryStore) *StatsReader {
	return &StatsReader{questions: questions, quizzes: quizzes, history: history}
}

func (s *StatsReader) Statistics(ctx context.Context) (*models.Statistics, error) {
	questions, err := s.questions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	quizzes, err := s.quizzes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count quizzes: %w", err)
	}
	games, players, err := s.history.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("history totals: %w", err)
	}
	return &models.Statistics{
		TotalGames:     games,
		TotalPlayers:   players,
		TotalQuestions: questions,
		TotalQuizzes:   quizzes,
	}, nil
}
