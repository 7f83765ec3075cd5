package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQuestions struct {
	items   []*models.Question
	created int
}

func (m *memQuestions) List(ctx context.Context, category string) ([]*models.Question, error) {
	return m.items, nil
}

func (m *memQuestions) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	return orderByIDs(m.items, ids), nil
}

func (m *memQuestions) Create(ctx context.Context, q *models.Question) error {
	m.created++
	q.ID = fmt.Sprintf("seed-%d", m.created)
	m.items = append(m.items, q)
	return nil
}

func (m *memQuestions) Count(ctx context.Context) (int, error) {
	return len(m.items), nil
}

type memQuizzes struct {
	byID map[string]*models.Quiz
}

func (m *memQuizzes) Get(ctx context.Context, id string) (*models.Quiz, error) {
	if q, ok := m.byID[id]; ok {
		return q, nil
	}
	return nil, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
}

func (m *memQuizzes) Count(ctx context.Context) (int, error) {
	return len(m.byID), nil
}

type memCategories struct {
	items []*models.Category
}

func (m *memCategories) Create(ctx context.Context, c *models.Category) error {
	m.items = append(m.items, c)
	return nil
}

func (m *memCategories) Count(ctx context.Context) (int, error) {
	return len(m.items), nil
}

type memHistory struct {
	games, players int
	err            error
}

func (m *memHistory) Create(ctx context.Context, entry *models.HistoryEntry) error { return nil }

func (m *memHistory) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (m *memHistory) Totals(ctx context.Context) (int, int, error) {
	return m.games, m.players, m.err
}

func bank(ids ...string) []*models.Question {
	qs := make([]*models.Question, len(ids))
	for i, id := range ids {
		qs[i] = &models.Question{ID: id, Text: "Question " + id}
	}
	return qs
}

func TestOrderByIDsSkipsMissing(t *testing.T) {
	found := bank("c", "a", "b")
	ordered := orderByIDs(found, []string{"b", "zzz", "a"})
	require.Len(t, ordered, 2)
	assert.Equal(t, "b", ordered[0].ID)
	assert.Equal(t, "a", ordered[1].ID)
}

func TestContentSourceQuizQuestions(t *testing.T) {
	ctx := context.Background()
	questions := &memQuestions{items: bank("q1", "q2", "q3")}
	quizzes := &memQuizzes{byID: map[string]*models.Quiz{
		"xmas": {ID: "xmas", QuestionIDs: []string{"q3", "deleted", "q1"}},
	}}
	src := NewContentSource(questions, quizzes)

	got, err := src.QuizQuestions(ctx, "xmas")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q3", got[0].ID)
	assert.Equal(t, "q1", got[1].ID)

	got, err = src.QuizQuestions(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := src.AllQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedDefaultsOnlyFillsEmptyStores(t *testing.T) {
	ctx := context.Background()
	categories := &memCategories{}
	questions := &memQuestions{}

	require.NoError(t, SeedDefaults(ctx, categories, questions))
	assert.Len(t, categories.items, len(defaultCategories))
	assert.Len(t, questions.items, len(sampleQuestions()))

	types := map[string]bool{}
	for _, q := range questions.items {
		types[q.QuestionType] = true
	}
	for _, typ := range []string{
		constants.QuestionTypeQuiz,
		constants.QuestionTypeTrueFalse,
		constants.QuestionTypeType,
		constants.QuestionTypeSlider,
		constants.QuestionTypeOrder,
	} {
		assert.True(t, types[typ], "missing sample of type %s", typ)
	}

	require.NoError(t, SeedDefaults(ctx, categories, questions))
	assert.Len(t, categories.items, len(defaultCategories))
	assert.Len(t, questions.items, len(sampleQuestions()))
}

func TestStatsReader(t *testing.T) {
	ctx := context.Background()
	questions := &memQuestions{items: bank("q1", "q2")}
	quizzes := &memQuizzes{byID: map[string]*models.Quiz{"a": {}}}

	stats, err := NewStatsReader(questions, quizzes, &memHistory{games: 4, players: 19}).Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Statistics{TotalGames: 4, TotalPlayers: 19, TotalQuestions: 2, TotalQuizzes: 1}, stats)

	_, err = NewStatsReader(questions, quizzes, &memHistory{err: errors.New("down")}).Statistics(ctx)
	assert.Error(t, err)
}

func TestHistoryLimit(t *testing.T) {
	assert.Equal(t, constants.DefaultHistoryLimit, historyLimit(0))
	assert.Equal(t, constants.DefaultHistoryLimit, historyLimit(-5))
	assert.Equal(t, 3, historyLimit(3))
}
