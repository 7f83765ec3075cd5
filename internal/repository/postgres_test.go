package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"quizmas-service/config"
	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
	"quizmas-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to the Postgres instance named by DB_TEST_HOST.
func newTestDB(t *testing.T) *database.PostgresClient {
	host := os.Getenv("DB_TEST_HOST")
	if host == "" {
		t.Skip("DB_TEST_HOST not set")
	}
	client, err := database.NewPostgresClient(&config.DBConfig{
		Host:     host,
		Port:     "5432",
		User:     os.Getenv("DB_TEST_USER"),
		Password: os.Getenv("DB_TEST_PASSWORD"),
		DBName:   os.Getenv("DB_TEST_NAME"),
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, client.InitSchema(context.Background()))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPostgresQuestionAndQuizRoundTrip(t *testing.T) {
	db := newTestDB(t).GetDB()
	ctx := context.Background()
	questions := NewQuestionRepository(db)
	quizzes := NewQuizRepository(db)

	slider := &models.Question{
		Text:          "How many days of Christmas?",
		QuestionType:  constants.QuestionTypeSlider,
		CorrectAnswer: json.RawMessage(`12`),
		SliderMin:     1,
		SliderMax:     31,
	}
	require.NoError(t, questions.Create(ctx, slider))
	t.Cleanup(func() { questions.Delete(context.Background(), slider.ID) })

	got, err := questions.Get(ctx, slider.ID)
	require.NoError(t, err)
	assert.Equal(t, slider.Text, got.Text)
	assert.JSONEq(t, `12`, string(got.CorrectAnswer))
	assert.Equal(t, constants.MediaTypeNone, got.MediaType)

	quiz := &models.Quiz{Title: "Advent", QuestionIDs: []string{slider.ID, "missing"}}
	require.NoError(t, quizzes.Create(ctx, quiz))
	t.Cleanup(func() { quizzes.Delete(context.Background(), quiz.ID) })

	resolved, err := NewContentSource(questions, quizzes).QuizQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, slider.ID, resolved[0].ID)

	_, err = questions.Get(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, quizzes.Delete(ctx, "does-not-exist"), ErrNotFound)
}

func TestPostgresHistory(t *testing.T) {
	db := newTestDB(t).GetDB()
	ctx := context.Background()
	history := NewHistoryRepository(db)

	before, beforePlayers, err := history.Totals(ctx)
	require.NoError(t, err)

	entry := &models.HistoryEntry{
		Pin:           "424242",
		QuestionCount: 3,
		PlayerCount:   2,
		TopPlayers:    []models.Player{{ID: "a", Name: "Alice", Score: 1375}},
		DurationMs:    90000,
		PlayedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, history.Create(ctx, entry))
	t.Cleanup(func() { db.Exec(`DELETE FROM game_history WHERE id = $1`, entry.ID) })

	retry := *entry
	retry.PlayerCount = 5
	require.NoError(t, history.Create(ctx, &retry), "recording the same game twice is not an error")

	recent, err := history.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.ID, recent[0].ID)
	assert.Equal(t, "Alice", recent[0].TopPlayers[0].Name)

	games, players, err := history.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, games)
	assert.Equal(t, beforePlayers+2, players)
}
