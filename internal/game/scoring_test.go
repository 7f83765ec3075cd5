package game

import (
	"encoding/json"
	"math"
	"testing"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePoints(t *testing.T) {
	for _, maxTime := range []int{5, 10, 20, 30} {
		for remaining := 0; remaining <= maxTime; remaining++ {
			want := 1000 + int(math.Round(500*float64(remaining)/float64(maxTime)))
			assert.Equal(t, want, CalculatePoints(true, remaining, maxTime), "t=%d M=%d", remaining, maxTime)
			assert.Zero(t, CalculatePoints(false, remaining, maxTime))
		}
	}

	assert.Equal(t, 1375, CalculatePoints(true, 15, 20))
	assert.Equal(t, 1500, CalculatePoints(true, 45, 20), "remaining above max is clamped")
	assert.Equal(t, 1000, CalculatePoints(true, -3, 20), "negative remaining is clamped")
	assert.Equal(t, 1000, CalculatePoints(true, 10, 0))
}

func raw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func TestIsCorrect(t *testing.T) {
	quiz := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeQuiz, Answers: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	untyped := &models.QuestionSnapshot{CorrectIndex: 1}
	trueFalse := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeTrueFalse, CorrectAnswer: raw(true)}
	typed := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeType, CorrectAnswer: raw("Jingle Bells")}
	slider := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeSlider, CorrectAnswer: raw(1843)}
	tight := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeSlider, CorrectAnswer: raw(24), Tolerance: 0.5}
	order := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeOrder, OrderItems: []string{"Dasher", "Dancer", "Prancer"}}
	emptyOrder := &models.QuestionSnapshot{QuestionType: constants.QuestionTypeOrder}

	tests := []struct {
		name     string
		question *models.QuestionSnapshot
		value    json.RawMessage
		want     bool
	}{
		{"quiz correct", quiz, raw(2), true},
		{"quiz wrong", quiz, raw(1), false},
		{"quiz not a number", quiz, raw("2"), false},
		{"empty type is quiz", untyped, raw(1), true},
		{"truefalse correct", trueFalse, raw(true), true},
		{"truefalse wrong", trueFalse, raw(false), false},
		{"truefalse missing truth", &models.QuestionSnapshot{QuestionType: constants.QuestionTypeTrueFalse}, raw(false), false},
		{"typed ignores case and punctuation", typed, raw("jingle-bells!"), true},
		{"typed ignores spaces", typed, raw("  JINGLEBELLS "), true},
		{"typed wrong", typed, raw("Silent Night"), false},
		{"typed empty", typed, raw(""), false},
		{"slider within default tolerance", slider, raw(1848), true},
		{"slider outside default tolerance", slider, raw(1849), false},
		{"slider custom tolerance", tight, raw(24.5), true},
		{"slider custom tolerance exceeded", tight, raw(25), false},
		{"order exact", order, raw([]string{"Dasher", "Dancer", "Prancer"}), true},
		{"order swapped", order, raw([]string{"Dancer", "Dasher", "Prancer"}), false},
		{"order short", order, raw([]string{"Dasher"}), false},
		{"order empty equals empty", emptyOrder, raw([]string{}), true},
		{"order null equals empty", emptyOrder, json.RawMessage(`null`), true},
		{"unknown type", &models.QuestionSnapshot{QuestionType: "riddle"}, raw(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrect(tt.question, tt.value))
		})
	}
}

func TestNormalizeTypedAnswer(t *testing.T) {
	assert.Equal(t, "rudolph", NormalizeTypedAnswer("Rudolph!"))
	assert.Equal(t, "12days", NormalizeTypedAnswer("12 Days"))
	assert.Equal(t, "", NormalizeTypedAnswer("?!"))
	assert.False(t, CheckTypedAnswer("", ""))
}

func TestScoreQuestion(t *testing.T) {
	rec := &models.GameRecord{
		Settings: models.Settings{TimePerQuestion: 20},
		Players: map[string]models.Player{
			"a": {ID: "a", Score: 1000, Streak: 2, JoinedAt: 1},
			"b": {ID: "b", Score: 500, Streak: 1, JoinedAt: 2},
			"c": {ID: "c", Score: 200, Streak: 3, JoinedAt: 3},
		},
		Questions: []models.QuestionSnapshot{{Answers: []string{"x", "y"}, CorrectIndex: 0, TimeLimit: 10}},
		Answers: map[int]map[string]models.Answer{
			0: {
				"a": {Value: raw(0), TimeRemaining: 10},
				"b": {Value: raw(1), TimeRemaining: 10},
			},
		},
	}

	results := ScoreQuestion(rec, 0)
	assert.Equal(t, []PlayerResult{
		{PlayerID: "a", Answered: true, IsCorrect: true, Points: 1500, Score: 2500, Streak: 3},
		{PlayerID: "b", Answered: true, Points: 0, Score: 500, Streak: 0},
		{PlayerID: "c", Score: 200, Streak: 0},
	}, results)

	assert.Nil(t, ScoreQuestion(rec, 4))
}
