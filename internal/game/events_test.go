package game

import (
	"testing"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestDiffSnapshotsFirstSnapshot(t *testing.T) {
	next := &models.GameRecord{Status: constants.StatusLobby}
	events := DiffSnapshots(nil, next)
	assert.Equal(t, []EventType{EventStatusChanged, EventGameUpdated}, eventTypes(events))
	assert.Equal(t, constants.StatusLobby, events[0].Status)
}

func TestDiffSnapshotsOrdering(t *testing.T) {
	prev := &models.GameRecord{
		Status: constants.StatusReveal,
		Players: map[string]models.Player{
			"gone": {ID: "gone", JoinedAt: 1},
			"stay": {ID: "stay", JoinedAt: 2},
		},
		Questions:       []models.QuestionSnapshot{{Index: 0}, {Index: 1}},
		CurrentQuestion: 0,
	}
	next := &models.GameRecord{
		Status: constants.StatusQuestion,
		Players: map[string]models.Player{
			"stay": {ID: "stay", JoinedAt: 2},
			"new2": {ID: "new2", JoinedAt: 9},
			"new1": {ID: "new1", JoinedAt: 5},
		},
		Questions:       prev.Questions,
		CurrentQuestion: 1,
	}

	events := DiffSnapshots(prev, next)
	assert.Equal(t, []EventType{
		EventStatusChanged,
		EventPlayerJoined,
		EventPlayerJoined,
		EventPlayerLeft,
		EventQuestionChanged,
		EventGameUpdated,
	}, eventTypes(events))
	assert.Equal(t, "new1", events[1].Player.ID)
	assert.Equal(t, "new2", events[2].Player.ID)
	assert.Equal(t, "gone", events[3].Player.ID)
	require.NotNil(t, events[4].Question)
	assert.Equal(t, 1, events[4].Question.Index)
	assert.Same(t, next, events[5].Game)
}

func TestDiffSnapshotsUnchangedStatus(t *testing.T) {
	rec := &models.GameRecord{Status: constants.StatusLobby}
	assert.Equal(t, []EventType{EventGameUpdated}, eventTypes(DiffSnapshots(rec, rec)))
}

func TestDiffSnapshotsDeletion(t *testing.T) {
	prev := &models.GameRecord{Status: constants.StatusQuestion}
	assert.Equal(t, []EventType{EventGameDeleted}, eventTypes(DiffSnapshots(prev, nil)))
}

func TestLeaderboardIsStable(t *testing.T) {
	rec := &models.GameRecord{Players: map[string]models.Player{
		"d": {ID: "d", Score: 500, JoinedAt: 4},
		"a": {ID: "a", Score: 1000, JoinedAt: 1},
		"c": {ID: "c", Score: 1000, JoinedAt: 3},
		"b": {ID: "b", Score: 500, JoinedAt: 2},
		"e": {ID: "e", Score: 1000, JoinedAt: 3},
	}}

	var ids []string
	for _, p := range Leaderboard(rec) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "c", "e", "b", "d"}, ids)

	entries := LeaderboardEntries(rec)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 5, entries[4].Rank)
	assert.Len(t, TopPlayers(rec, 3), 3)
}

func TestOrderedPlayersPrefersJoinSeq(t *testing.T) {
	rec := &models.GameRecord{Players: map[string]models.Player{
		"aaa": {ID: "aaa", JoinedAt: 5, JoinSeq: 2},
		"zzz": {ID: "zzz", JoinedAt: 5, JoinSeq: 0},
		"mmm": {ID: "mmm", JoinedAt: 9, JoinSeq: 1},
	}}

	var ids []string
	for _, p := range OrderedPlayers(rec) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"zzz", "mmm", "aaa"}, ids)
}

func TestAnswerStatsFor(t *testing.T) {
	rec := &models.GameRecord{
		Players: map[string]models.Player{"a": {ID: "a"}, "b": {ID: "b"}, "c": {ID: "c"}, "d": {ID: "d"}},
		Questions: []models.QuestionSnapshot{
			{QuestionType: constants.QuestionTypeQuiz, Answers: []string{"w", "x", "y"}, CorrectIndex: 1},
			{QuestionType: constants.QuestionTypeTrueFalse, CorrectAnswer: raw(false)},
		},
		Answers: map[int]map[string]models.Answer{
			0: {"a": {Value: raw(1)}, "b": {Value: raw(1)}, "c": {Value: raw(2)}},
			1: {"a": {Value: raw(false)}},
		},
	}

	stats := AnswerStatsFor(rec, 0)
	assert.Equal(t, models.AnswerStats{Total: 4, Answered: 3, Correct: 2, Wrong: 1, NoAnswer: 1, ByOption: []int{0, 2, 1}}, stats)

	stats = AnswerStatsFor(rec, 1)
	assert.Equal(t, models.AnswerStats{Total: 4, Answered: 1, Correct: 1, NoAnswer: 3, ByOption: []int{}}, stats)

	stats = AnswerStatsFor(rec, 7)
	assert.Equal(t, 4, stats.NoAnswer)
}
