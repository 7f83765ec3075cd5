package game

import (
	"encoding/json"
	"fmt"
	"sort"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
)

// OrderedPlayers lists players in join order. JoinSeq decides; join time and
// id only break ties between records written without one.
func OrderedPlayers(rec *models.GameRecord) []models.Player {
	if rec == nil {
		return nil
	}
	players := make([]models.Player, 0, len(rec.Players))
	for _, p := range rec.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinSeq != players[j].JoinSeq {
			return players[i].JoinSeq < players[j].JoinSeq
		}
		if players[i].JoinedAt != players[j].JoinedAt {
			return players[i].JoinedAt < players[j].JoinedAt
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// HistoryID names the history entry of a game. PINs are reused, so the
// creation time keeps entries of different games apart.
func HistoryID(rec *models.GameRecord) string {
	return fmt.Sprintf("%s-%d", rec.Pin, rec.CreatedAt)
}

// Leaderboard sorts players by score descending. Equal scores keep join order.
func Leaderboard(rec *models.GameRecord) []models.Player {
	players := OrderedPlayers(rec)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players
}

// LeaderboardEntries ranks the leaderboard starting at 1.
func LeaderboardEntries(rec *models.GameRecord) []models.LeaderboardEntry {
	players := Leaderboard(rec)
	entries := make([]models.LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = models.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Score:    p.Score,
			Streak:   p.Streak,
		}
	}
	return entries
}

func CurrentQuestion(rec *models.GameRecord) *models.QuestionSnapshot {
	if rec == nil || rec.CurrentQuestion < 0 || rec.CurrentQuestion >= len(rec.Questions) {
		return nil
	}
	q := rec.Questions[rec.CurrentQuestion]
	return &q
}

// AnswersFor returns a copy of the answers recorded for question q.
func AnswersFor(rec *models.GameRecord, q int) map[string]models.Answer {
	out := make(map[string]models.Answer)
	if rec == nil {
		return out
	}
	for id, a := range rec.Answers[q] {
		out[id] = a
	}
	return out
}

// AnswerStatsFor summarises the answers given to question q. ByOption counts
// picks per option for multiple choice questions and is empty otherwise.
func AnswerStatsFor(rec *models.GameRecord, q int) models.AnswerStats {
	stats := models.AnswerStats{ByOption: []int{}}
	if rec == nil {
		return stats
	}
	stats.Total = len(rec.Players)
	if q < 0 || q >= len(rec.Questions) {
		stats.NoAnswer = stats.Total
		return stats
	}

	question := &rec.Questions[q]
	multipleChoice := QuestionType(question) == constants.QuestionTypeQuiz
	if multipleChoice {
		stats.ByOption = make([]int, len(question.Answers))
	}

	for _, a := range rec.Answers[q] {
		stats.Answered++
		if IsCorrect(question, a.Value) {
			stats.Correct++
		} else {
			stats.Wrong++
		}
		if multipleChoice {
			var idx int
			if json.Unmarshal(a.Value, &idx) == nil && idx >= 0 && idx < len(stats.ByOption) {
				stats.ByOption[idx]++
			}
		}
	}
	stats.NoAnswer = max(stats.Total-stats.Answered, 0)
	return stats
}

// TopPlayers returns the first n leaderboard entries.
func TopPlayers(rec *models.GameRecord, n int) []models.Player {
	players := Leaderboard(rec)
	if len(players) > n {
		players = players[:n]
	}
	return players
}
