package models

import (
	"encoding/json"
	"time"
)

// GameRecord is the live document stored under games/{pin}.
type GameRecord struct {
	Pin             string                    `json:"pin"`
	HostID          string                    `json:"hostId"`
	QuizID          string                    `json:"quizId"`
	Status          string                    `json:"status"`
	Settings        Settings                  `json:"settings"`
	Players         map[string]Player         `json:"players"`
	Questions       []QuestionSnapshot        `json:"questions"`
	CurrentQuestion int                       `json:"currentQuestion"`
	Answers         map[int]map[string]Answer `json:"answers"`
	Scored          map[int]bool              `json:"scored,omitempty"`
	JoinOrder       map[int]string            `json:"joinOrder,omitempty"`
	CreatedAt       int64                     `json:"createdAt"`
}

type Settings struct {
	QuestionCount    int  `json:"questionCount"`
	TimePerQuestion  int  `json:"timePerQuestion"`
	ShuffleQuestions bool `json:"shuffleQuestions"`
	ShowLeaderboard  bool `json:"showLeaderboard"`
}

type Player struct {
	ID       string `json:"id" bson:"id"`
	Name     string `json:"name" bson:"name"`
	Avatar   string `json:"avatar" bson:"avatar"`
	Score    int    `json:"score" bson:"score"`
	Streak   int    `json:"streak" bson:"streak"`
	JoinedAt int64  `json:"joinedAt" bson:"joined_at"`
	JoinSeq  int    `json:"joinSeq" bson:"join_seq"`
}

// Answer.Value holds the raw submitted value: an option index, a boolean,
// a string, a number or an ordered list of strings, depending on the question type.
type Answer struct {
	Value         json.RawMessage `json:"value"`
	TimeRemaining int             `json:"timeRemaining"`
	SubmittedAt   int64           `json:"submittedAt"`
}

// QuestionSnapshot is frozen into the game record when the game starts.
type QuestionSnapshot struct {
	Index         int             `json:"index"`
	Text          string          `json:"text"`
	QuestionType  string          `json:"questionType"`
	Answers       []string        `json:"answers,omitempty"`
	CorrectIndex  int             `json:"correctIndex"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	OrderItems    []string        `json:"orderItems,omitempty"`
	Tolerance     float64         `json:"tolerance,omitempty"`
	SliderMin     float64         `json:"sliderMin,omitempty"`
	SliderMax     float64         `json:"sliderMax,omitempty"`
	Category      string          `json:"category"`
	MediaType     string          `json:"mediaType"`
	MediaURL      string          `json:"mediaUrl,omitempty"`
	TimeLimit     int             `json:"timeLimit"`
	Explanation   string          `json:"explanation,omitempty"`
}

// Question is a question bank entry owned by the content store.
type Question struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	QuestionType  string          `json:"questionType"`
	Answers       []string        `json:"answers,omitempty"`
	CorrectIndex  int             `json:"correctIndex"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	OrderItems    []string        `json:"orderItems,omitempty"`
	Tolerance     float64         `json:"tolerance,omitempty"`
	SliderMin     float64         `json:"sliderMin,omitempty"`
	SliderMax     float64         `json:"sliderMax,omitempty"`
	Category      string          `json:"category"`
	Difficulty    string          `json:"difficulty,omitempty"`
	MediaType     string          `json:"mediaType"`
	MediaURL      string          `json:"mediaUrl,omitempty"`
	TimeLimit     int             `json:"timeLimit"`
	Explanation   string          `json:"explanation,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Quiz struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	QuestionIDs []string  `json:"questionIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry summarises a finished game.
type HistoryEntry struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Pin           string    `json:"pin" bson:"pin"`
	QuizID        string    `json:"quizId" bson:"quiz_id"`
	QuestionCount int       `json:"questionCount" bson:"question_count"`
	PlayerCount   int       `json:"playerCount" bson:"player_count"`
	TopPlayers    []Player  `json:"topPlayers" bson:"top_players"`
	DurationMs    int64     `json:"duration" bson:"duration_ms"`
	PlayedAt      time.Time `json:"playedAt" bson:"played_at"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
}

type AnswerStats struct {
	Total    int   `json:"total"`
	Answered int   `json:"answered"`
	Correct  int   `json:"correct"`
	Wrong    int   `json:"wrong"`
	NoAnswer int   `json:"noAnswer"`
	ByOption []int `json:"byOption"`
}

type Statistics struct {
	TotalGames     int `json:"totalGames"`
	TotalPlayers   int `json:"totalPlayers"`
	TotalQuestions int `json:"totalQuestions"`
	TotalQuizzes   int `json:"totalQuizzes"`
}

// GameEvent is published to the message broker on lifecycle transitions.
type GameEvent struct {
	Event         string    `json:"event"`
	Pin           string    `json:"pin"`
	HostID        string    `json:"host_id"`
	QuizID        string    `json:"quiz_id,omitempty"`
	PlayerCount   int       `json:"player_count"`
	QuestionCount int       `json:"question_count"`
	Timestamp     time.Time `json:"timestamp"`
}
