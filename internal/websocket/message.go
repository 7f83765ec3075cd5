package websocket

import (
	"encoding/json"
	"slices"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
)

type MessageType string

const (
	// Client -> Server
	MessageTypeCreateGame      MessageType = "create_game"
	MessageTypeResumeHost      MessageType = "resume_host"
	MessageTypeJoinGame        MessageType = "join_game"
	MessageTypeStartGame       MessageType = "start_game"
	MessageTypeReveal          MessageType = "reveal"
	MessageTypeShowLeaderboard MessageType = "show_leaderboard"
	MessageTypeNextQuestion    MessageType = "next_question"
	MessageTypeContinue        MessageType = "continue"
	MessageTypeEndGame         MessageType = "end_game"
	MessageTypeCancelGame      MessageType = "cancel_game"
	MessageTypeSubmitAnswer    MessageType = "submit_answer"
	MessageTypeGetStats        MessageType = "get_stats"
	MessageTypePing            MessageType = "ping"

	// Server -> Client
	MessageTypeConnected       MessageType = "connected"
	MessageTypeGameCreated     MessageType = "game_created"
	MessageTypeJoined          MessageType = "joined"
	MessageTypeStatusChanged   MessageType = "status_changed"
	MessageTypePlayerJoined    MessageType = "player_joined"
	MessageTypePlayerLeft      MessageType = "player_left"
	MessageTypeQuestionChanged MessageType = "question_changed"
	MessageTypeGameUpdate      MessageType = "game_update"
	MessageTypeTimerTick       MessageType = "timer_tick"
	MessageTypeTimeUp          MessageType = "time_up"
	MessageTypeAnswerResult    MessageType = "answer_result"
	MessageTypeAnswerStats     MessageType = "answer_stats"
	MessageTypeLeaderboard     MessageType = "leaderboard"
	MessageTypeGameDeleted     MessageType = "game_deleted"
	MessageTypeError           MessageType = "error"
	MessageTypePong            MessageType = "pong"
)

// Message is the envelope for both directions. Incoming payloads stay raw
// until the handler for Type decodes them.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outgoing struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

type CreateGamePayload struct {
	HostID   string          `json:"host_id,omitempty"`
	QuizID   string          `json:"quiz_id,omitempty"`
	Settings models.Settings `json:"settings"`
}

type ResumeHostPayload struct {
	HostToken string `json:"host_token"`
}

type JoinGamePayload struct {
	Pin    string `json:"pin"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type SubmitAnswerPayload struct {
	Value json.RawMessage `json:"value"`
}

type GetStatsPayload struct {
	QuestionIndex *int `json:"question_index,omitempty"`
}

type ConnectedPayload struct {
	ClientID string `json:"client_id"`
}

type GameCreatedPayload struct {
	Pin       string `json:"pin"`
	HostID    string `json:"host_id"`
	HostToken string `json:"host_token,omitempty"`
	Resumed   bool   `json:"resumed,omitempty"`
}

type StatusChangedPayload struct {
	Status          string `json:"status"`
	CurrentQuestion int    `json:"current_question"`
	TotalQuestions  int    `json:"total_questions"`
}

type PlayerPayload struct {
	Player      models.Player `json:"player"`
	PlayerCount int           `json:"player_count"`
}

type GameUpdatePayload struct {
	Pin             string `json:"pin"`
	Status          string `json:"status"`
	CurrentQuestion int    `json:"current_question"`
	TotalQuestions  int    `json:"total_questions"`
	PlayerCount     int    `json:"player_count"`
	Answered        int    `json:"answered"`
}

type TimerTickPayload struct {
	QuestionIndex int `json:"question_index"`
	Remaining     int `json:"remaining"`
}

type TimeUpPayload struct {
	QuestionIndex int `json:"question_index"`
}

type AnswerStatsPayload struct {
	QuestionIndex int                `json:"question_index"`
	Stats         models.AnswerStats `json:"stats"`
	Question      *QuestionView      `json:"question,omitempty"`
}

type LeaderboardPayload struct {
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	Final       bool                      `json:"final"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QuestionView is a question as sent over the socket. Players get it without
// the ground truth until reveal.
type QuestionView struct {
	Index         int             `json:"index"`
	Total         int             `json:"total"`
	Text          string          `json:"text"`
	QuestionType  string          `json:"question_type"`
	Answers       []string        `json:"answers,omitempty"`
	OrderItems    []string        `json:"order_items,omitempty"`
	SliderMin     float64         `json:"slider_min,omitempty"`
	SliderMax     float64         `json:"slider_max,omitempty"`
	Category      string          `json:"category,omitempty"`
	MediaType     string          `json:"media_type"`
	MediaURL      string          `json:"media_url,omitempty"`
	TimeLimit     int             `json:"time_limit"`
	CorrectIndex  *int            `json:"correct_index,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	Tolerance     float64         `json:"tolerance,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
}

// NewQuestionView builds the socket view of q. With withTruth unset, the
// answer key is left out and order items are passed through shuffle.
func NewQuestionView(q *models.QuestionSnapshot, total, timeLimit int, withTruth bool, shuffle func(n int, swap func(i, j int))) *QuestionView {
	if q == nil {
		return nil
	}
	v := &QuestionView{
		Index:        q.Index,
		Total:        total,
		Text:         q.Text,
		QuestionType: q.QuestionType,
		Answers:      slices.Clone(q.Answers),
		OrderItems:   slices.Clone(q.OrderItems),
		SliderMin:    q.SliderMin,
		SliderMax:    q.SliderMax,
		Category:     q.Category,
		MediaType:    q.MediaType,
		MediaURL:     q.MediaURL,
		TimeLimit:    timeLimit,
	}
	if v.QuestionType == "" {
		v.QuestionType = constants.QuestionTypeQuiz
	}

	if withTruth {
		if v.QuestionType == constants.QuestionTypeQuiz {
			idx := q.CorrectIndex
			v.CorrectIndex = &idx
		}
		v.CorrectAnswer = q.CorrectAnswer
		v.Tolerance = q.Tolerance
		v.Explanation = q.Explanation
		return v
	}

	if shuffle != nil && len(v.OrderItems) > 1 {
		shuffle(len(v.OrderItems), func(i, j int) {
			v.OrderItems[i], v.OrderItems[j] = v.OrderItems[j], v.OrderItems[i]
		})
	}
	return v
}
