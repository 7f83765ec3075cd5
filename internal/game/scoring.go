package game

import (
	"encoding/json"
	"math"
	"strings"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
)

const (
	BasePoints   = 1000
	MaxTimeBonus = 500
)

// CalculatePoints awards nothing for a wrong answer and BasePoints plus a
// speed bonus of up to MaxTimeBonus for a correct one. timeRemaining is
// clamped to [0, maxTime].
func CalculatePoints(isCorrect bool, timeRemaining, maxTime int) int {
	if !isCorrect {
		return 0
	}
	if maxTime <= 0 {
		return BasePoints
	}
	t := min(max(timeRemaining, 0), maxTime)
	ratio := float64(t) / float64(maxTime)
	return BasePoints + int(math.Round(ratio*MaxTimeBonus))
}

// QuestionType treats an unset type as a multiple choice question.
func QuestionType(q *models.QuestionSnapshot) string {
	if q.QuestionType == "" {
		return constants.QuestionTypeQuiz
	}
	return q.QuestionType
}

// MaxTime is the question's own time limit, or the game default.
func MaxTime(q *models.QuestionSnapshot, settings models.Settings) int {
	if q.TimeLimit > 0 {
		return q.TimeLimit
	}
	return settings.TimePerQuestion
}

// IsCorrect checks a raw submitted value against the question's ground truth.
// Values that do not decode as the type the question expects are wrong.
func IsCorrect(q *models.QuestionSnapshot, value json.RawMessage) bool {
	switch QuestionType(q) {
	case constants.QuestionTypeQuiz:
		var idx int
		if err := json.Unmarshal(value, &idx); err != nil {
			return false
		}
		return idx == q.CorrectIndex

	case constants.QuestionTypeTrueFalse:
		var got, want bool
		if !decodeBoth(value, q.CorrectAnswer, &got, &want) {
			return false
		}
		return got == want

	case constants.QuestionTypeType:
		var got, want string
		if !decodeBoth(value, q.CorrectAnswer, &got, &want) {
			return false
		}
		return CheckTypedAnswer(got, want)

	case constants.QuestionTypeSlider:
		var got, want float64
		if !decodeBoth(value, q.CorrectAnswer, &got, &want) {
			return false
		}
		tolerance := q.Tolerance
		if tolerance == 0 {
			tolerance = constants.DefaultSliderTolerance
		}
		return math.Abs(got-want) <= tolerance

	case constants.QuestionTypeOrder:
		var got []string
		if len(value) > 0 {
			if err := json.Unmarshal(value, &got); err != nil {
				return false
			}
		}
		if len(got) != len(q.OrderItems) {
			return false
		}
		for i := range got {
			if got[i] != q.OrderItems[i] {
				return false
			}
		}
		return true
	}
	return false
}

func decodeBoth(value, truth json.RawMessage, got, want any) bool {
	if len(value) == 0 || len(truth) == 0 {
		return false
	}
	return json.Unmarshal(value, got) == nil && json.Unmarshal(truth, want) == nil
}

// CheckTypedAnswer compares free-text answers ignoring case, spaces and
// punctuation. Either side being empty is wrong.
func CheckTypedAnswer(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return NormalizeTypedAnswer(got) == NormalizeTypedAnswer(want)
}

// NormalizeTypedAnswer lower-cases s and keeps only ASCII letters and digits.
func NormalizeTypedAnswer(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// PlayerResult is the outcome of the scoring pass for one player.
type PlayerResult struct {
	PlayerID  string `json:"player_id"`
	Answered  bool   `json:"answered"`
	IsCorrect bool   `json:"is_correct"`
	Points    int    `json:"points"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
}

// ScoreQuestion computes every player's new score and streak for question
// index q of rec. It does not look at rec.Scored; callers guard against
// applying the result twice.
func ScoreQuestion(rec *models.GameRecord, q int) []PlayerResult {
	if q < 0 || q >= len(rec.Questions) {
		return nil
	}
	question := &rec.Questions[q]
	maxTime := MaxTime(question, rec.Settings)
	answers := rec.Answers[q]

	players := OrderedPlayers(rec)
	results := make([]PlayerResult, 0, len(players))
	for _, p := range players {
		res := PlayerResult{PlayerID: p.ID, Score: p.Score}
		if answer, ok := answers[p.ID]; ok {
			res.Answered = true
			res.IsCorrect = IsCorrect(question, answer.Value)
			res.Points = CalculatePoints(res.IsCorrect, answer.TimeRemaining, maxTime)
		}
		res.Score = p.Score + res.Points
		if res.IsCorrect {
			res.Streak = p.Streak + 1
		}
		results = append(results, res)
	}
	return results
}
