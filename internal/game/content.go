package game

import (
	"context"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
)

// QuestionSource supplies the question bank a game is drawn from.
type QuestionSource interface {
	// QuizQuestions returns the questions of a quiz in its stored order,
	// skipping ids that no longer resolve.
	QuizQuestions(ctx context.Context, quizID string) ([]models.Question, error)
	AllQuestions(ctx context.Context) ([]models.Question, error)
}

type HistoryRecorder interface {
	Create(ctx context.Context, entry *models.HistoryEntry) error
}

// Publisher announces lifecycle transitions. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, event models.GameEvent) error
}

func (s *Service) resolveQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	if s.questions == nil {
		return nil, nil
	}
	if quizID != constants.QuizPool {
		qs, err := s.questions.QuizQuestions(ctx, quizID)
		if err != nil {
			return nil, persistence("load quiz questions", err)
		}
		if len(qs) > 0 {
			return qs, nil
		}
	}
	qs, err := s.questions.AllQuestions(ctx)
	if err != nil {
		return nil, persistence("load questions", err)
	}
	return qs, nil
}

// selectQuestions shuffles bank when asked and freezes the first
// QuestionCount entries into snapshots.
func (s *Service) selectQuestions(bank []models.Question, settings models.Settings) []models.QuestionSnapshot {
	pool := make([]models.Question, len(bank))
	copy(pool, bank)
	if settings.ShuffleQuestions {
		s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	n := min(settings.QuestionCount, len(pool))
	snaps := make([]models.QuestionSnapshot, n)
	for i := range n {
		snaps[i] = SnapshotQuestion(pool[i], i, settings.TimePerQuestion)
	}
	return snaps
}

// SnapshotQuestion freezes q at position index. A question without its own
// time limit gets defaultTimeLimit.
func SnapshotQuestion(q models.Question, index, defaultTimeLimit int) models.QuestionSnapshot {
	questionType := q.QuestionType
	if questionType == "" {
		questionType = constants.QuestionTypeQuiz
	}
	timeLimit := q.TimeLimit
	if timeLimit <= 0 {
		timeLimit = defaultTimeLimit
	}
	mediaType := q.MediaType
	if mediaType == "" {
		mediaType = constants.MediaTypeNone
	}
	return models.QuestionSnapshot{
		Index:         index,
		Text:          q.Text,
		QuestionType:  questionType,
		Answers:       append([]string(nil), q.Answers...),
		CorrectIndex:  q.CorrectIndex,
		CorrectAnswer: append([]byte(nil), q.CorrectAnswer...),
		OrderItems:    append([]string(nil), q.OrderItems...),
		Tolerance:     q.Tolerance,
		SliderMin:     q.SliderMin,
		SliderMax:     q.SliderMax,
		Category:      q.Category,
		MediaType:     mediaType,
		MediaURL:      q.MediaURL,
		TimeLimit:     timeLimit,
		Explanation:   q.Explanation,
	}
}
