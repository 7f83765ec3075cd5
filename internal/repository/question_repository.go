package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, text, question_type, answers, correct_index, correct_answer, order_items,
	tolerance, slider_min, slider_max, category, difficulty, media_type, media_url, time_limit,
	explanation, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var answers, orderItems, correctAnswer []byte
	err := row.Scan(
		&q.ID,
		&q.Text,
		&q.QuestionType,
		&answers,
		&q.CorrectIndex,
		&correctAnswer,
		&orderItems,
		&q.Tolerance,
		&q.SliderMin,
		&q.SliderMax,
		&q.Category,
		&q.Difficulty,
		&q.MediaType,
		&q.MediaURL,
		&q.TimeLimit,
		&q.Explanation,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if q.Answers, err = scanJSON[string](answers); err != nil {
		return nil, err
	}
	if q.OrderItems, err = scanJSON[string](orderItems); err != nil {
		return nil, err
	}
	if len(correctAnswer) > 0 {
		q.CorrectAnswer = json.RawMessage(correctAnswer)
	}
	return q, nil
}

func questionArgs(q *models.Question) ([]any, error) {
	answers, err := jsonColumn(q.Answers)
	if err != nil {
		return nil, err
	}
	orderItems, err := jsonColumn(q.OrderItems)
	if err != nil {
		return nil, err
	}
	var correctAnswer sql.NullString
	if len(q.CorrectAnswer) > 0 {
		correctAnswer = sql.NullString{String: string(q.CorrectAnswer), Valid: true}
	}
	return []any{
		q.Text, q.QuestionType, answers, q.CorrectIndex, correctAnswer, orderItems,
		q.Tolerance, q.SliderMin, q.SliderMax, q.Category, q.Difficulty, q.MediaType,
		q.MediaURL, q.TimeLimit, q.Explanation,
	}, nil
}

func normalizeQuestion(q *models.Question) {
	if q.QuestionType == "" {
		q.QuestionType = constants.QuestionTypeQuiz
	}
	if q.MediaType == "" {
		q.MediaType = constants.MediaTypeNone
	}
}

func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	normalizeQuestion(q)
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now

	args, err := questionArgs(q)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO questions (id, text, question_type, answers, correct_index, correct_answer, order_items,
			tolerance, slider_min, slider_max, category, difficulty, media_type, media_url, time_limit,
			explanation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	args = append([]any{q.ID}, args...)
	args = append(args, q.CreatedAt, q.UpdatedAt)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("question", id, err)
	}
	return q, nil
}

// List returns questions oldest first, optionally restricted to a category.
func (r *QuestionRepository) List(ctx context.Context, category string) ([]*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []any
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.query(ctx, query, args...)
}

// GetByIDs returns the questions that exist among ids, in the order given.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ANY($1)`
	found, err := r.query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

func orderByIDs(found []*models.Question, ids []string) []*models.Question {
	byID := make(map[string]*models.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	ordered := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

func (r *QuestionRepository) query(ctx context.Context, query string, args ...any) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) Update(ctx context.Context, q *models.Question) error {
	normalizeQuestion(q)
	q.UpdatedAt = time.Now().UTC()
	args, err := questionArgs(q)
	if err != nil {
		return err
	}
	query := `
		UPDATE questions
		SET text = $1, question_type = $2, answers = $3, correct_index = $4, correct_answer = $5,
			order_items = $6, tolerance = $7, slider_min = $8, slider_max = $9, category = $10,
			difficulty = $11, media_type = $12, media_url = $13, time_limit = $14, explanation = $15,
			updated_at = $16
		WHERE id = $17
	`
	args = append(args, q.UpdatedAt, q.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffected("question", q.ID, res)
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected("question", id, res)
}

func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}
