package repository

import (
	"context"
	"database/sql"
	"time"

	"quizmas-service/internal/models"

	"github.com/google/uuid"
)

type QuizRepository struct {
	db *sql.DB
}

func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func scanQuiz(row rowScanner) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	var questionIDs []byte
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &questionIDs, &quiz.CreatedAt, &quiz.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if quiz.QuestionIDs, err = scanJSON[string](questionIDs); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *QuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	quiz.CreatedAt, quiz.UpdatedAt = now, now
	ids, err := jsonColumn(quiz.QuestionIDs)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO quizzes (id, title, description, question_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, quiz.ID, quiz.Title, quiz.Description, ids, quiz.CreatedAt, quiz.UpdatedAt)
	return err
}

func (r *QuizRepository) Get(ctx context.Context, id string) (*models.Quiz, error) {
	query := `
		SELECT id, title, description, question_ids, created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`
	quiz, err := scanQuiz(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("quiz", id, err)
	}
	return quiz, nil
}

func (r *QuizRepository) List(ctx context.Context) ([]*models.Quiz, error) {
	query := `
		SELECT id, title, description, question_ids, created_at, updated_at
		FROM quizzes
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*models.Quiz
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	quiz.UpdatedAt = time.Now().UTC()
	ids, err := jsonColumn(quiz.QuestionIDs)
	if err != nil {
		return err
	}
	query := `
		UPDATE quizzes
		SET title = $1, description = $2, question_ids = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, quiz.Title, quiz.Description, ids, quiz.UpdatedAt, quiz.ID)
	if err != nil {
		return err
	}
	return checkAffected("quiz", quiz.ID, res)
}

func (r *QuizRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected("quiz", id, res)
}

func (r *QuizRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&count)
	return count, err
}
