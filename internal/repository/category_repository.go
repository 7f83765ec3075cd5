package repository

import (
	"context"
	"database/sql"
	"time"

	"quizmas-service/internal/models"

	"github.com/google/uuid"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO categories (id, name, icon, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Icon, c.Color, c.CreatedAt)
	return err
}

func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, icon, color, created_at FROM categories ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	query := `UPDATE categories SET name = $1, icon = $2, color = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return err
	}
	return checkAffected("category", c.ID, res)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected("category", id, res)
}

func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}
