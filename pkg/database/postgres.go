package database

import (
	"context"
	"database/sql"
	"fmt"

	"quizmas-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

var schema = []struct {
	name string
	ddl  string
}{
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			icon VARCHAR(64) NOT NULL DEFAULT '',
			color VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`},
	{"questions", `
		CREATE TABLE IF NOT EXISTS questions (
			id VARCHAR(64) PRIMARY KEY,
			text TEXT NOT NULL,
			question_type VARCHAR(32) NOT NULL DEFAULT 'quiz',
			answers JSONB NOT NULL DEFAULT '[]',
			correct_index INTEGER NOT NULL DEFAULT 0,
			correct_answer JSONB,
			order_items JSONB NOT NULL DEFAULT '[]',
			tolerance DOUBLE PRECISION NOT NULL DEFAULT 0,
			slider_min DOUBLE PRECISION NOT NULL DEFAULT 0,
			slider_max DOUBLE PRECISION NOT NULL DEFAULT 0,
			category VARCHAR(64) NOT NULL DEFAULT '',
			difficulty VARCHAR(32) NOT NULL DEFAULT '',
			media_type VARCHAR(16) NOT NULL DEFAULT 'none',
			media_url TEXT NOT NULL DEFAULT '',
			time_limit INTEGER NOT NULL DEFAULT 0,
			explanation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);
		CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at);
	`},
	{"quizzes", `
		CREATE TABLE IF NOT EXISTS quizzes (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			question_ids JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`},
	{"game_history", `
		CREATE TABLE IF NOT EXISTS game_history (
			id VARCHAR(64) PRIMARY KEY,
			pin VARCHAR(6) NOT NULL,
			quiz_id VARCHAR(64) NOT NULL DEFAULT '',
			question_count INTEGER NOT NULL DEFAULT 0,
			player_count INTEGER NOT NULL DEFAULT 0,
			top_players JSONB NOT NULL DEFAULT '[]',
			duration_ms BIGINT NOT NULL DEFAULT 0,
			played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_game_history_played_at ON game_history(played_at DESC);
	`},
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	for _, table := range schema {
		if _, err := c.db.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	return nil
}
