package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/google/uuid"
)

// HistoryStore persists summaries of finished games.
type HistoryStore interface {
	// Create records entry once. An entry whose ID is already recorded is
	// left as it is and Create returns nil.
	Create(ctx context.Context, entry *models.HistoryEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
	// Totals returns the number of recorded games and the players summed over them.
	Totals(ctx context.Context) (games int, players int, err error)
}

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	top, err := jsonColumn(entry.TopPlayers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO game_history (id, pin, quiz_id, question_count, player_count, top_players, duration_ms, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Pin,
		entry.QuizID,
		entry.QuestionCount,
		entry.PlayerCount,
		top,
		entry.DurationMs,
		entry.PlayedAt,
	)
	return err
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, pin, quiz_id, question_count, player_count, top_players, duration_ms, played_at
		FROM game_history
		ORDER BY played_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, historyLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry := &models.HistoryEntry{}
		var top []byte
		err := rows.Scan(
			&entry.ID,
			&entry.Pin,
			&entry.QuizID,
			&entry.QuestionCount,
			&entry.PlayerCount,
			&top,
			&entry.DurationMs,
			&entry.PlayedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(top) > 0 {
			if err := json.Unmarshal(top, &entry.TopPlayers); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *HistoryRepository) Totals(ctx context.Context) (int, int, error) {
	var games, players int
	query := `SELECT COUNT(*), COALESCE(SUM(player_count), 0) FROM game_history`
	err := r.db.QueryRowContext(ctx, query).Scan(&games, &players)
	return games, players, err
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultHistoryLimit
	}
	return limit
}
