package handlers

import (
	"context"
	"net/http"
	"strconv"

	"quizmas-service/internal/game"
	"quizmas-service/internal/models"

	"github.com/gin-gonic/gin"
)

type gameLoader interface {
	Load(ctx context.Context, pin string) (*models.GameRecord, error)
}

type historyLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
}

type statisticsReader interface {
	Statistics(ctx context.Context) (*models.Statistics, error)
}

type GameHandler struct {
	games   gameLoader
	history historyLister
	stats   statisticsReader
}

func NewGameHandler(games gameLoader, history historyLister, stats statisticsReader) *GameHandler {
	return &GameHandler{games: games, history: history, stats: stats}
}

// GameSummary is the public view of a live game. It never carries answers.
type GameSummary struct {
	Pin             string          `json:"pin"`
	Status          string          `json:"status"`
	QuizID          string          `json:"quiz_id,omitempty"`
	Settings        models.Settings `json:"settings"`
	CurrentQuestion int             `json:"current_question"`
	TotalQuestions  int             `json:"total_questions"`
	PlayerCount     int             `json:"player_count"`
	Players         []models.Player `json:"players"`
	CreatedAt       int64           `json:"created_at"`
}

func (h *GameHandler) GetGame(c *gin.Context) {
	rec, err := h.games.Load(c.Request.Context(), c.Param("pin"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GameSummary{
		Pin:             rec.Pin,
		Status:          rec.Status,
		QuizID:          rec.QuizID,
		Settings:        rec.Settings,
		CurrentQuestion: rec.CurrentQuestion,
		TotalQuestions:  len(rec.Questions),
		PlayerCount:     len(rec.Players),
		Players:         game.OrderedPlayers(rec),
		CreatedAt:       rec.CreatedAt,
	})
}

func (h *GameHandler) GetLeaderboard(c *gin.Context) {
	rec, err := h.games.Load(c.Request.Context(), c.Param("pin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": game.LeaderboardEntries(rec)})
}

func (h *GameHandler) ListHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			JsonError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *GameHandler) GetStatistics(c *gin.Context) {
	stats, err := h.stats.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
