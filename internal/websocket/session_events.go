package websocket

import (
	"context"
	"errors"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/game"
	"quizmas-service/internal/models"
)

// handleEvent turns session events into socket messages. Status specific
// messages wait for the game_update event that closes each snapshot, so they
// are built from the full record.
func (c *Client) handleEvent(ev game.Event) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	switch ev.Type {
	case game.EventPlayerJoined:
		c.SendMessage(MessageTypePlayerJoined, PlayerPayload{Player: *ev.Player, PlayerCount: c.Session.PlayerCount()})
	case game.EventPlayerLeft:
		c.SendMessage(MessageTypePlayerLeft, PlayerPayload{Player: *ev.Player, PlayerCount: c.Session.PlayerCount()})
	case game.EventGameUpdated:
		c.applySnapshot(ev.Game)
	case game.EventGameDeleted:
		c.Session.Timer().Stop()
		c.timedQuestion = -1
		c.lastStatus = ""
		c.SendMessage(MessageTypeGameDeleted, nil)
	}
}

func (c *Client) applySnapshot(rec *models.GameRecord) {
	if rec == nil {
		return
	}
	host := c.Session.IsHost()
	total := len(rec.Questions)

	if rec.Status != c.lastStatus {
		c.lastStatus = rec.Status
		c.SendMessage(MessageTypeStatusChanged, StatusChangedPayload{
			Status:          rec.Status,
			CurrentQuestion: rec.CurrentQuestion,
			TotalQuestions:  total,
		})

		switch rec.Status {
		case constants.StatusReveal:
			q := rec.CurrentQuestion
			c.SendMessage(MessageTypeAnswerStats, AnswerStatsPayload{
				QuestionIndex: q,
				Stats:         game.AnswerStatsFor(rec, q),
				Question:      c.view(rec, true),
			})
		case constants.StatusLeaderboard, constants.StatusFinished:
			c.SendMessage(MessageTypeLeaderboard, LeaderboardPayload{
				Leaderboard: game.LeaderboardEntries(rec),
				Final:       rec.Status == constants.StatusFinished,
			})
		case constants.StatusLobby:
			c.timedQuestion = -1
		}
	}

	if rec.Status == constants.StatusQuestion {
		if rec.CurrentQuestion != c.timedQuestion {
			c.timedQuestion = rec.CurrentQuestion
			c.startTimer(rec, host)
			c.SendMessage(MessageTypeQuestionChanged, c.view(rec, host))
		}
	} else if !host {
		c.Session.Timer().Stop()
	}

	c.SendMessage(MessageTypeGameUpdate, GameUpdatePayload{
		Pin:             rec.Pin,
		Status:          rec.Status,
		CurrentQuestion: rec.CurrentQuestion,
		TotalQuestions:  total,
		PlayerCount:     len(rec.Players),
		Answered:        len(rec.Answers[rec.CurrentQuestion]),
	})
}

func (c *Client) view(rec *models.GameRecord, withTruth bool) *QuestionView {
	q := game.CurrentQuestion(rec)
	if q == nil {
		return nil
	}
	return NewQuestionView(q, len(rec.Questions), game.MaxTime(q, rec.Settings), withTruth, c.Hub.shuffle)
}

// startTimer runs the countdown for the open question. On the host socket the
// countdown reaching zero reveals the question.
func (c *Client) startTimer(rec *models.GameRecord, host bool) {
	q := game.CurrentQuestion(rec)
	if q == nil {
		return
	}
	index := rec.CurrentQuestion
	c.Session.Timer().Start(game.MaxTime(q, rec.Settings),
		func(remaining int) {
			c.SendMessage(MessageTypeTimerTick, TimerTickPayload{QuestionIndex: index, Remaining: remaining})
		},
		func() {
			c.SendMessage(MessageTypeTimeUp, TimeUpPayload{QuestionIndex: index})
			if host {
				go c.autoReveal(index)
			}
		},
	)
}

func (c *Client) autoReveal(index int) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	err := c.Session.RevealCurrentQuestion(ctx)
	switch {
	case err == nil:
		c.logger().WithField("question", index).Debug("Question revealed on time up")
	case errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrNotAuthorized):
		// Already revealed by hand, or the game is gone.
	default:
		c.Hub.reportError(c, MessageTypeReveal, err)
	}
}
