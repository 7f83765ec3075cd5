package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
	"quizmas-service/internal/store"

	log "github.com/sirupsen/logrus"
)

type PlayerProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type JoinResult struct {
	Pin      string `json:"pin"`
	PlayerID string `json:"player_id"`
}

// Feedback is the player's local preview of an answer. The host's scoring
// pass at reveal is authoritative.
type Feedback struct {
	QuestionIndex int  `json:"question_index"`
	IsCorrect     bool `json:"is_correct"`
	Points        int  `json:"points"`
	TimeRemaining int  `json:"time_remaining"`
	Duplicate     bool `json:"duplicate,omitempty"`
}

// Session is one client's view of one game, acting either as the host or as
// a single player. It is idle until CreateSession, AttachHost or JoinSession
// succeeds and returns to idle when the game is deleted.
type Session struct {
	svc   *Service
	hooks *store.DisconnectHooks
	timer *Timer

	mu              sync.Mutex
	pin             string
	hostID          string
	playerID        string
	host            bool
	current         *models.GameRecord
	sub             store.Subscription
	subGen          uint64
	handlers        []EventHandler
	cancelLobbyHook func()
}

// OnEvent registers h for every event derived from this session's snapshots.
// Handlers run one at a time, in snapshot order.
func (s *Session) OnEvent(h EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Session) Timer() *Timer { return s.timer }

func (s *Session) Pin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pin
}

func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostID
}

func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// Game returns the latest snapshot, or nil. The record is shared and must
// not be modified.
func (s *Session) Game() *models.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CreateSession writes a new lobby under a fresh PIN and attaches this
// session to it as host.
func (s *Session) CreateSession(ctx context.Context, hostID, quizID string, settings models.Settings) (string, error) {
	if hostID == "" {
		return "", fmt.Errorf("%w: host id is required", ErrInvalidInput)
	}
	if s.Pin() != "" {
		return "", fmt.Errorf("%w: session already attached to a game", ErrInvalidState)
	}
	settings, err := s.svc.normalizeSettings(settings)
	if err != nil {
		return "", err
	}

	for range maxPinAttempts {
		pin, err := s.svc.newPin()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCreation, err)
		}
		rec := models.GameRecord{
			Pin:       pin,
			HostID:    hostID,
			QuizID:    quizID,
			Status:    constants.StatusLobby,
			Settings:  settings,
			CreatedAt: s.svc.clock.Now().UnixMilli(),
		}
		created, err := s.svc.store.WriteIfAbsent(ctx, store.GamePath(pin), rec)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCreation, persistence("create game", err))
		}
		if !created {
			log.WithField("pin", pin).Debug("PIN collision, retrying")
			continue
		}

		if err := s.attach(ctx, pin, hostID, "", true); err != nil {
			if delErr := s.svc.store.Delete(ctx, store.GamePath(pin)); delErr != nil {
				log.WithField("pin", pin).Warnf("Failed to remove unattached game: %v", delErr)
			}
			return "", fmt.Errorf("%w: %w", ErrCreation, err)
		}
		log.WithFields(log.Fields{"pin": pin, "host_id": hostID, "quiz_id": quizID}).Info("Game created")
		s.svc.publish(ctx, constants.EventGameCreated, &rec)
		return pin, nil
	}
	return "", fmt.Errorf("%w: no free PIN after %d attempts", ErrCreation, maxPinAttempts)
}

// AttachHost resumes hosting an existing game owned by hostID.
func (s *Session) AttachHost(ctx context.Context, pin, hostID string) error {
	if s.Pin() != "" {
		return fmt.Errorf("%w: session already attached to a game", ErrInvalidState)
	}
	rec, err := s.svc.Load(ctx, pin)
	if err != nil {
		return err
	}
	if rec.HostID != hostID {
		return ErrNotAuthorized
	}
	return s.attach(ctx, pin, hostID, "", true)
}

// JoinSession adds a player to a game that is still in the lobby.
func (s *Session) JoinSession(ctx context.Context, pin string, profile PlayerProfile) (JoinResult, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return JoinResult{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if s.Pin() != "" {
		return JoinResult{}, fmt.Errorf("%w: session already attached to a game", ErrInvalidState)
	}

	rec, err := s.svc.Load(ctx, pin)
	if err != nil {
		return JoinResult{}, err
	}
	if rec.Status != constants.StatusLobby {
		return JoinResult{}, ErrAlreadyStarted
	}

	player := models.Player{
		ID:       s.svc.newID(),
		Name:     profile.Name,
		Avatar:   profile.Avatar,
		JoinedAt: s.svc.clock.Now().UnixMilli(),
	}
	player.JoinSeq, err = s.claimJoinSlot(ctx, pin, player.ID, len(rec.JoinOrder))
	if err != nil {
		return JoinResult{}, err
	}
	path := store.PlayerPath(pin, player.ID)
	if err := s.svc.store.Write(ctx, path, player); err != nil {
		return JoinResult{}, persistence("add player", err)
	}

	cancel := s.hooks.OnDisconnect(path, lobbyOnlyRemoval(pin))
	s.mu.Lock()
	s.cancelLobbyHook = cancel
	s.mu.Unlock()

	if err := s.attach(ctx, pin, "", player.ID, false); err != nil {
		cancel()
		if delErr := s.svc.store.Delete(ctx, path); delErr != nil {
			log.WithField("pin", pin).Warnf("Failed to remove unattached player: %v", delErr)
		}
		return JoinResult{}, err
	}

	log.WithFields(log.Fields{"pin": pin, "player_id": player.ID, "name": player.Name}).Info("Player joined")
	return JoinResult{Pin: pin, PlayerID: player.ID}, nil
}

const maxJoinSlotAttempts = 64

// claimJoinSlot takes the first free join order slot at or after next.
// Concurrent joins race on WriteIfAbsent, so every player gets a distinct slot.
func (s *Session) claimJoinSlot(ctx context.Context, pin, playerID string, next int) (int, error) {
	for n := next; n < next+maxJoinSlotAttempts; n++ {
		claimed, err := s.svc.store.WriteIfAbsent(ctx, store.JoinSlotPath(pin, n), playerID)
		if err != nil {
			return 0, persistence("claim join slot", err)
		}
		if claimed {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: too many concurrent joins, try again", ErrInvalidState)
}

// lobbyOnlyRemoval deletes the player entry on disconnect, but only while
// the game is still in the lobby.
func lobbyOnlyRemoval(pin string) store.DisconnectAction {
	return func(ctx context.Context, st store.Store, path string) error {
		raw, ok, err := st.Read(ctx, store.GameFieldPath(pin, "status"))
		if err != nil || !ok {
			return err
		}
		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			return err
		}
		if status != constants.StatusLobby {
			return nil
		}
		return st.Delete(ctx, path)
	}
}

func (s *Session) attach(ctx context.Context, pin, hostID, playerID string, host bool) error {
	s.mu.Lock()
	s.pin, s.hostID, s.playerID, s.host = pin, hostID, playerID, host
	s.subGen++
	gen := s.subGen
	s.mu.Unlock()

	sub, err := s.svc.store.Subscribe(ctx, store.GamePath(pin), func(snap store.Snapshot) {
		s.handleSnapshot(gen, snap)
	})
	if err != nil {
		s.mu.Lock()
		if s.subGen == gen {
			s.resetLocked()
		}
		s.mu.Unlock()
		return persistence("subscribe", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subGen != gen {
		sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	return nil
}

func (s *Session) handleSnapshot(gen uint64, snap store.Snapshot) {
	var next *models.GameRecord
	if snap.Exists {
		rec, err := DecodeRecord(snap.Data)
		if err != nil {
			log.WithField("path", snap.Path).Warnf("Ignoring undecodable game snapshot: %v", err)
			return
		}
		next = rec
	}

	s.mu.Lock()
	if gen != s.subGen {
		s.mu.Unlock()
		return
	}
	prev := s.current
	s.current = next
	if next == nil {
		s.resetLocked()
	} else if next.Status != constants.StatusLobby && s.cancelLobbyHook != nil {
		s.cancelLobbyHook()
		s.cancelLobbyHook = nil
	}
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	if next == nil {
		s.timer.Stop()
	}
	for _, ev := range DiffSnapshots(prev, next) {
		for _, h := range handlers {
			h.HandleEvent(ev)
		}
	}
}

// resetLocked returns the session to idle. s.mu must be held.
func (s *Session) resetLocked() {
	store.Unsubscribe(s.sub)
	s.sub = nil
	s.subGen++
	if s.cancelLobbyHook != nil {
		s.cancelLobbyHook()
		s.cancelLobbyHook = nil
	}
	s.pin, s.hostID, s.playerID, s.host = "", "", "", false
	s.current = nil
}

// Close detaches the session without touching the stored game.
func (s *Session) Close() {
	s.timer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	store.Unsubscribe(s.sub)
	s.sub = nil
	s.subGen++
}

func (s *Session) loadOwned(ctx context.Context) (*models.GameRecord, error) {
	s.mu.Lock()
	pin, hostID, host := s.pin, s.hostID, s.host
	s.mu.Unlock()
	if !host || pin == "" {
		return nil, ErrNotAuthorized
	}
	rec, err := s.svc.Load(ctx, pin)
	if err != nil {
		return nil, err
	}
	if rec.HostID != hostID {
		return nil, ErrNotAuthorized
	}
	return rec, nil
}

// StartSession snapshots the questions into the record and opens the first one.
func (s *Session) StartSession(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	if rec.Status != constants.StatusLobby {
		return invalidState("start", rec.Status)
	}

	bank, err := s.svc.resolveQuestions(ctx, rec.QuizID)
	if err != nil {
		return err
	}
	questions := s.svc.selectQuestions(bank, rec.Settings)
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	err = s.svc.store.UpdateFields(ctx, map[string]any{
		store.GameFieldPath(rec.Pin, "questions"):       questions,
		store.GameFieldPath(rec.Pin, "currentQuestion"): 0,
		store.GameFieldPath(rec.Pin, "status"):          constants.StatusQuestion,
	})
	if err != nil {
		return persistence("start game", err)
	}

	rec.Questions = questions
	log.WithFields(log.Fields{"pin": rec.Pin, "questions": len(questions), "players": len(rec.Players)}).Info("Game started")
	s.svc.publish(ctx, constants.EventGameStarted, rec)
	return nil
}

// advanceToQuestion opens question index, or ends the game once index runs
// past the last question.
func (s *Session) advanceToQuestion(ctx context.Context, rec *models.GameRecord, index int) error {
	if index >= len(rec.Questions) {
		return s.endSession(ctx, rec)
	}
	err := s.svc.store.UpdateFields(ctx, map[string]any{
		store.GameFieldPath(rec.Pin, "currentQuestion"): index,
		store.GameFieldPath(rec.Pin, "status"):          constants.StatusQuestion,
	})
	if err != nil {
		return persistence("advance question", err)
	}
	return nil
}

// RevealCurrentQuestion stops the host timer, scores the current question
// once and moves to reveal. Scores and status commit together.
func (s *Session) RevealCurrentQuestion(ctx context.Context) error {
	s.timer.Stop()

	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	if rec.Status != constants.StatusQuestion {
		return invalidState("reveal", rec.Status)
	}

	q := rec.CurrentQuestion
	fields := map[string]any{
		store.GameFieldPath(rec.Pin, "status"): constants.StatusReveal,
	}
	if !rec.Scored[q] {
		for _, res := range ScoreQuestion(rec, q) {
			fields[store.PlayerFieldPath(rec.Pin, res.PlayerID, "score")] = res.Score
			fields[store.PlayerFieldPath(rec.Pin, res.PlayerID, "streak")] = res.Streak
		}
		fields[store.GameFieldPath(rec.Pin, "scored/"+strconv.Itoa(q))] = true
	}

	if err := s.svc.store.UpdateFields(ctx, fields); err != nil {
		return persistence("reveal question", err)
	}
	log.WithFields(log.Fields{"pin": rec.Pin, "question": q}).Debug("Question revealed")
	return nil
}

// ShowLeaderboard moves from reveal to leaderboard. Games created with
// showLeaderboard off go straight from reveal to the next question.
func (s *Session) ShowLeaderboard(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	return s.showLeaderboard(ctx, rec)
}

func (s *Session) showLeaderboard(ctx context.Context, rec *models.GameRecord) error {
	if rec.Status != constants.StatusReveal {
		return invalidState("show leaderboard", rec.Status)
	}
	if !rec.Settings.ShowLeaderboard {
		return fmt.Errorf("%w: leaderboard is disabled for this game", ErrInvalidState)
	}
	if err := s.svc.store.Write(ctx, store.GameFieldPath(rec.Pin, "status"), constants.StatusLeaderboard); err != nil {
		return persistence("show leaderboard", err)
	}
	return nil
}

// ContinueAfterReveal takes the step the game's settings call for after a
// reveal: the leaderboard when enabled, otherwise the next question.
func (s *Session) ContinueAfterReveal(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	if rec.Status != constants.StatusReveal {
		return invalidState("continue", rec.Status)
	}
	if rec.Settings.ShowLeaderboard {
		return s.showLeaderboard(ctx, rec)
	}
	return s.advanceToQuestion(ctx, rec, rec.CurrentQuestion+1)
}

// NextQuestion opens the following question, ending the game after the last.
func (s *Session) NextQuestion(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	if rec.Status != constants.StatusReveal && rec.Status != constants.StatusLeaderboard {
		return invalidState("advance", rec.Status)
	}
	return s.advanceToQuestion(ctx, rec, rec.CurrentQuestion+1)
}

func (s *Session) EndSession(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	if rec.Status == constants.StatusFinished {
		return invalidState("end", rec.Status)
	}
	return s.endSession(ctx, rec)
}

// endSession records the game in history, then marks it finished. The entry
// id is derived from the game, so a retry after a failed status write finds
// the entry already recorded.
func (s *Session) endSession(ctx context.Context, rec *models.GameRecord) error {
	s.timer.Stop()
	now := s.svc.clock.Now()

	if s.svc.history != nil {
		entry := &models.HistoryEntry{
			ID:            HistoryID(rec),
			Pin:           rec.Pin,
			QuizID:        rec.QuizID,
			QuestionCount: len(rec.Questions),
			PlayerCount:   len(rec.Players),
			TopPlayers:    TopPlayers(rec, constants.TopPlayersInHistory),
			DurationMs:    now.UnixMilli() - rec.CreatedAt,
			PlayedAt:      now.UTC(),
		}
		if err := s.svc.history.Create(ctx, entry); err != nil {
			return persistence("record history", err)
		}
	}

	if err := s.svc.store.Write(ctx, store.GameFieldPath(rec.Pin, "status"), constants.StatusFinished); err != nil {
		return persistence("finish game", err)
	}
	log.WithFields(log.Fields{"pin": rec.Pin, "players": len(rec.Players)}).Info("Game finished")
	s.svc.publish(ctx, constants.EventGameFinished, rec)
	return nil
}

// CancelSession deletes the game. Every subscriber, this session included,
// observes the deletion and returns to idle.
func (s *Session) CancelSession(ctx context.Context) error {
	rec, err := s.loadOwned(ctx)
	if err != nil {
		return err
	}
	s.timer.Stop()
	if err := s.svc.store.Delete(ctx, store.GamePath(rec.Pin)); err != nil {
		return persistence("cancel game", err)
	}

	s.mu.Lock()
	attached := s.pin == rec.Pin
	if attached {
		s.resetLocked()
	}
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	if attached {
		for _, h := range handlers {
			h.HandleEvent(Event{Type: EventGameDeleted})
		}
	}
	log.WithField("pin", rec.Pin).Info("Game cancelled")
	s.svc.publish(ctx, constants.EventGameCancelled, rec)
	return nil
}

// SubmitAnswer records the player's answer to the current question. Only the
// first answer counts; later ones return Feedback with Duplicate set.
func (s *Session) SubmitAnswer(ctx context.Context, value any) (Feedback, error) {
	s.mu.Lock()
	pin, playerID, host := s.pin, s.playerID, s.host
	s.mu.Unlock()
	if host || playerID == "" {
		return Feedback{}, ErrNotAuthorized
	}

	raw, err := encodeValue(value)
	if err != nil {
		return Feedback{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec, err := s.svc.Load(ctx, pin)
	if err != nil {
		return Feedback{}, err
	}
	if rec.Status != constants.StatusQuestion {
		return Feedback{}, invalidState("answer", rec.Status)
	}
	if _, ok := rec.Players[playerID]; !ok {
		return Feedback{}, ErrNotAuthorized
	}
	question := CurrentQuestion(rec)
	if question == nil {
		return Feedback{}, invalidState("answer", "no question is open")
	}

	q := rec.CurrentQuestion
	maxTime := MaxTime(question, rec.Settings)
	remaining := min(max(s.timer.Remaining(), 0), maxTime)

	err = s.recordAnswer(ctx, pin, q, playerID, models.Answer{
		Value:         raw,
		TimeRemaining: remaining,
		SubmittedAt:   s.svc.clock.Now().UnixMilli(),
	})
	if errors.Is(err, ErrDuplicateAnswer) {
		log.WithFields(log.Fields{"pin": pin, "player_id": playerID, "question": q}).Debug("Ignoring duplicate answer")
		return Feedback{QuestionIndex: q, Duplicate: true}, nil
	}
	if err != nil {
		return Feedback{}, err
	}

	correct := IsCorrect(question, raw)
	return Feedback{
		QuestionIndex: q,
		IsCorrect:     correct,
		Points:        CalculatePoints(correct, remaining, maxTime),
		TimeRemaining: remaining,
	}, nil
}

func (s *Session) recordAnswer(ctx context.Context, pin string, q int, playerID string, answer models.Answer) error {
	created, err := s.svc.store.WriteIfAbsent(ctx, store.AnswerPath(pin, q, playerID), answer)
	if err != nil {
		return persistence("submit answer", err)
	}
	if !created {
		return ErrDuplicateAnswer
	}
	return nil
}

func encodeValue(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("answer is not valid JSON")
		}
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func (s *Session) Leaderboard() []models.Player {
	return Leaderboard(s.Game())
}

func (s *Session) AnswerStats(q int) models.AnswerStats {
	return AnswerStatsFor(s.Game(), q)
}

func (s *Session) CurrentQuestion() *models.QuestionSnapshot {
	return CurrentQuestion(s.Game())
}

// Player looks a player up in the latest snapshot.
func (s *Session) Player(id string) (models.Player, bool) {
	rec := s.Game()
	if rec == nil {
		return models.Player{}, false
	}
	p, ok := rec.Players[id]
	return p, ok
}

func (s *Session) Players() []models.Player {
	return OrderedPlayers(s.Game())
}

func (s *Session) PlayerCount() int {
	rec := s.Game()
	if rec == nil {
		return 0
	}
	return len(rec.Players)
}

func (s *Session) MyPlayer() (models.Player, bool) {
	return s.Player(s.PlayerID())
}

func (s *Session) AnswersForQuestion(q int) map[string]models.Answer {
	return AnswersFor(s.Game(), q)
}
