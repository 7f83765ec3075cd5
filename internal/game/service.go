package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"
	"quizmas-service/internal/store"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Service holds what every Session shares: the live store, the content and
// history repositories and the lifecycle publisher.
type Service struct {
	store     store.Store
	questions QuestionSource
	history   HistoryRecorder
	publisher Publisher
	clock     clockwork.Clock
	newPin    PinGenerator
	newID     func() string
	shuffle   func(n int, swap func(i, j int))
	defaults  models.Settings
}

type Option func(*Service)

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithPinGenerator(g PinGenerator) Option {
	return func(s *Service) { s.newPin = g }
}

func WithPlayerIDs(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// WithRand makes question shuffling deterministic.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.shuffle = r.Shuffle }
}

func WithDefaults(d models.Settings) Option {
	return func(s *Service) { s.defaults = d }
}

func DefaultSettings() models.Settings {
	return models.Settings{
		QuestionCount:    constants.DefaultQuestionCount,
		TimePerQuestion:  constants.DefaultTimePerQuestion,
		ShuffleQuestions: true,
		ShowLeaderboard:  true,
	}
}

func NewService(st store.Store, questions QuestionSource, history HistoryRecorder, opts ...Option) *Service {
	s := &Service{
		store:     st,
		questions: questions,
		history:   history,
		clock:     clockwork.NewRealClock(),
		newPin:    RandomPin,
		newID:     newPlayerID,
		shuffle:   rand.Shuffle,
		defaults:  DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newPlayerID returns a time-ordered id so ids sort in join order.
func newPlayerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) Defaults() models.Settings {
	return s.defaults
}

func (s *Service) Clock() clockwork.Clock {
	return s.clock
}

// NewSession returns an idle session bound to one client connection.
func (s *Service) NewSession(hooks *store.DisconnectHooks) *Session {
	if hooks == nil {
		hooks = store.NewDisconnectHooks(s.store)
	}
	return &Session{
		svc:   s,
		hooks: hooks,
		timer: NewTimer(s.clock),
	}
}

// Load reads the current record for pin.
func (s *Service) Load(ctx context.Context, pin string) (*models.GameRecord, error) {
	if !ValidPin(pin) {
		return nil, ErrNotFound
	}
	raw, ok, err := s.store.Read(ctx, store.GamePath(pin))
	if err != nil {
		return nil, persistence("read game", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return nil, persistence("decode game", err)
	}
	return rec, nil
}

// DecodeRecord parses a stored record. Maps are never nil on return.
func DecodeRecord(raw json.RawMessage) (*models.GameRecord, error) {
	var rec models.GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode game record: %w", err)
	}
	if rec.Players == nil {
		rec.Players = make(map[string]models.Player)
	}
	if rec.Answers == nil {
		rec.Answers = make(map[int]map[string]models.Answer)
	}
	if rec.Scored == nil {
		rec.Scored = make(map[int]bool)
	}
	return &rec, nil
}

func (s *Service) normalizeSettings(in models.Settings) (models.Settings, error) {
	if in.QuestionCount < 0 || in.TimePerQuestion < 0 {
		return models.Settings{}, fmt.Errorf("%w: question count and time per question must be positive", ErrInvalidInput)
	}
	if in.QuestionCount == 0 {
		in.QuestionCount = s.defaults.QuestionCount
	}
	if in.TimePerQuestion == 0 {
		in.TimePerQuestion = s.defaults.TimePerQuestion
	}
	return in, nil
}

func (s *Service) publish(ctx context.Context, event string, rec *models.GameRecord) {
	if s.publisher == nil || rec == nil {
		return
	}
	ev := models.GameEvent{
		Event:         event,
		Pin:           rec.Pin,
		HostID:        rec.HostID,
		QuizID:        rec.QuizID,
		PlayerCount:   len(rec.Players),
		QuestionCount: len(rec.Questions),
		Timestamp:     s.clock.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.WithFields(log.Fields{"pin": rec.Pin, "event": event}).Warnf("Failed to publish game event: %v", err)
	}
}
