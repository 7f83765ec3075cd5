package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quizmas-service/internal/constants"
	"quizmas-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic string
	body  []byte
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Publish(ctx context.Context, topic string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{topic: topic, body: body})
	return nil
}

var started = models.GameEvent{
	Event:         constants.EventGameStarted,
	Pin:           "123456",
	HostID:        "host-1",
	PlayerCount:   4,
	QuestionCount: 10,
	Timestamp:     time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC),
}

func TestQueuePublisher(t *testing.T) {
	s := &fakeSender{}
	require.NoError(t, NewQueuePublisher(s, RabbitMQQueue).Publish(context.Background(), started))

	require.Len(t, s.sent, 1)
	assert.Equal(t, RabbitMQQueue, s.sent[0].topic)
	var decoded models.GameEvent
	require.NoError(t, json.Unmarshal(s.sent[0].body, &decoded))
	assert.Equal(t, started, decoded)
}

func TestSubjectPublisher(t *testing.T) {
	s := &fakeSender{}
	require.NoError(t, NewSubjectPublisher(s).Publish(context.Background(), started))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "game.started", s.sent[0].topic)

	s.err = errors.New("broker unavailable")
	err := NewSubjectPublisher(s).Publish(context.Background(), started)
	assert.ErrorIs(t, err, s.err)
}
