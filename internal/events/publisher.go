// Package events publishes game lifecycle transitions to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"quizmas-service/internal/models"
)

// RabbitMQQueue receives every lifecycle event when RabbitMQ is the broker.
const RabbitMQQueue = "quizmas.game_events"

type sender interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

// BrokerPublisher encodes events as JSON and hands them to a broker client.
type BrokerPublisher struct {
	sender sender
	topic  func(models.GameEvent) string
}

// NewQueuePublisher sends all events to one queue.
func NewQueuePublisher(s sender, queue string) *BrokerPublisher {
	return &BrokerPublisher{sender: s, topic: func(models.GameEvent) string { return queue }}
}

// NewSubjectPublisher sends each event on a subject named after it, such as
// "game.started".
func NewSubjectPublisher(s sender) *BrokerPublisher {
	return &BrokerPublisher{sender: s, topic: func(ev models.GameEvent) string { return ev.Event }}
}

func (p *BrokerPublisher) Publish(ctx context.Context, ev models.GameEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Event, err)
	}
	topic := p.topic(ev)
	if err := p.sender.Publish(ctx, topic, body); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Event, topic, err)
	}
	return nil
}
