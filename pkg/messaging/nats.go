package messaging

import (
	"context"
	"fmt"

	"quizmas-service/config"

	"github.com/nats-io/nats.go"
)

type NATSClient struct {
	conn *nats.Conn
}

func NewNATSClient(cfg *config.NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name("quizmas-service"),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{conn: conn}, nil
}

// Publish sends body on subject. NATS core publishing is fire and forget, so
// ctx only guards against publishing after cancellation.
func (c *NATSClient) Publish(ctx context.Context, subject string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.conn.Publish(subject, body)
}

func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func (c *NATSClient) Close() error {
	if c.conn != nil {
		return c.conn.Drain()
	}
	return nil
}
