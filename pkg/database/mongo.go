package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quizmas-service/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClient connects to the database named by the URI path.
func NewMongoClient(cfg *config.MongoConfig) (*MongoClient, error) {
	uri, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MongoDB URI: %w", err)
	}
	dbName := strings.TrimPrefix(uri.Path, "/")
	if dbName == "" {
		dbName = "quizmas"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoClient{client: client, db: client.Database(dbName)}, nil
}

func (c *MongoClient) Database() *mongo.Database {
	return c.db
}

func (c *MongoClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *MongoClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// EnsureIndex creates a descending index on field if it does not exist.
func (c *MongoClient) EnsureIndex(ctx context.Context, collection, field string) error {
	_, err := c.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create %s index on %s: %w", field, collection, err)
	}
	return nil
}
