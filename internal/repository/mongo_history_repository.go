package repository

import (
	"context"

	"quizmas-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const HistoryCollection = "game_history"

// MongoHistoryRepository keeps history entries as documents in one collection.
type MongoHistoryRepository struct {
	coll *mongo.Collection
}

func NewMongoHistoryRepository(db *mongo.Database) *MongoHistoryRepository {
	return &MongoHistoryRepository{coll: db.Collection(HistoryCollection)}
}

func (r *MongoHistoryRepository) Create(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: entry.ID}},
		bson.D{{Key: "$setOnInsert", Value: entry}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "played_at", Value: -1}}).
		SetLimit(int64(historyLimit(limit)))
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.HistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoHistoryRepository) Totals(ctx context.Context) (int, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "games", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "players", Value: bson.D{{Key: "$sum", Value: "$player_count"}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var totals []struct {
		Games   int `bson:"games"`
		Players int `bson:"players"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return 0, 0, err
	}
	if len(totals) == 0 {
		return 0, 0, nil
	}
	return totals[0].Games, totals[0].Players, nil
}
