package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates the indexes required by the repositories
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	runLogIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "executed_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "correlation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "profile_id", Value: 1},
				{Key: "executed_at", Value: -1},
			},
		},
	}

	if _, err := db.GetCollection(CollectionRunLog).Indexes().CreateMany(ctxTimeout, runLogIndexes); err != nil {
		return fmt.Errorf("failed to create run log indexes: %w", err)
	}

	profileIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "enabled", Value: 1}},
		},
	}

	if _, err := db.GetCollection(CollectionProfiles).Indexes().CreateMany(ctxTimeout, profileIndexes); err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}

	slog.Info("MongoDB indexes created")
	return nil
}
