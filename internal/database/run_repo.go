package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/dandantas/starling/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunLogRepository persists dispatch outcomes. It satisfies model.RunLog;
// failures are logged, never surfaced, because the run log must not affect
// settlement.
type RunLogRepository struct {
	db *MongoDB
}

// NewRunLogRepository creates a new run log repository
func NewRunLogRepository(db *MongoDB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

// Append inserts a run record
func (r *RunLogRepository) Append(record model.RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := r.db.GetCollection(CollectionRunLog).InsertOne(ctx, record); err != nil {
		slog.Error("Failed to persist run record",
			"correlation_id", record.CorrelationID,
			"error", err,
		)
	}
}

// Recent returns up to limit records, newest first
func (r *RunLogRepository) Recent(limit int) []model.RunRecord {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "executed_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.GetCollection(CollectionRunLog).Find(ctx, bson.M{}, opts)
	if err != nil {
		slog.Error("Failed to list run records", "error", err)
		return nil
	}
	defer cursor.Close(ctx)

	var records []model.RunRecord
	if err := cursor.All(ctx, &records); err != nil {
		slog.Error("Failed to decode run records", "error", err)
		return nil
	}

	return records
}
