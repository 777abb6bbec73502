package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dandantas/starling/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileRepository loads automation profiles from MongoDB. It satisfies
// store.ProfileStore.
type ProfileRepository struct {
	db *MongoDB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *MongoDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// List retrieves all profiles in insertion order. Invalid records are
// skipped with a warning, matching the file-backed store.
func (r *ProfileRepository) List(ctx context.Context) ([]model.Profile, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.db.GetCollection(CollectionProfiles).Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var profiles []model.Profile
	if err := cursor.All(ctxTimeout, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	out := make([]model.Profile, 0, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			slog.Warn("Skipping invalid profile", "error", err)
			continue
		}
		out = append(out, p)
	}

	return out, nil
}
