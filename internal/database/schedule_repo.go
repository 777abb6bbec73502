package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dandantas/starling/internal/model"
	"github.com/dandantas/starling/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// scheduleDocID pins the schedule to a single well-known document; there is
// only ever one live schedule.
const scheduleDocID = "current"

// scheduleDocument wraps the schedule with its fixed document ID
type scheduleDocument struct {
	ID       string         `bson:"_id"`
	Schedule model.Schedule `bson:"schedule"`
}

// ScheduleRepository persists the schedule as a single MongoDB document. It
// satisfies store.ScheduleStore.
type ScheduleRepository struct {
	db *MongoDB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *MongoDB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Load reads the persisted schedule
func (r *ScheduleRepository) Load(ctx context.Context) (*model.Schedule, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc scheduleDocument
	err := r.db.GetCollection(CollectionSchedule).
		FindOne(ctxTimeout, bson.M{"_id": scheduleDocID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	return &doc.Schedule, nil
}

// Save replaces the persisted schedule wholesale
func (r *ScheduleRepository) Save(ctx context.Context, schedule *model.Schedule) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := scheduleDocument{ID: scheduleDocID, Schedule: *schedule}
	opts := options.Replace().SetUpsert(true)

	_, err := r.db.GetCollection(CollectionSchedule).
		ReplaceOne(ctxTimeout, bson.M{"_id": scheduleDocID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	return nil
}

// Delete removes the persisted schedule
func (r *ScheduleRepository) Delete(ctx context.Context) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.GetCollection(CollectionSchedule).
		DeleteOne(ctxTimeout, bson.M{"_id": scheduleDocID})
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	return nil
}
