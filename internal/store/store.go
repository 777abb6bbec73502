package store

import (
	"context"
	"errors"

	"github.com/dandantas/starling/internal/model"
)

// ErrNotFound is returned when no schedule has been persisted yet
var ErrNotFound = errors.New("schedule not found")

// ErrSlotSettled is returned when a status update targets a slot that has
// already reached a terminal state
var ErrSlotSettled = errors.New("slot already settled")

// ScheduleStore persists the whole schedule document. Implementations are
// dumb read/write backends; healing and slot mutation live in Manager, so a
// backend can be swapped (flat file, MongoDB, an embedded KV store) without
// touching callers.
type ScheduleStore interface {
	Load(ctx context.Context) (*model.Schedule, error)
	Save(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context) error
}

// ProfileStore loads the profile list. Read once at startup.
type ProfileStore interface {
	List(ctx context.Context) ([]model.Profile, error)
}
