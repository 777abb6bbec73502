package model

import (
	"sync"
	"time"
)

// RunTrigger identifies what initiated a dispatch
type RunTrigger string

const (
	TriggerSchedule RunTrigger = "schedule"
	TriggerRandom   RunTrigger = "random"
	TriggerManual   RunTrigger = "manual"
)

// RunRecord is one dispatch outcome, kept for operator visibility
type RunRecord struct {
	CorrelationID string      `json:"correlation_id" bson:"correlation_id"`
	ProfileID     string      `json:"profile_id" bson:"profile_id"`
	ActionType    ActionType  `json:"action_type" bson:"action_type"`
	Trigger       RunTrigger  `json:"trigger" bson:"trigger"`
	ExecutedAt    time.Time   `json:"executed_at" bson:"executed_at"`
	DurationMs    int64       `json:"duration_ms" bson:"duration_ms"`
	Status        string      `json:"status" bson:"status"` // "completed" | "failed"
	Error         string      `json:"error,omitempty" bson:"error,omitempty"`
	Result        *SlotResult `json:"result,omitempty" bson:"result,omitempty"`
}

// RunLog records dispatch outcomes. The in-memory implementation keeps a
// bounded ring, newest first; the Mongo backend persists alongside it.
type RunLog interface {
	Append(record RunRecord)
	Recent(limit int) []RunRecord
}

// MemoryRunLog is a fixed-capacity in-memory run log
type MemoryRunLog struct {
	mu       sync.RWMutex
	records  []RunRecord
	capacity int
}

// NewMemoryRunLog creates a run log holding at most capacity records
func NewMemoryRunLog(capacity int) *MemoryRunLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryRunLog{capacity: capacity}
}

// Append adds a record, evicting the oldest when at capacity
func (l *MemoryRunLog) Append(record RunRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	if len(l.records) > l.capacity {
		l.records = l.records[len(l.records)-l.capacity:]
	}
}

// Recent returns up to limit records, newest first
func (l *MemoryRunLog) Recent(limit int) []RunRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]RunRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.records[i])
	}
	return out
}
