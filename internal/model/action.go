package model

import "fmt"

// ActionType is an engagement action assignable to a slot
type ActionType string

const (
	ActionComment ActionType = "comment"
	ActionLike    ActionType = "like"
	ActionRetweet ActionType = "retweet"
)

// DefaultVocabulary returns the full set of schedulable actions
func DefaultVocabulary() []ActionType {
	return []ActionType{ActionComment, ActionLike, ActionRetweet}
}

// ParseActionType validates and normalizes an action type string
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionComment, ActionLike, ActionRetweet:
		return ActionType(s), nil
	default:
		return "", fmt.Errorf("invalid action type: %q (must be 'comment', 'like', or 'retweet')", s)
	}
}

// SlotStatus is the lifecycle status of a schedule slot
type SlotStatus string

const (
	StatusScheduled SlotStatus = "scheduled"
	StatusRunning   SlotStatus = "running"
	StatusCompleted SlotStatus = "completed"
	StatusFailed    SlotStatus = "failed"
)

// IsTerminal reports whether a status ends the slot's lifecycle
func (s SlotStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
