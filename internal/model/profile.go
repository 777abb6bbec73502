package model

import (
	"errors"
	"fmt"
	"time"
)

// DelayRange is the pacing window, in seconds, passed through to the
// automation driver. The scheduler itself never consults it.
type DelayRange struct {
	MinSec int `json:"min_sec" bson:"min_sec"`
	MaxSec int `json:"max_sec" bson:"max_sec"`
}

// Validate validates the delay range
func (d *DelayRange) Validate() error {
	if d.MinSec < 0 || d.MaxSec < 0 {
		return errors.New("delay range values must be non-negative")
	}
	if d.MaxSec > 0 && d.MinSec > d.MaxSec {
		return fmt.Errorf("delay range min (%d) exceeds max (%d)", d.MinSec, d.MaxSec)
	}
	return nil
}

// Profile represents one automation identity that can receive scheduled
// engagement actions. Profiles are loaded once at startup and are immutable
// for the lifetime of the process.
type Profile struct {
	ID                string      `json:"id" bson:"_id"`
	Name              string      `json:"name,omitempty" bson:"name,omitempty"`
	ExternalAccountID string      `json:"external_account_id" bson:"external_account_id"`
	Enabled           bool        `json:"enabled" bson:"enabled"`
	DelayRange        *DelayRange `json:"delay_range,omitempty" bson:"delay_range,omitempty"`
	CreatedAt         time.Time   `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt         time.Time   `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Validate validates a profile record
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile id is required")
	}
	if p.ExternalAccountID == "" {
		return fmt.Errorf("profile %s: external account id is required", p.ID)
	}
	if p.DelayRange != nil {
		if err := p.DelayRange.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
	}
	return nil
}

// FilterEnabled returns only the enabled profiles, preserving order
func FilterEnabled(profiles []Profile) []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
