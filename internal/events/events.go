// Package events publishes activity change notifications after a successful commit.
package events

import (
	"context"
	"time"

	"github.com/and161185/activities/internal/api"
)

// Type names a change notification.
type Type string

const (
	ActivityCreated Type = "activity.created"
	ActivityUpdated Type = "activity.updated"
	ActivityDeleted Type = "activity.deleted"
)

// Event describes a committed change. Activity is nil for deletions.
type Event struct {
	Type       Type             `json:"type"`
	ActivityID string           `json:"activityId"`
	Activity   *api.ActivityDTO `json:"activity,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publisher delivers events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
