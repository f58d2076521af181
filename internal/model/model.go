// Package model defines domain entities used by services and repositories.
package model

import "time"

// Activity is a scheduled event. ID is assigned by the client before the first
// network call and never changes afterwards.
type Activity struct {
	ID          string
	Title       string
	Description string
	Category    string
	Date        time.Time
	City        string
	Venue       string
	Attendees   []Attendee // owned by the attendance subsystem, stored as an opaque set
}

// Attendee is a participant attached to an activity.
type Attendee struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Image       string `json:"image,omitempty"`
	IsHost      bool   `json:"isHost"`
}

// Before reports whether a sorts ahead of b in the date ordering used by lists.
// Ties on date are broken by id so the order is deterministic.
func Before(a, b Activity) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}
