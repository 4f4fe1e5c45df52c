// Package queue defines the activity events exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// ActivityQueue is the durable queue carrying ActivityEvent payloads.
const ActivityQueue = "movieweb.activity"

// Event types.
const (
	UserAdded        = "user.added"
	MovieAdded       = "movie.added"
	MovieUpdated     = "movie.updated"
	MovieDeleted     = "movie.deleted"
	UserMovieAdded   = "user_movie.added"
	UserMovieRemoved = "user_movie.removed"
)

// ActivityEvent is published after a successful write. Fields that do not
// apply to an event type are left zero.
type ActivityEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id,omitempty"`
	UserName   string    `json:"user_name,omitempty"`
	MovieID    int64     `json:"movie_id,omitempty"`
	MovieName  string    `json:"movie_name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewActivityEvent stamps a fresh id and the current UTC time.
func NewActivityEvent(typ string) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
	}
}
