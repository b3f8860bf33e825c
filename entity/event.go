package entity

import (
	"time"
)

// Event is the raw form of a published lifecycle event, kept in the audit
// store exactly as it went over the wire.
type Event struct {
	ID          string    `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	Name        string    `db:"event_name"`
	Payload     string    `db:"event_payload"`
}
