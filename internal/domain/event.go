package domain

import (
	"context"
	"math"
	"time"
)

// MaxStoredID is the largest row id the SERIAL key columns can hold. A larger
// id cannot name an existing record.
const MaxStoredID = math.MaxInt32

// Event represents an organization event members can check in to.
// swagger:model Event
type Event struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	EventDate time.Time `json:"event_date"`
	Location  string    `json:"location"`
}

// EventRepository defines read access to events.
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*Event, error)
}
