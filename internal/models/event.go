package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID             string    `bun:"id,pk" json:"id"`
	Title          string    `bun:"title,notnull" json:"title"`
	Description    string    `bun:"description,notnull" json:"description"`
	Date           time.Time `bun:"date,notnull" json:"date"`
	Venue          string    `bun:"venue,notnull" json:"venue"`
	Price          float64   `bun:"price,notnull" json:"price"`
	Image          string    `bun:"image" json:"image,omitempty"`
	Seats          int       `bun:"seats,notnull" json:"seats"`
	AvailableSeats int       `bun:"available_seats,notnull" json:"availableSeats"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// HasDisplayFields reports whether the event carries what a ticket view needs.
func (e *Event) HasDisplayFields() bool {
	return e != nil && e.ID != "" && e.Title != "" && !e.Date.IsZero()
}

// EventSummary is the slice of an event embedded into ticket views.
type EventSummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Venue string    `json:"venue"`
	Price float64   `json:"price"`
	Image string    `json:"image,omitempty"`
}

func (e *Event) Summary() EventSummary {
	return EventSummary{
		ID:    e.ID,
		Title: e.Title,
		Date:  e.Date,
		Venue: e.Venue,
		Price: e.Price,
		Image: e.Image,
	}
}

// CreateEventRequest is the admin payload for a new event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Venue       string    `json:"venue" validate:"required,max=200"`
	Price       float64   `json:"price" validate:"gte=0"`
	Image       string    `json:"image" validate:"omitempty,max=2048"`
	Seats       int       `json:"seats" validate:"required,gt=0,lte=100000"`
}

// UpdateEventRequest carries partial admin edits; nil fields are left untouched.
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	Date        *time.Time `json:"date"`
	Venue       *string    `json:"venue" validate:"omitempty,min=1,max=200"`
	Price       *float64   `json:"price" validate:"omitempty,gte=0"`
	Image       *string    `json:"image" validate:"omitempty,max=2048"`
	Seats       *int       `json:"seats" validate:"omitempty,gt=0,lte=100000"`
}
