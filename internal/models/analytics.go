package models

import "time"

// MostBookedEvent is one row of the most-booked rollup.
type MostBookedEvent struct {
	EventID      string    `bun:"event_id" json:"eventId"`
	Title        string    `bun:"title" json:"title"`
	BookingCount int       `bun:"booking_count" json:"bookingCount"`
	Date         time.Time `bun:"date" json:"date"`
	Venue        string    `bun:"venue" json:"venue"`
	Price        float64   `bun:"price" json:"price"`
	Image        string    `bun:"image" json:"image,omitempty"`
}

type NotificationType string

const (
	NotificationUpcoming NotificationType = "upcoming"
	NotificationClosed   NotificationType = "closed"
	NotificationLowSeats NotificationType = "low_seats"
)

type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
	EventID string           `json:"eventId"`
	Time    string           `json:"time"`
}
