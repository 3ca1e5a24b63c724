package models

import "time"

// TicketBookedEvent is published after a booking commits.
type TicketBookedEvent struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	SeatNumber int       `json:"seat_number"`
	BookedAt   time.Time `json:"booked_at"`
}

// EventDeletedEvent is published after an event row is removed so dependents can be reconciled.
type EventDeletedEvent struct {
	EventID   string    `json:"event_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func NewTicketBookedEvent(t Ticket) TicketBookedEvent {
	return TicketBookedEvent{
		TicketID:   t.ID,
		EventID:    t.EventID,
		UserID:     t.UserID,
		SeatNumber: t.SeatNumber,
		BookedAt:   t.CreatedAt,
	}
}
