package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID          string     `bun:"id,pk" json:"id"`
	UserID      string     `bun:"user_id,notnull" json:"userId"`
	EventID     string     `bun:"event_id,notnull" json:"eventId"`
	SeatNumber  int        `bun:"seat_number,notnull" json:"seatNumber"`
	QRCode      string     `bun:"qr_code,notnull" json:"qrCode"`
	CheckedIn   bool       `bun:"checked_in,notnull,default:false" json:"checkedIn"`
	CheckedInAt *time.Time `bun:"checked_in_at" json:"checkedInAt,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"createdAt"`
}

type BookTicketRequest struct {
	EventID    string `json:"eventId"`
	SeatNumber int    `json:"seatNumber"`
}

type BookTicketResponse struct {
	Message string  `json:"message"`
	Ticket  *Ticket `json:"ticket"`
}

// TicketView is a ticket joined to the event it references.
type TicketView struct {
	Ticket
	Event EventSummary `json:"event"`
	User  *UserSummary `json:"user,omitempty"`
}

type VerifyTicketRequest struct {
	Proof string `json:"proof"`
}

// VerifyTicketResponse echoes what a valid proof binds.
type VerifyTicketResponse struct {
	Valid      bool   `json:"valid"`
	Title      string `json:"title"`
	SeatNumber int    `json:"seatNumber"`
	UserID     string `json:"userId"`
}
